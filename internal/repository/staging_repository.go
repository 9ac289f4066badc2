package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brdata/dqflow/internal/db"
	"github.com/brdata/dqflow/internal/domain"
)

type stagingRepository struct {
	conn *db.Connection
}

// NewStagingRepository wires a staging repository backed by the shared
// connection handle.
func NewStagingRepository(conn *db.Connection) StagingRepository {
	return &stagingRepository{conn: conn}
}

// ListAll reads the entire staged batch. The pipeline is batch-oriented, so
// no filtering or paging is needed.
func (r *stagingRepository) ListAll(ctx context.Context) ([]domain.StagedCustomer, error) {
	rows, err := r.conn.Pool.Query(ctx, `
		SELECT id, id_cliente, nome, email, data_cadastro, valor_ultima_compra, status
		FROM stage_clientes
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage_clientes: %w", err)
	}
	defer rows.Close()

	var staged []domain.StagedCustomer
	for rows.Next() {
		var row domain.StagedCustomer
		if err := rows.Scan(
			&row.ID,
			&row.IDCliente,
			&row.Nome,
			&row.Email,
			&row.DataCadastro,
			&row.ValorUltimaCompra,
			&row.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staged customer: %w", err)
		}
		staged = append(staged, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stage_clientes: %w", err)
	}
	return staged, nil
}

// ReplaceAll truncates the staging table and bulk-loads the given rows in a
// single transaction.
func (r *stagingRepository) ReplaceAll(ctx context.Context, staged []domain.StagedCustomer) (int64, error) {
	var inserted int64
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE stage_clientes RESTART IDENTITY`); err != nil {
			return fmt.Errorf("failed to truncate stage_clientes: %w", err)
		}

		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"stage_clientes"},
			[]string{"id_cliente", "nome", "email", "data_cadastro", "valor_ultima_compra", "status"},
			pgx.CopyFromSlice(len(staged), func(i int) ([]any, error) {
				row := staged[i]
				return []any{
					row.IDCliente,
					row.Nome,
					row.Email,
					row.DataCadastro,
					row.ValorUltimaCompra,
					row.Status,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to copy rows into stage_clientes: %w", err)
		}
		inserted = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
