package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brdata/dqflow/internal/db"
	"github.com/brdata/dqflow/internal/domain"
)

// ErrDuplicateEmail reports that the batch violated the historical store's
// unique-email invariant. The whole batch is rolled back when this happens.
var ErrDuplicateEmail = errors.New("duplicate email in historico_clientes")

const uniqueViolationCode = "23505"

type historyRepository struct {
	conn *db.Connection
}

// NewHistoryRepository wires a history repository backed by the shared
// connection handle.
func NewHistoryRepository(conn *db.Connection) HistoryRepository {
	return &historyRepository{conn: conn}
}

// BulkInsert commits the accepted batch as one transaction and returns the
// number of rows written. On any failure nothing is committed.
func (r *historyRepository) BulkInsert(ctx context.Context, records []domain.HistoricalCustomer) (int64, error) {
	var inserted int64
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"historico_clientes"},
			[]string{"id_cliente", "nome", "email", "data_cadastro", "valor_ultima_compra", "status"},
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				record := records[i]
				return []any{
					record.IDCliente,
					record.Nome,
					record.Email,
					record.DataCadastro,
					record.ValorUltimaCompra,
					record.Status,
				}, nil
			}),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
			}
			return fmt.Errorf("failed to copy rows into historico_clientes: %w", err)
		}
		inserted = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// CountAll returns the number of rows in the historical store.
func (r *historyRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM historico_clientes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count historico_clientes: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
