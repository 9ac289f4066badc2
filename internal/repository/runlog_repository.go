package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brdata/dqflow/internal/db"
	"github.com/brdata/dqflow/internal/domain"
)

type runLogRepository struct {
	conn *db.Connection
}

// NewRunLogRepository wires a run log repository backed by the shared
// connection handle.
func NewRunLogRepository(conn *db.Connection) RunLogRepository {
	return &runLogRepository{conn: conn}
}

// Append writes one audit entry. The timestamp is assigned by the store.
func (r *runLogRepository) Append(ctx context.Context, entry domain.RunLogEntry) error {
	var detail any
	if entry.Detail != nil {
		payload, err := json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("failed to serialize log detail: %w", err)
		}
		detail = payload
	}

	_, err := r.conn.Pool.Exec(ctx, `
		INSERT INTO pipeline_logs (pipeline_name, etapa, status, mensagem, detalhes)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.PipelineName,
		string(entry.Stage),
		string(entry.Status),
		entry.Message,
		detail,
	)
	if err != nil {
		return fmt.Errorf("failed to append pipeline log: %w", err)
	}
	return nil
}

// List returns the most recent entries for a pipeline, newest first.
func (r *runLogRepository) List(ctx context.Context, pipelineName string, limit int, offset int) ([]domain.RunLogEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.Pool.Query(ctx, `
		SELECT id, "timestamp", pipeline_name, etapa, status, mensagem, detalhes
		FROM pipeline_logs
		WHERE pipeline_name = $1
		ORDER BY "timestamp" DESC, id DESC
		LIMIT $2 OFFSET $3`,
		pipelineName, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline logs: %w", err)
	}
	defer rows.Close()

	entries := []domain.RunLogEntry{}
	for rows.Next() {
		var (
			entry     domain.RunLogEntry
			createdAt pgtype.Timestamptz
			stage     string
			status    string
			detail    []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&createdAt,
			&entry.PipelineName,
			&stage,
			&status,
			&entry.Message,
			&detail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline log: %w", err)
		}

		entry.Stage = domain.Stage(stage)
		entry.Status = domain.Status(status)
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &entry.Detail); err != nil {
				return nil, fmt.Errorf("failed to decode log detail: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pipeline logs: %w", err)
	}
	return entries, nil
}
