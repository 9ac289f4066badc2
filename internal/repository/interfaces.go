package repository

import (
	"context"

	"github.com/brdata/dqflow/internal/domain"
)

// StagingRepository reads the staged customer batch and, for seeding tools,
// replaces it wholesale.
type StagingRepository interface {
	ListAll(ctx context.Context) ([]domain.StagedCustomer, error)
	ReplaceAll(ctx context.Context, rows []domain.StagedCustomer) (int64, error)
}

// HistoryRepository bulk-writes validated customers into the historical
// store. The insert is a single atomic unit: all rows commit together or
// none do.
type HistoryRepository interface {
	BulkInsert(ctx context.Context, records []domain.HistoricalCustomer) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}

// RunLogRepository appends structured audit facts to the durable log store.
type RunLogRepository interface {
	Append(ctx context.Context, entry domain.RunLogEntry) error
	List(ctx context.Context, pipelineName string, limit int, offset int) ([]domain.RunLogEntry, error)
}
