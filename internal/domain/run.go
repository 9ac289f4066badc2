package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run identifies one end-to-end pipeline execution for audit purposes.
type Run struct {
	ID        uuid.UUID
	Pipeline  string
	StartedAt time.Time
}

// NewRun starts a new uniquely identified run of the named pipeline.
func NewRun(pipeline string) Run {
	return Run{
		ID:        uuid.New(),
		Pipeline:  pipeline,
		StartedAt: time.Now(),
	}
}
