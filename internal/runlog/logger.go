// Package runlog records structured stage-by-stage pipeline status to two
// places at once: a durable audit table and a live zerolog stream. The audit
// store is best effort; the pipeline's business outcome never depends on an
// audit write succeeding.
package runlog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/brdata/dqflow/internal/domain"
)

// Store appends audit entries durably.
type Store interface {
	Append(ctx context.Context, entry domain.RunLogEntry) error
}

// Logger emits one RunLogEntry per stage transition.
type Logger struct {
	pipeline string
	store    Store
	stream   zerolog.Logger
}

// New returns a logger for the named pipeline. A nil store is allowed; the
// logger then emits to the live stream only.
func New(pipeline string, store Store, stream zerolog.Logger) *Logger {
	return &Logger{
		pipeline: pipeline,
		store:    store,
		stream:   stream.With().Str("pipeline", pipeline).Logger(),
	}
}

// Log records one stage transition. A failure to persist the entry is
// reported to the live stream and swallowed.
func (l *Logger) Log(ctx context.Context, stage domain.Stage, status domain.Status, message string, detail map[string]any) {
	event := l.streamEvent(status).
		Str("etapa", string(stage)).
		Str("status", string(status))
	if len(detail) > 0 {
		event = event.Fields(detail)
	}
	event.Msg(message)

	if l.store == nil {
		return
	}

	entry := domain.RunLogEntry{
		PipelineName: l.pipeline,
		Stage:        stage,
		Status:       status,
		Message:      message,
		Detail:       detail,
	}
	if err := l.store.Append(ctx, entry); err != nil {
		l.stream.Error().Err(err).
			Str("etapa", string(stage)).
			Msg("failed to persist pipeline log entry")
	}
}

func (l *Logger) streamEvent(status domain.Status) *zerolog.Event {
	switch status {
	case domain.StatusFailed, domain.StatusCriticalFailure:
		return l.stream.Error()
	default:
		return l.stream.Info()
	}
}
