package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/brdata/dqflow/internal/config"
	"github.com/brdata/dqflow/internal/db"
	"github.com/brdata/dqflow/internal/domain"
	"github.com/brdata/dqflow/internal/pipeline"
	"github.com/brdata/dqflow/internal/quarantine"
	"github.com/brdata/dqflow/internal/repository"
	"github.com/brdata/dqflow/internal/runlog"
)

func main() {
	stream := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(".")
	if err != nil {
		stream.Fatal().Err(err).Msg("configuration error, pipeline never started")
	}

	ctx := context.Background()

	if err := db.RunMigrations(cfg.Database.URL()); err != nil {
		stream.Fatal().Err(err).Msg("failed to run migrations")
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		stream.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	staging := repository.NewStagingRepository(conn)
	history := repository.NewHistoryRepository(conn)
	logStore := repository.NewRunLogRepository(conn)

	logger := runlog.New(cfg.Pipeline.Name, logStore, stream)
	sink := quarantine.NewSink(cfg.Pipeline.QuarantinePath)

	pipe := pipeline.New(cfg.Pipeline.Name, staging, history, sink, logger)

	result, err := pipe.Run(ctx)
	if err != nil {
		// The pipeline has already audited the critical failure.
		stream.Error().Err(err).Msg("pipeline aborted")
		os.Exit(1)
	}

	event := stream.Info()
	if result.Status == domain.StatusFailed {
		event = stream.Warn()
	}
	event.
		Str("run_id", result.RunID.String()).
		Str("status", string(result.Status)).
		Int("extraidos", result.Extracted).
		Int("descartados", result.Dropped).
		Int("aceitos", result.Accepted).
		Int("rejeitados", result.Rejected).
		Int64("carregados", result.Loaded).
		Msg("pipeline finished")
}
