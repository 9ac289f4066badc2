// Command dqseed resets the pipeline tables and bulk-loads a staging CSV
// into stage_clientes in a single transaction. It exists so an environment
// can be rebuilt from a raw extract before running the pipeline.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/brdata/dqflow/internal/config"
	"github.com/brdata/dqflow/internal/db"
	"github.com/brdata/dqflow/internal/domain"
	"github.com/brdata/dqflow/internal/repository"
	"github.com/brdata/dqflow/internal/schema"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

func main() {
	csvPath := flag.String("csv", "data/stage_clientes.csv", "path to the staging extract")
	reset := flag.Bool("reset", true, "drop and recreate all pipeline tables before loading")
	flag.Parse()

	stream := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(".")
	if err != nil {
		stream.Fatal().Err(err).Msg("configuration error")
	}

	if *reset {
		if err := db.ResetMigrations(cfg.Database.URL()); err != nil {
			stream.Fatal().Err(err).Msg("failed to reset database schema")
		}
	} else if err := db.RunMigrations(cfg.Database.URL()); err != nil {
		stream.Fatal().Err(err).Msg("failed to run migrations")
	}

	rows, err := readStagingCSV(*csvPath)
	if err != nil {
		stream.Fatal().Err(err).Str("csv", *csvPath).Msg("failed to read staging extract")
	}
	if len(rows) == 0 {
		stream.Fatal().Str("csv", *csvPath).Msg("staging extract has no data rows")
	}

	ctx := context.Background()
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		stream.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	staging := repository.NewStagingRepository(conn)
	inserted, err := staging.ReplaceAll(ctx, rows)
	if err != nil {
		stream.Fatal().Err(err).Msg("failed to load staging rows")
	}

	stream.Info().Int64("carregados", inserted).Str("csv", *csvPath).Msg("staging table seeded")
}

// readStagingCSV parses a staging extract. Header order is fixed:
// id_cliente, nome, email, data_cadastro, valor_ultima_compra, status.
// Unparseable dates and amounts load as NULL so the pipeline can exercise
// its own validation; they are not a seeding error.
func readStagingCSV(path string) ([]domain.StagedCustomer, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = 6

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	rows := make([]domain.StagedCustomer, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, domain.StagedCustomer{
			IDCliente:         optionalString(record[0]),
			Nome:              optionalString(record[1]),
			Email:             optionalString(record[2]),
			DataCadastro:      optionalDate(record[3]),
			ValorUltimaCompra: optionalAmount(record[4]),
			Status:            optionalString(record[5]),
		})
	}
	return rows, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func optionalDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := schema.ParseDate(value)
	if err != nil {
		return nil
	}
	return &parsed
}

// optionalAmount quantizes to the two decimal places the staging column
// carries.
func optionalAmount(value string) *decimal.Decimal {
	if value == "" {
		return nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	rounded := parsed.Round(2)
	return &rounded
}
