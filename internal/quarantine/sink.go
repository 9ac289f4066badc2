// Package quarantine persists rejected rows, plus the reasons they were
// refused, to a durable artifact for offline inspection. The artifact is the
// only place rejected data survives; it is overwritten on every run so
// residue from a previous failed run never blocks the current one.
package quarantine

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brdata/dqflow/internal/domain"
	"github.com/brdata/dqflow/internal/validation"
)

var columns = []string{
	"id_cliente",
	"nome",
	"email",
	"data_cadastro",
	"valor_ultima_compra",
	"status",
	"motivo_rejeicao",
}

// Sink durably stores the rejected subset of a run.
type Sink interface {
	Write(run domain.Run, rejects []validation.Reject) error
}

// NewSink picks a sink implementation from the artifact path's extension:
// ".xlsx" produces a spreadsheet report, anything else a CSV file.
func NewSink(path string) Sink {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return &excelSink{path: path}
	}
	return &csvSink{path: path}
}

type csvSink struct {
	path string
}

func (s *csvSink) Write(run domain.Run, rejects []validation.Reject) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create quarantine directory: %w", err)
	}

	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create quarantine file: %w", err)
	}
	defer func() { _ = file.Close() }()

	buffered := bufio.NewWriter(file)
	writer := csv.NewWriter(buffered)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write quarantine header: %w", err)
	}
	for _, reject := range rejects {
		if err := writer.Write(rejectRow(reject)); err != nil {
			return fmt.Errorf("failed to write quarantine row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush quarantine rows: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("failed to flush quarantine file: %w", err)
	}
	return file.Close()
}

// rejectRow renders one rejected record in column order, with every failure
// reason joined into the final column.
func rejectRow(reject validation.Reject) []string {
	record := reject.Record

	row := make([]string, 0, len(columns))
	row = append(row, fmt.Sprintf("%d", record.IDCliente))
	row = append(row, stringOrEmpty(record.Nome))
	row = append(row, record.Email)

	if record.DataCadastro != nil {
		row = append(row, record.DataCadastro.Format("2006-01-02"))
	} else {
		row = append(row, "")
	}
	if record.ValorUltimaCompra != nil {
		row = append(row, record.ValorUltimaCompra.StringFixed(2))
	} else {
		row = append(row, "")
	}
	row = append(row, stringOrEmpty(record.Status))
	row = append(row, strings.Join(reject.Reasons, "; "))
	return row
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
