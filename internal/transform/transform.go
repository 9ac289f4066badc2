// Package transform normalizes raw staged rows before validation. Cleaning
// is pure and deterministic: no I/O, and re-running it on already-clean
// input yields the same output.
package transform

import (
	"regexp"
	"strconv"

	"github.com/brdata/dqflow/internal/domain"
)

// InvalidEmailSentinel is the literal upstream systems write when a customer
// has no usable email address.
const InvalidEmailSentinel = "email_invalido"

var digitRun = regexp.MustCompile(`\d+`)

// Clean applies the cleaning rules to every staged row and returns the rows
// that survived. Rows whose identifier or email end up absent are dropped;
// they can never become valid, so they never reach the validator.
func Clean(batch []domain.StagedCustomer) []domain.CleanCustomer {
	cleaned := make([]domain.CleanCustomer, 0, len(batch))
	for _, row := range batch {
		id, ok := CleanIdentifier(row.IDCliente)
		if !ok {
			continue
		}
		email, ok := CleanEmail(row.Email)
		if !ok {
			continue
		}
		cleaned = append(cleaned, domain.CleanCustomer{
			IDCliente:         id,
			Nome:              row.Nome,
			Email:             email,
			DataCadastro:      row.DataCadastro,
			ValorUltimaCompra: row.ValorUltimaCompra,
			Status:            row.Status,
		})
	}
	return cleaned
}

// CleanIdentifier extracts the first contiguous run of digits from a staged
// identifier such as "CLI_1007" or a bare "42". It reports false when no
// digits are present or the run does not fit an int64.
func CleanIdentifier(raw *string) (int64, bool) {
	if raw == nil {
		return 0, false
	}
	digits := digitRun.FindString(*raw)
	if digits == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// CleanEmail nullifies the invalid-email sentinel. The returned email may
// still fail validation; only the sentinel is treated as absent here.
func CleanEmail(raw *string) (string, bool) {
	if raw == nil || *raw == InvalidEmailSentinel {
		return "", false
	}
	return *raw, true
}
