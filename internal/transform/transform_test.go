package transform

import (
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brdata/dqflow/internal/domain"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestCleanIdentifier(t *testing.T) {
	cases := []struct {
		name   string
		input  *string
		wantID int64
		wantOK bool
	}{
		{name: "prefixed id", input: strPtr("CLI_1007"), wantID: 1007, wantOK: true},
		{name: "bare integer", input: strPtr("7"), wantID: 7, wantOK: true},
		{name: "digits embedded", input: strPtr("abc42def99"), wantID: 42, wantOK: true},
		{name: "zero run survives", input: strPtr("CLI_000"), wantID: 0, wantOK: true},
		{name: "no digits", input: strPtr("CLI_ABC"), wantOK: false},
		{name: "absent", input: nil, wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := CleanIdentifier(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if ok && id != tc.wantID {
				t.Fatalf("expected id %d, got %d", tc.wantID, id)
			}
		})
	}
}

func TestCleanEmail(t *testing.T) {
	if _, ok := CleanEmail(strPtr(InvalidEmailSentinel)); ok {
		t.Fatalf("expected sentinel email to become absent")
	}
	if _, ok := CleanEmail(nil); ok {
		t.Fatalf("expected nil email to stay absent")
	}
	email, ok := CleanEmail(strPtr("not-an-email"))
	if !ok || email != "not-an-email" {
		t.Fatalf("cleaning must not judge email validity, got %q ok=%v", email, ok)
	}
}

func TestCleanDropsRowsThatCanNeverBecomeValid(t *testing.T) {
	batch := []domain.StagedCustomer{
		{
			IDCliente:         strPtr("CLI_5"),
			Nome:              strPtr("Ana"),
			Email:             strPtr(InvalidEmailSentinel),
			DataCadastro:      datePtr("2021-06-01"),
			ValorUltimaCompra: decPtr("-10"),
			Status:            strPtr("INVALIDO"),
		},
		{
			IDCliente:         strPtr("7"),
			Nome:              strPtr("Bruno"),
			Email:             strPtr("a@b.com"),
			DataCadastro:      datePtr("2022-01-15"),
			ValorUltimaCompra: decPtr("50.00"),
			Status:            strPtr("ATIVO"),
		},
		{
			IDCliente:         nil,
			Nome:              strPtr("Carla"),
			Email:             strPtr("c@d.com"),
			DataCadastro:      datePtr("2022-03-10"),
			ValorUltimaCompra: decPtr("30"),
			Status:            strPtr("PENDENTE"),
		},
	}

	cleaned := Clean(batch)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 surviving row, got %d", len(cleaned))
	}
	if cleaned[0].IDCliente != 7 {
		t.Fatalf("expected surviving row to have id 7, got %d", cleaned[0].IDCliente)
	}
	if cleaned[0].Email != "a@b.com" {
		t.Fatalf("unexpected email: %q", cleaned[0].Email)
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	original := strPtr("CLI_9")
	batch := []domain.StagedCustomer{{IDCliente: original, Email: strPtr("x@y.com")}}

	_ = Clean(batch)

	if *batch[0].IDCliente != "CLI_9" {
		t.Fatalf("staged row mutated: %q", *batch[0].IDCliente)
	}
}

// Cleaning already-clean rows must be a no-op: re-staging the output and
// cleaning again yields the same set.
func TestCleanIsIdempotent(t *testing.T) {
	batch := []domain.StagedCustomer{
		{
			IDCliente:         strPtr("CLI_1007"),
			Nome:              strPtr("Ana"),
			Email:             strPtr("ana@example.com"),
			DataCadastro:      datePtr("2021-06-01"),
			ValorUltimaCompra: decPtr("120.75"),
			Status:            strPtr("ATIVO"),
		},
		{
			IDCliente:         strPtr("42"),
			Nome:              strPtr("Bruno"),
			Email:             strPtr("bruno@example.com"),
			DataCadastro:      datePtr("2020-11-20"),
			ValorUltimaCompra: decPtr("15.00"),
			Status:            strPtr("PENDENTE"),
		},
	}

	once := Clean(batch)
	twice := Clean(restage(once))

	if len(once) != len(twice) {
		t.Fatalf("idempotence broken: %d rows then %d rows", len(once), len(twice))
	}
	for idx := range once {
		if once[idx].IDCliente != twice[idx].IDCliente || once[idx].Email != twice[idx].Email {
			t.Fatalf("row %d changed on second clean: %+v vs %+v", idx, once[idx], twice[idx])
		}
	}
}

// restage converts cleaned rows back into staged form, the way a re-run over
// its own output would see them.
func restage(cleaned []domain.CleanCustomer) []domain.StagedCustomer {
	staged := make([]domain.StagedCustomer, 0, len(cleaned))
	for _, row := range cleaned {
		idText := strconv.FormatInt(row.IDCliente, 10)
		email := row.Email
		staged = append(staged, domain.StagedCustomer{
			IDCliente:         &idText,
			Nome:              row.Nome,
			Email:             &email,
			DataCadastro:      row.DataCadastro,
			ValorUltimaCompra: row.ValorUltimaCompra,
			Status:            row.Status,
		})
	}
	return staged
}
