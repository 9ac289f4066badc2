package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/brdata/dqflow/internal/domain"
	"github.com/brdata/dqflow/internal/runlog"
	"github.com/brdata/dqflow/internal/validation"
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

type stubStaging struct {
	rows []domain.StagedCustomer
	err  error
}

func (s *stubStaging) ListAll(_ context.Context) ([]domain.StagedCustomer, error) {
	return s.rows, s.err
}

func (s *stubStaging) ReplaceAll(_ context.Context, rows []domain.StagedCustomer) (int64, error) {
	return 0, errors.New("not supported in tests")
}

type stubHistory struct {
	inserted []domain.HistoricalCustomer
	calls    int
	err      error
}

func (s *stubHistory) BulkInsert(_ context.Context, records []domain.HistoricalCustomer) (int64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	s.inserted = append(s.inserted, records...)
	return int64(len(records)), nil
}

func (s *stubHistory) CountAll(_ context.Context) (int64, error) {
	return int64(len(s.inserted)), nil
}

type stubSink struct {
	writes [][]validation.Reject
	err    error
}

func (s *stubSink) Write(_ domain.Run, rejects []validation.Reject) error {
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, rejects)
	return nil
}

type captureStore struct {
	entries []domain.RunLogEntry
}

func (s *captureStore) Append(_ context.Context, entry domain.RunLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func newTestPipeline(staging *stubStaging, history *stubHistory, sink *stubSink) (*Pipeline, *captureStore) {
	store := &captureStore{}
	logger := runlog.New("clientes_stage_to_hist", store, zerolog.Nop())
	return New("clientes_stage_to_hist", staging, history, sink, logger), store
}

func validStagedRow(id, email string) domain.StagedCustomer {
	return domain.StagedCustomer{
		IDCliente:         strPtr(id),
		Nome:              strPtr("Cliente Teste"),
		Email:             strPtr(email),
		DataCadastro:      datePtr("2022-01-15"),
		ValorUltimaCompra: decPtr("50.00"),
		Status:            strPtr("ATIVO"),
	}
}

func (s *captureStore) last() domain.RunLogEntry {
	return s.entries[len(s.entries)-1]
}

func TestRunHappyPathLoadsAcceptedBatch(t *testing.T) {
	staging := &stubStaging{rows: []domain.StagedCustomer{
		{
			IDCliente:         strPtr("CLI_5"),
			Nome:              strPtr("Ana"),
			Email:             strPtr("email_invalido"),
			DataCadastro:      datePtr("2021-06-01"),
			ValorUltimaCompra: decPtr("-10"),
			Status:            strPtr("INVALIDO"),
		},
		validStagedRow("7", "a@b.com"),
		{
			IDCliente:         nil,
			Nome:              strPtr("Carla"),
			Email:             strPtr("c@d.com"),
			DataCadastro:      datePtr("2022-03-10"),
			ValorUltimaCompra: decPtr("30"),
			Status:            strPtr("PENDENTE"),
		},
	}}
	history := &stubHistory{}
	sink := &stubSink{}
	pipe, store := newTestPipeline(staging, history, sink)

	result, err := pipe.Run(context.Background())
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if result.Status != domain.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", result.Status)
	}
	if result.Extracted != 3 || result.Dropped != 2 || result.Accepted != 1 || result.Loaded != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(history.inserted) != 1 || history.inserted[0].IDCliente != 7 {
		t.Fatalf("expected exactly the clean row to be loaded, got %+v", history.inserted)
	}
	if len(sink.writes) != 0 {
		t.Fatalf("quarantine must not be touched on a clean run")
	}

	first := store.entries[0]
	if first.Stage != domain.StageInicio || first.Status != domain.StatusStarted {
		t.Fatalf("expected run to open with INICIO/STARTED, got %s/%s", first.Stage, first.Status)
	}
	last := store.last()
	if last.Stage != domain.StageCarga || last.Status != domain.StatusSuccess {
		t.Fatalf("expected run to close with CARGA/SUCCESS, got %s/%s", last.Stage, last.Status)
	}
	if last.Detail["aceitos"] != 1 || last.Detail["descartados"] != 2 {
		t.Fatalf("expected terminal detail {aceitos:1, descartados:2}, got %v", last.Detail)
	}
}

func TestRunQuarantinesRejectsAndStops(t *testing.T) {
	rows := []domain.StagedCustomer{
		validStagedRow("1", "um@example.com"),
		validStagedRow("2", "dois@example.com"),
	}
	rows[1].ValorUltimaCompra = decPtr("-1")

	staging := &stubStaging{rows: rows}
	history := &stubHistory{}
	sink := &stubSink{}
	pipe, store := newTestPipeline(staging, history, sink)

	result, err := pipe.Run(context.Background())
	if err != nil {
		t.Fatalf("a validation failure is a controlled outcome, got error: %v", err)
	}

	if result.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if history.calls != 0 {
		t.Fatalf("loader must never be invoked when any row is rejected")
	}
	if len(sink.writes) != 1 || len(sink.writes[0]) != 1 {
		t.Fatalf("expected exactly the rejected row in quarantine, got %+v", sink.writes)
	}
	reject := sink.writes[0][0]
	if reject.Record.IDCliente != 2 {
		t.Fatalf("wrong row quarantined: %+v", reject.Record)
	}
	if !strings.Contains(reject.Reasons[0], "valor_ultima_compra") {
		t.Fatalf("expected reason naming valor_ultima_compra, got %v", reject.Reasons)
	}

	last := store.last()
	if last.Stage != domain.StageValidacao || last.Status != domain.StatusFailed {
		t.Fatalf("expected terminal VALIDACAO/FAILED entry, got %s/%s", last.Stage, last.Status)
	}
	if last.Detail["rejeitados"] != 1 {
		t.Fatalf("expected detail to report 1 reject, got %v", last.Detail)
	}
}

func TestRunLoadFailureIsCritical(t *testing.T) {
	staging := &stubStaging{rows: []domain.StagedCustomer{validStagedRow("1", "um@example.com")}}
	history := &stubHistory{err: errors.New("duplicate email in historico_clientes")}
	sink := &stubSink{}
	pipe, store := newTestPipeline(staging, history, sink)

	result, err := pipe.Run(context.Background())
	if err == nil {
		t.Fatalf("expected the load failure to propagate")
	}
	if result.Status != domain.StatusCriticalFailure {
		t.Fatalf("expected CRITICAL_FAILURE, got %s", result.Status)
	}

	last := store.last()
	if last.Stage != domain.StageErroCritico || last.Status != domain.StatusCriticalFailure {
		t.Fatalf("expected terminal ERRO_CRITICO entry, got %s/%s", last.Stage, last.Status)
	}
	detail, ok := last.Detail["erro"].(string)
	if !ok || !strings.Contains(detail, "duplicate email") {
		t.Fatalf("expected the underlying error in detail, got %v", last.Detail)
	}
}

func TestRunEmptyStagingShortCircuits(t *testing.T) {
	staging := &stubStaging{}
	history := &stubHistory{}
	sink := &stubSink{}
	pipe, store := newTestPipeline(staging, history, sink)

	result, err := pipe.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != domain.StatusSuccess {
		t.Fatalf("an empty staging table is a successful no-op, got %s", result.Status)
	}
	if history.calls != 0 || len(sink.writes) != 0 {
		t.Fatalf("no downstream stage may run on an empty batch")
	}

	last := store.last()
	if last.Stage != domain.StageExtracao || last.Status != domain.StatusSuccess {
		t.Fatalf("expected run to end at EXTRACAO/SUCCESS, got %s/%s", last.Stage, last.Status)
	}
}

func TestRunExtractionFailureIsCritical(t *testing.T) {
	staging := &stubStaging{err: errors.New("connection refused")}
	pipe, store := newTestPipeline(staging, &stubHistory{}, &stubSink{})

	result, err := pipe.Run(context.Background())
	if err == nil {
		t.Fatalf("expected extraction error to propagate")
	}
	if result.Status != domain.StatusCriticalFailure {
		t.Fatalf("expected CRITICAL_FAILURE, got %s", result.Status)
	}
	if store.last().Stage != domain.StageErroCritico {
		t.Fatalf("expected a terminal audit entry even on abort, got %s", store.last().Stage)
	}
}

func TestRunQuarantineWriteFailureIsCritical(t *testing.T) {
	rows := []domain.StagedCustomer{validStagedRow("1", "um@example.com")}
	rows[0].Status = strPtr("INVALIDO")

	staging := &stubStaging{rows: rows}
	sink := &stubSink{err: errors.New("disk full")}
	pipe, store := newTestPipeline(staging, &stubHistory{}, sink)

	result, err := pipe.Run(context.Background())
	if err == nil {
		t.Fatalf("expected quarantine write failure to propagate")
	}
	if result.Status != domain.StatusCriticalFailure {
		t.Fatalf("expected CRITICAL_FAILURE, got %s", result.Status)
	}
	if store.last().Stage != domain.StageErroCritico {
		t.Fatalf("expected terminal ERRO_CRITICO entry, got %s", store.last().Stage)
	}
}
