// Package pipeline orchestrates one batch run: extract the staged batch,
// clean it, validate it against the record schema, then either quarantine
// the rejects and stop, or commit the accepted batch to the historical
// store. Every stage transition is reported to the run logger, so the audit
// trail is replayable even when the run aborts mid-way.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/brdata/dqflow/internal/domain"
	"github.com/brdata/dqflow/internal/quarantine"
	"github.com/brdata/dqflow/internal/repository"
	"github.com/brdata/dqflow/internal/runlog"
	"github.com/brdata/dqflow/internal/schema"
	"github.com/brdata/dqflow/internal/transform"
	"github.com/brdata/dqflow/internal/validation"
)

const reasonSampleSize = 3

// Result summarizes one completed run.
type Result struct {
	RunID     uuid.UUID
	Status    domain.Status
	Extracted int
	Dropped   int
	Accepted  int
	Rejected  int
	Loaded    int64
}

// Pipeline wires the stages of the customer data-quality flow together.
type Pipeline struct {
	name      string
	staging   repository.StagingRepository
	history   repository.HistoryRepository
	sink      quarantine.Sink
	logger    *runlog.Logger
	validator *validation.Validator
}

// New assembles a pipeline over the given collaborators, validating against
// the customer schema.
func New(
	name string,
	staging repository.StagingRepository,
	history repository.HistoryRepository,
	sink quarantine.Sink,
	logger *runlog.Logger,
) *Pipeline {
	return &Pipeline{
		name:      name,
		staging:   staging,
		history:   history,
		sink:      sink,
		logger:    logger,
		validator: validation.New(schema.Clientes()),
	}
}

// Run executes one end-to-end pipeline invocation. A batch with validation
// rejects is a controlled FAILED outcome, not an error; only unexpected
// failures (extraction, quarantine write, load) return a non-nil error, and
// those are audited as CRITICAL_FAILURE before returning.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	run := domain.NewRun(p.name)
	result := Result{RunID: run.ID}

	p.logger.Log(ctx, domain.StageInicio, domain.StatusStarted,
		"Iniciando pipeline", map[string]any{"run_id": run.ID.String()})

	// EXTRACT
	p.logger.Log(ctx, domain.StageExtracao, domain.StatusRunning,
		"Extraindo registros da tabela stage_clientes", nil)
	staged, err := p.staging.ListAll(ctx)
	if err != nil {
		return p.fail(ctx, result, fmt.Errorf("extraction failed: %w", err))
	}
	result.Extracted = len(staged)

	if len(staged) == 0 {
		result.Status = domain.StatusSuccess
		p.logger.Log(ctx, domain.StageExtracao, domain.StatusSuccess,
			"Tabela de stage vazia. Nenhum dado a processar.", nil)
		return result, nil
	}
	p.logger.Log(ctx, domain.StageExtracao, domain.StatusSuccess,
		fmt.Sprintf("%d registros extraídos.", len(staged)),
		map[string]any{"extraidos": len(staged)})

	// TRANSFORM
	p.logger.Log(ctx, domain.StageTransformacao, domain.StatusRunning,
		"Limpando registros extraídos", nil)
	clean := transform.Clean(staged)
	result.Dropped = len(staged) - len(clean)
	p.logger.Log(ctx, domain.StageTransformacao, domain.StatusSuccess,
		fmt.Sprintf("%d registros limpos, %d descartados.", len(clean), result.Dropped),
		map[string]any{"limpos": len(clean), "descartados": result.Dropped})

	// VALIDATE
	p.logger.Log(ctx, domain.StageValidacao, domain.StatusRunning,
		"Validando registros contra o schema de clientes", nil)
	outcome, err := p.validator.Validate(clean)
	if err != nil {
		return p.fail(ctx, result, fmt.Errorf("validation failed structurally: %w", err))
	}
	result.Accepted = len(outcome.Accepted)
	result.Rejected = len(outcome.Rejected)

	if result.Rejected > 0 {
		// QUARANTINE_AND_STOP: the whole batch fails for loading purposes.
		if err := p.sink.Write(run, outcome.Rejected); err != nil {
			return p.fail(ctx, result, fmt.Errorf("quarantine write failed: %w", err))
		}
		result.Status = domain.StatusFailed
		p.logger.Log(ctx, domain.StageValidacao, domain.StatusFailed,
			fmt.Sprintf("Validação falhou. %d registros inválidos salvos na quarentena.", result.Rejected),
			map[string]any{
				"rejeitados":      result.Rejected,
				"aceitos":         result.Accepted,
				"amostra_motivos": sampleReasons(outcome.Rejected),
			})
		return result, nil
	}
	p.logger.Log(ctx, domain.StageValidacao, domain.StatusSuccess,
		"Validação concluída com sucesso.",
		map[string]any{"aceitos": result.Accepted})

	// LOAD
	p.logger.Log(ctx, domain.StageCarga, domain.StatusRunning,
		"Carregando registros na tabela historico_clientes", nil)
	loaded, err := p.history.BulkInsert(ctx, outcome.Accepted)
	if err != nil {
		return p.fail(ctx, result, fmt.Errorf("load failed: %w", err))
	}
	result.Loaded = loaded
	result.Status = domain.StatusSuccess
	p.logger.Log(ctx, domain.StageCarga, domain.StatusSuccess,
		fmt.Sprintf("%d registros carregados com sucesso.", loaded),
		map[string]any{
			"carregados":  loaded,
			"aceitos":     result.Accepted,
			"descartados": result.Dropped,
		})
	return result, nil
}

// fail audits a terminal critical failure before surfacing the error. The
// audit write itself is best effort inside the logger.
func (p *Pipeline) fail(ctx context.Context, result Result, err error) (Result, error) {
	result.Status = domain.StatusCriticalFailure
	p.logger.Log(ctx, domain.StageErroCritico, domain.StatusCriticalFailure,
		"Erro crítico no pipeline.", map[string]any{"erro": err.Error()})
	return result, err
}

func sampleReasons(rejects []validation.Reject) []string {
	sample := make([]string, 0, reasonSampleSize)
	for _, reject := range rejects {
		if len(sample) == reasonSampleSize {
			break
		}
		sample = append(sample, fmt.Sprintf("id_cliente=%d: %s",
			reject.Record.IDCliente, reject.Reasons[0]))
	}
	return sample
}
