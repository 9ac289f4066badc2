package domain

import "time"

// Stage identifies where in the pipeline an audit entry was produced.
type Stage string

const (
	StageInicio        Stage = "INICIO"
	StageExtracao      Stage = "EXTRACAO"
	StageTransformacao Stage = "TRANSFORMACAO"
	StageValidacao     Stage = "VALIDACAO"
	StageCarga         Stage = "CARGA"
	StageErroCritico   Stage = "ERRO_CRITICO"
)

// Status describes the outcome reported by an audit entry.
type Status string

const (
	StatusStarted         Status = "STARTED"
	StatusRunning         Status = "RUNNING"
	StatusSuccess         Status = "SUCCESS"
	StatusFailed          Status = "FAILED"
	StatusCriticalFailure Status = "CRITICAL_FAILURE"
)

// RunLogEntry is one structured audit fact about a pipeline run. Entries are
// immutable once written and never deleted by the pipeline.
type RunLogEntry struct {
	ID           int64          `json:"id"`
	PipelineName string         `json:"pipeline_name"`
	Stage        Stage          `json:"etapa"`
	Status       Status         `json:"status"`
	Message      string         `json:"mensagem"`
	Detail       map[string]any `json:"detalhes,omitempty"`
	CreatedAt    time.Time      `json:"timestamp"`
}
