// Package validation runs the record schema against a batch of cleaned rows
// and partitions it into accepted and rejected subsets. Every check of every
// field is evaluated for every row, so a rejected row carries the complete
// set of violated constraints rather than just the first one.
package validation

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brdata/dqflow/internal/domain"
	"github.com/brdata/dqflow/internal/schema"
)

// ErrEmptySchema is returned when validation is attempted with a schema that
// declares no fields.
var ErrEmptySchema = errors.New("schema declares no field constraints")

// Reject pairs a cleaned row with every reason it was refused.
type Reject struct {
	Record  domain.CleanCustomer
	Reasons []string
}

// Outcome is the full result of validating one batch. Accepted and Rejected
// always partition the input exhaustively: their sizes sum to the batch size
// and no row appears in both.
type Outcome struct {
	Accepted []domain.HistoricalCustomer
	Rejected []Reject
}

// Validator evaluates batches against a fixed schema.
type Validator struct {
	schema schema.Schema
}

// New returns a validator for the given schema.
func New(s schema.Schema) *Validator {
	return &Validator{schema: s}
}

// Validate evaluates the whole batch atomically and returns the complete
// outcome, or a structural error when the schema itself is unusable. A batch
// with rejects is a normal outcome, not an error.
func (v *Validator) Validate(batch []domain.CleanCustomer) (Outcome, error) {
	if v.schema.Empty() {
		return Outcome{}, ErrEmptySchema
	}

	outcome := Outcome{
		Accepted: []domain.HistoricalCustomer{},
		Rejected: []Reject{},
	}

	fields := v.schema.Describe()
	for _, record := range batch {
		properties := recordProperties(record)
		coerced := make(map[string]any, len(fields))
		var reasons []string

		for _, field := range fields {
			value, present := properties[field.Name]
			if !present {
				if field.Required {
					reasons = append(reasons, fmt.Sprintf("%s: required field missing", field.Name))
				}
				continue
			}

			typed, err := schema.Coerce(field.Type, value)
			if err != nil {
				reasons = append(reasons, fmt.Sprintf("%s: %v", field.Name, err))
				continue
			}
			coerced[field.Name] = typed

			for _, check := range field.Checks {
				if err := check.Validate(typed); err != nil {
					reasons = append(reasons, fmt.Sprintf("%s: %v", field.Name, err))
				}
			}
		}

		if len(reasons) > 0 {
			outcome.Rejected = append(outcome.Rejected, Reject{Record: record, Reasons: reasons})
			continue
		}

		accepted, err := historicalFromProperties(coerced)
		if err != nil {
			return Outcome{}, err
		}
		outcome.Accepted = append(outcome.Accepted, accepted)
	}

	return outcome, nil
}

// recordProperties maps a cleaned row onto the schema's column names,
// omitting absent fields so required-field checks can fire.
func recordProperties(record domain.CleanCustomer) map[string]any {
	properties := map[string]any{
		"id_cliente": record.IDCliente,
		"email":      record.Email,
	}
	if record.Nome != nil {
		properties["nome"] = *record.Nome
	}
	if record.DataCadastro != nil {
		properties["data_cadastro"] = *record.DataCadastro
	}
	if record.ValorUltimaCompra != nil {
		properties["valor_ultima_compra"] = *record.ValorUltimaCompra
	}
	if record.Status != nil {
		properties["status"] = *record.Status
	}
	return properties
}

func historicalFromProperties(coerced map[string]any) (domain.HistoricalCustomer, error) {
	id, ok := coerced["id_cliente"].(int64)
	if !ok {
		return domain.HistoricalCustomer{}, fmt.Errorf("coerced id_cliente has unexpected type %T", coerced["id_cliente"])
	}
	nome, ok := coerced["nome"].(string)
	if !ok {
		return domain.HistoricalCustomer{}, fmt.Errorf("coerced nome has unexpected type %T", coerced["nome"])
	}
	email, ok := coerced["email"].(string)
	if !ok {
		return domain.HistoricalCustomer{}, fmt.Errorf("coerced email has unexpected type %T", coerced["email"])
	}
	data, ok := coerced["data_cadastro"].(time.Time)
	if !ok {
		return domain.HistoricalCustomer{}, fmt.Errorf("coerced data_cadastro has unexpected type %T", coerced["data_cadastro"])
	}
	valor, ok := coerced["valor_ultima_compra"].(decimal.Decimal)
	if !ok {
		return domain.HistoricalCustomer{}, fmt.Errorf("coerced valor_ultima_compra has unexpected type %T", coerced["valor_ultima_compra"])
	}
	status, ok := coerced["status"].(string)
	if !ok {
		return domain.HistoricalCustomer{}, fmt.Errorf("coerced status has unexpected type %T", coerced["status"])
	}

	return domain.HistoricalCustomer{
		IDCliente:         id,
		Nome:              nome,
		Email:             email,
		DataCadastro:      data,
		ValorUltimaCompra: valor,
		Status:            status,
	}, nil
}
