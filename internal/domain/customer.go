package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StagedCustomer is one raw row of stage_clientes. Every business column is
// nullable in the staging table, so absent values are modelled as nil
// pointers. Rows are read-only to the pipeline; cleaning produces a new
// CleanCustomer instead of mutating in place.
type StagedCustomer struct {
	ID                int64
	IDCliente         *string
	Nome              *string
	Email             *string
	DataCadastro      *time.Time
	ValorUltimaCompra *decimal.Decimal
	Status            *string
}

// CleanCustomer is a StagedCustomer after transformation. The identifier has
// been reduced to its numeric form and the invalid-email sentinel stripped;
// rows where either ended up absent never become a CleanCustomer. Remaining
// fields keep their staged nullability until validation.
type CleanCustomer struct {
	IDCliente         int64
	Nome              *string
	Email             string
	DataCadastro      *time.Time
	ValorUltimaCompra *decimal.Decimal
	Status            *string
}

// HistoricalCustomer is a fully validated record ready for the historical
// store. DataInsercao is assigned by the store on insert.
type HistoricalCustomer struct {
	ID                int64
	IDCliente         int64
	Nome              string
	Email             string
	DataCadastro      time.Time
	ValorUltimaCompra decimal.Decimal
	Status            string
	DataInsercao      time.Time
}
