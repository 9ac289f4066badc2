package schema

// Customer status values accepted by the historical store.
const (
	StatusAtivo     = "ATIVO"
	StatusInativo   = "INATIVO"
	StatusPendente  = "PENDENTE"
	StatusBloqueado = "BLOQUEADO"
)

// Clientes returns the schema for the customer pipeline: the declared
// contract every row must satisfy before reaching historico_clientes.
func Clientes() Schema {
	return New(
		FieldConstraint{
			Name:     "id_cliente",
			Type:     FieldTypeInteger,
			Required: true,
			Checks:   []Check{GreaterThan(0)},
		},
		FieldConstraint{
			Name:     "nome",
			Type:     FieldTypeString,
			Required: true,
			Checks:   []Check{NonEmpty()},
		},
		FieldConstraint{
			Name:     "email",
			Type:     FieldTypeString,
			Required: true,
			Checks:   []Check{Contains("@")},
		},
		FieldConstraint{
			Name:     "data_cadastro",
			Type:     FieldTypeDate,
			Required: true,
		},
		FieldConstraint{
			Name:     "valor_ultima_compra",
			Type:     FieldTypeDecimal,
			Required: true,
			Checks:   []Check{NonNegative()},
		},
		FieldConstraint{
			Name:     "status",
			Type:     FieldTypeEnum,
			Required: true,
			Checks:   []Check{OneOf(StatusAtivo, StatusInativo, StatusPendente, StatusBloqueado)},
		},
	)
}
