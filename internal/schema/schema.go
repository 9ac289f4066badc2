// Package schema declares the record schema the pipeline validates against.
// A Schema is the single source of truth for what a valid customer row is:
// per field it names the logical type, whether the field is required, and
// zero or more predicate checks that run after type coercion.
package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldType is the logical type a field is coerced to before checks run.
type FieldType string

const (
	FieldTypeInteger FieldType = "integer"
	FieldTypeString  FieldType = "string"
	FieldTypeDate    FieldType = "date"
	FieldTypeDecimal FieldType = "decimal"
	FieldTypeEnum    FieldType = "enum"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// Check is a single named predicate evaluated against a coerced field value.
type Check struct {
	Name     string
	Validate func(value any) error
}

// FieldConstraint describes one field of the record schema.
type FieldConstraint struct {
	Name     string
	Type     FieldType
	Required bool
	Checks   []Check
}

// Schema is an ordered set of field constraints.
type Schema struct {
	fields []FieldConstraint
}

// New builds a schema from the given field constraints.
func New(fields ...FieldConstraint) Schema {
	return Schema{fields: fields}
}

// Describe returns the field constraints in declaration order.
func (s Schema) Describe() []FieldConstraint {
	out := make([]FieldConstraint, len(s.fields))
	copy(out, s.fields)
	return out
}

// Empty reports whether the schema declares no fields at all.
func (s Schema) Empty() bool {
	return len(s.fields) == 0
}

// Coerce converts a raw value to the field's declared type. A failed
// coercion is a validation failure attributed to the field, never a crash.
func Coerce(fieldType FieldType, value any) (any, error) {
	switch fieldType {
	case FieldTypeInteger:
		return coerceInteger(value)
	case FieldTypeString, FieldTypeEnum:
		return coerceString(value)
	case FieldTypeDate:
		return coerceDate(value)
	case FieldTypeDecimal:
		return coerceDecimal(value)
	default:
		return nil, fmt.Errorf("unknown field type %q", fieldType)
	}
}

func coerceInteger(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if math.Mod(v, 1) != 0 {
			return 0, fmt.Errorf("unable to coerce %v to integer", v)
		}
		return int64(v), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unable to coerce %q to integer", v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unable to coerce %T to integer", value)
	}
}

func coerceString(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("unable to coerce %T to string", value)
}

func coerceDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return ParseDate(v)
	default:
		return time.Time{}, fmt.Errorf("unable to coerce %T to date", value)
	}
}

func coerceDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("unable to coerce %q to decimal", v)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unable to coerce %T to decimal", value)
	}
}

// ParseDate parses a date string against the accepted layouts, including the
// dd/mm/yyyy form the staging extracts arrive in.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", raw)
}

// GreaterThan requires an integer value strictly above limit.
func GreaterThan(limit int64) Check {
	return Check{
		Name: fmt.Sprintf("greater_than_%d", limit),
		Validate: func(value any) error {
			v, ok := value.(int64)
			if !ok {
				return fmt.Errorf("expected integer, got %T", value)
			}
			if v <= limit {
				return fmt.Errorf("must be greater than %d, got %d", limit, v)
			}
			return nil
		},
	}
}

// NonEmpty requires a string with at least one non-blank character.
func NonEmpty() Check {
	return Check{
		Name: "non_empty",
		Validate: func(value any) error {
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", value)
			}
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("must not be empty")
			}
			return nil
		},
	}
}

// Contains requires the substring to appear in the string value.
func Contains(sub string) Check {
	return Check{
		Name: fmt.Sprintf("contains_%s", sub),
		Validate: func(value any) error {
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", value)
			}
			if !strings.Contains(v, sub) {
				return fmt.Errorf("must contain %q", sub)
			}
			return nil
		},
	}
}

// NonNegative requires a decimal value greater than or equal to zero.
func NonNegative() Check {
	return Check{
		Name: "non_negative",
		Validate: func(value any) error {
			v, ok := value.(decimal.Decimal)
			if !ok {
				return fmt.Errorf("expected decimal, got %T", value)
			}
			if v.IsNegative() {
				return fmt.Errorf("must be greater than or equal to 0, got %s", v)
			}
			return nil
		},
	}
}

// OneOf requires the string value to be one of the allowed members.
func OneOf(allowed ...string) Check {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return Check{
		Name: "one_of",
		Validate: func(value any) error {
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", value)
			}
			if _, found := set[v]; !found {
				return fmt.Errorf("must be one of %s, got %q", strings.Join(allowed, ", "), v)
			}
			return nil
		},
	}
}
