package dataprocessing

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "papertrack/internal/errors"
	"papertrack/pkg/contracts/domain"
)

// ColumnKind controls how a cell is converted
type ColumnKind string

const (
	KindSerial ColumnKind = "serial"
	KindText   ColumnKind = "text"
	KindAmount ColumnKind = "amount"
)

// Work sheet fields
const (
	FieldSerial      = "serial"
	FieldTitle       = "title"
	FieldTotalAmount = "total_amount"
	FieldTotalPaid   = "total_paid"
	FieldBalance     = "balance"
	FieldStatusRaw   = "status_raw"
)

// FieldAuthorName returns the name field of author slot i (1-based)
func FieldAuthorName(i int) string { return fmt.Sprintf("author_%d_name", i) }

// FieldAuthorAmount returns the amount field of author slot i (1-based)
func FieldAuthorAmount(i int) string { return fmt.Sprintf("author_%d_amount", i) }

// FieldAuthorEmail returns the email field of author slot i (1-based)
func FieldAuthorEmail(i int) string { return fmt.Sprintf("author_%d_email", i) }

// FieldPayment returns the installment field i (1-based)
func FieldPayment(i int) string { return fmt.Sprintf("payment_%d", i) }

// Column binds a field to a 0-based column index
type Column struct {
	Field string     `yaml:"field" validate:"required"`
	Index int        `yaml:"index" validate:"gte=0,lte=16383"`
	Kind  ColumnKind `yaml:"kind" validate:"required,oneof=serial text amount"`
}

// Schema is the positional layout of a work sheet
type Schema struct {
	HeaderRows int      `yaml:"header_rows" validate:"gte=0"`
	Columns    []Column `yaml:"columns" validate:"required,min=1,dive"`
}

// DefaultPaperSchema is the layout of the tracker's work sheets
func DefaultPaperSchema() Schema {
	cols := []Column{
		{Field: FieldSerial, Index: 1, Kind: KindSerial},
		{Field: FieldTitle, Index: 2, Kind: KindText},
	}
	for i := 1; i <= domain.MaxAuthors; i++ {
		base := 3 + (i-1)*3
		cols = append(cols,
			Column{Field: FieldAuthorName(i), Index: base, Kind: KindText},
			Column{Field: FieldAuthorAmount(i), Index: base + 1, Kind: KindAmount},
			Column{Field: FieldAuthorEmail(i), Index: base + 2, Kind: KindText},
		)
	}
	cols = append(cols, Column{Field: FieldTotalAmount, Index: 18, Kind: KindAmount})
	for i := 1; i <= domain.PaymentStages; i++ {
		cols = append(cols, Column{Field: FieldPayment(i), Index: 18 + i, Kind: KindAmount})
	}
	cols = append(cols,
		Column{Field: FieldTotalPaid, Index: 24, Kind: KindAmount},
		Column{Field: FieldBalance, Index: 25, Kind: KindAmount},
		Column{Field: FieldStatusRaw, Index: 26, Kind: KindText},
	)

	return Schema{HeaderRows: 3, Columns: cols}
}

// expectedKinds pins the conversion of every field the parser reads
var expectedKinds = func() map[string]ColumnKind {
	kinds := make(map[string]ColumnKind)
	for _, c := range DefaultPaperSchema().Columns {
		kinds[c.Field] = c.Kind
	}
	return kinds
}()

var schemaValidator = validator.New()

// Validate checks the schema once before any sheet is parsed
func (s Schema) Validate() error {
	if err := schemaValidator.Struct(s); err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeSchema, "invalid column schema", err)
	}

	var problems []string
	fields := make(map[string]bool, len(s.Columns))
	indices := make(map[int]string, len(s.Columns))
	for _, c := range s.Columns {
		if fields[c.Field] {
			problems = append(problems, fmt.Sprintf("duplicate field %q", c.Field))
		}
		fields[c.Field] = true

		if other, ok := indices[c.Index]; ok {
			problems = append(problems, fmt.Sprintf("column %d bound to both %q and %q", c.Index, other, c.Field))
		}
		indices[c.Index] = c.Field

		want, known := expectedKinds[c.Field]
		if !known {
			problems = append(problems, fmt.Sprintf("unknown field %q", c.Field))
		} else if want != c.Kind {
			problems = append(problems, fmt.Sprintf("field %q must be %s, not %s", c.Field, want, c.Kind))
		}
	}
	if !fields[FieldSerial] {
		problems = append(problems, "serial column is required")
	}

	if len(problems) > 0 {
		return apperrors.NewSchemaError(strings.Join(problems, "; "))
	}
	return nil
}

// LoadSchemaFile reads a column layout from YAML and validates it. An empty
// path returns DefaultPaperSchema.
func LoadSchemaFile(path string) (Schema, error) {
	if path == "" {
		return DefaultPaperSchema(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, apperrors.NewAppError(apperrors.ErrTypeSchema, fmt.Sprintf("failed to read schema file %s", path), err)
	}

	var s Schema
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return Schema{}, apperrors.NewAppError(apperrors.ErrTypeSchema, fmt.Sprintf("failed to parse schema file %s", path), err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}
