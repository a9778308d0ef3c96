package core

// validation.go provides validation for import input and normalized records.
//
// Validation happens at two levels:
//  1. Header validation: the grade column must be present
//  2. Record validation: every SalaryCell is checked against its struct tags
//     (required fields, step >= 1, salary > 0, ISO validity date)
//
// Query parameter problems use the same ValidationError type so the web
// layer can map all of them to 400 responses.

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationKind classifies a ValidationError for user-facing messages.
type ValidationKind int

const (
	KindInvalidField ValidationKind = iota
	KindMissingColumn
	KindNonPositive
	KindMalformedFile
	KindInvalidParam
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Kind    ValidationKind
	Field   string // Field/column name
	Value   string // The invalid value
	Line    int    // Source line (1-based), 0 if not applicable
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (%q)", e.Value)
	}
	return b.String()
}

// InvalidParam builds a ValidationError for a bad request parameter.
func InvalidParam(field, value, message string) *ValidationError {
	return &ValidationError{Kind: KindInvalidParam, Field: field, Value: value, Message: message}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// recordValidator returns the shared validator, using json tag names in errors.
func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateCell checks a record against its field ranges.
// A non-positive salary is reported as KindNonPositive.
func ValidateCell(cell SalaryCell) error {
	err := recordValidator().Struct(cell)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate cell: %w", err)
	}

	fe := verrs[0]
	ve := &ValidationError{
		Kind:  KindInvalidField,
		Field: fe.Field(),
		Value: fmt.Sprint(fe.Value()),
	}
	switch fe.Tag() {
	case "required":
		ve.Message = "required field is empty"
		ve.Value = ""
	case "gt":
		ve.Kind = KindNonPositive
		ve.Message = "salary must be positive"
	case "min":
		ve.Message = "must be at least " + fe.Param()
	case "datetime":
		ve.Message = "invalid date format (use YYYY-MM-DD)"
	default:
		ve.Message = "invalid value"
	}
	return ve
}

// ValidateHeaders locates the grade column and the step columns in a CSV header.
// Header cells must already be cleaned. Step columns are those whose name is
// a decimal integer of at least 1; any other column is ignored.
func ValidateHeaders(headers []string, gradeColumn string) (gradeIdx int, steps []StepColumn, err error) {
	gradeIdx = -1
	for i, h := range headers {
		if h == "" {
			continue
		}
		if strings.EqualFold(h, gradeColumn) {
			if gradeIdx == -1 {
				gradeIdx = i
			}
			continue
		}
		if n, ok := ParseStep(h); ok {
			steps = append(steps, StepColumn{Index: i, Step: n})
		}
	}

	if gradeIdx == -1 {
		return -1, nil, &ValidationError{
			Kind:    KindMissingColumn,
			Field:   gradeColumn,
			Line:    1,
			Message: "missing required column",
		}
	}
	return gradeIdx, steps, nil
}

// StepColumn maps a CSV column position to its Stufe.
type StepColumn struct {
	Index int
	Step  int
}
