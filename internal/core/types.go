// Package core provides the business logic for salary table imports and lookups.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"time"
)

// DateLayout is the format of SalaryCell.ValidFrom.
const DateLayout = "2006-01-02"

// Import defaults used when neither options nor a table profile set a value.
const (
	DefaultGradeColumn = "Entgeltgruppe"
	DefaultDelimiter   = ';'
	DefaultRegion      = "ALL"
	DefaultValidFrom   = "2025-02-01"
	DefaultEncoding    = "utf-8"
)

// SalaryCell is one salary figure of a pay scale table.
// The natural key is (TableName, Grade, Step).
type SalaryCell struct {
	TableName string  `json:"table_name" validate:"required"`
	Grade     string  `json:"Entgeltgruppe" validate:"required"`
	Step      int     `json:"Stufe" validate:"min=1"`
	Salary    float64 `json:"Salary" validate:"gt=0"`
	ValidFrom string  `json:"valid_from" validate:"required,datetime=2006-01-02"`
	Region    string  `json:"region" validate:"required"`
}

// CellQuery selects cells of a single table. Grade and Step are optional filters.
type CellQuery struct {
	TableName string
	Grade     *string
	Step      *int
}

// ImportBatch records one successful import of a pay scale table.
type ImportBatch struct {
	ID         string    `json:"id"`
	TableName  string    `json:"table_name"`
	Source     string    `json:"source"`
	Region     string    `json:"region"`
	ValidFrom  string    `json:"valid_from"`
	RowCount   int       `json:"row_count"`
	ImportedAt time.Time `json:"imported_at"`
}

// Reader is the read-only query surface over stored salary cells.
// Implementations return ErrNotFound from Cell when no row matches and
// ErrStorageUnavailable when the backing table is missing.
type Reader interface {
	TableNames(ctx context.Context) ([]string, error)
	Grades(ctx context.Context, table string) ([]string, error)
	Steps(ctx context.Context, table, grade string) ([]int, error)
	Cells(ctx context.Context, q CellQuery) ([]SalaryCell, error)
	Cell(ctx context.Context, table, grade string, step int) (SalaryCell, error)
	Imports(ctx context.Context) ([]ImportBatch, error)
}

// Loader persists normalized cells.
// ReplaceTable removes every stored row of batch.TableName and inserts cells
// in a single transaction, then records the batch.
type Loader interface {
	ReplaceTable(ctx context.Context, batch ImportBatch, cells []SalaryCell) error
}

// Store is a Reader and Loader backed by a database handle.
type Store interface {
	Reader
	Loader
	Close() error
}

// Invalidator drops cached lookup results after a re-import.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}
