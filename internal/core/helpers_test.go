package core

import (
	"context"
	"errors"
	"sync"
)

// ----------------------------------------------------------------------------
// Test doubles shared by the service and importer tests
// ----------------------------------------------------------------------------

// fakeReader serves a fixed set of cells and records the arguments it saw.
type fakeReader struct {
	cells   []SalaryCell
	imports []ImportBatch
	err     error

	lastTable string
	lastGrade string
	lastQuery CellQuery
}

func (f *fakeReader) TableNames(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	seen := make(map[string]bool)
	var names []string
	for _, c := range f.cells {
		if !seen[c.TableName] {
			seen[c.TableName] = true
			names = append(names, c.TableName)
		}
	}
	return names, nil
}

func (f *fakeReader) Grades(ctx context.Context, table string) ([]string, error) {
	f.lastTable = table
	if f.err != nil {
		return nil, f.err
	}
	seen := make(map[string]bool)
	var grades []string
	for _, c := range f.cells {
		if c.TableName == table && !seen[c.Grade] {
			seen[c.Grade] = true
			grades = append(grades, c.Grade)
		}
	}
	return grades, nil
}

func (f *fakeReader) Steps(ctx context.Context, table, grade string) ([]int, error) {
	f.lastTable, f.lastGrade = table, grade
	if f.err != nil {
		return nil, f.err
	}
	var steps []int
	for _, c := range f.cells {
		if c.TableName == table && c.Grade == grade {
			steps = append(steps, c.Step)
		}
	}
	return steps, nil
}

func (f *fakeReader) Cells(ctx context.Context, q CellQuery) ([]SalaryCell, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	var out []SalaryCell
	for _, c := range f.cells {
		if c.TableName != q.TableName {
			continue
		}
		if q.Grade != nil && c.Grade != *q.Grade {
			continue
		}
		if q.Step != nil && c.Step != *q.Step {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeReader) Cell(ctx context.Context, table, grade string, step int) (SalaryCell, error) {
	f.lastTable, f.lastGrade = table, grade
	if f.err != nil {
		return SalaryCell{}, f.err
	}
	for _, c := range f.cells {
		if c.TableName == table && c.Grade == grade && c.Step == step {
			return c, nil
		}
	}
	return SalaryCell{}, ErrNotFound
}

func (f *fakeReader) Imports(ctx context.Context) ([]ImportBatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]ImportBatch(nil), f.imports...), nil
}

// fakeLoader records every ReplaceTable call.
type fakeLoader struct {
	mu      sync.Mutex
	batches []ImportBatch
	cells   map[string][]SalaryCell
	err     error
}

func (f *fakeLoader) ReplaceTable(ctx context.Context, batch ImportBatch, cells []SalaryCell) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.cells == nil {
		f.cells = make(map[string][]SalaryCell)
	}
	f.batches = append(f.batches, batch)
	f.cells[batch.TableName] = cells
	return nil
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) error {
	f.calls++
	return f.err
}

var errBoom = errors.New("boom")

func cell(table, grade string, step int, salary float64) SalaryCell {
	return SalaryCell{
		TableName: table,
		Grade:     grade,
		Step:      step,
		Salary:    salary,
		ValidFrom: DefaultValidFrom,
		Region:    DefaultRegion,
	}
}

// withProfiles replaces the registry for the duration of a test.
func withProfiles(t interface {
	Helper()
	Cleanup(func())
}, profiles ...TableProfile) {
	t.Helper()
	Clear()
	for _, p := range profiles {
		Register(p)
	}
	t.Cleanup(Clear)
}
