package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Service provides read-only lookups over stored salary cells.
// It validates and cleans inputs, applies natural ordering and turns empty
// results into ErrNotFound.
type Service struct {
	reader Reader
}

// NewService creates a new Service over the given reader.
func NewService(reader Reader) *Service {
	return &Service{reader: reader}
}

// Tables returns all stored table names in ascending order.
func (s *Service) Tables(ctx context.Context) ([]string, error) {
	names, err := s.reader.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// Groups returns the distinct Entgeltgruppen of a table in natural order.
func (s *Service) Groups(ctx context.Context, table string) ([]string, error) {
	table, err := requireTable(table)
	if err != nil {
		return nil, err
	}

	grades, err := s.reader.Grades(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("list groups of %q: %w", table, err)
	}
	if len(grades) == 0 {
		return nil, notFoundf("no groups found for table %q", table)
	}
	SortGrades(grades)
	return grades, nil
}

// Steps returns the distinct Stufen of a grade in ascending order.
func (s *Service) Steps(ctx context.Context, table, group string) ([]int, error) {
	table, err := requireTable(table)
	if err != nil {
		return nil, err
	}
	grade, err := requireGroup(group)
	if err != nil {
		return nil, err
	}

	steps, err := s.reader.Steps(ctx, table, grade)
	if err != nil {
		return nil, fmt.Errorf("list steps of %q/%q: %w", table, grade, err)
	}
	if len(steps) == 0 {
		return nil, notFoundf("no steps found for table %q, group %q", table, grade)
	}
	slices.Sort(steps)
	return steps, nil
}

// Cells returns the cells of a table, optionally narrowed to a grade and/or
// step, ordered by natural grade order then step.
func (s *Service) Cells(ctx context.Context, q CellQuery) ([]SalaryCell, error) {
	table, err := requireTable(q.TableName)
	if err != nil {
		return nil, err
	}
	q.TableName = table
	if q.Grade != nil {
		grade, err := requireGroup(*q.Grade)
		if err != nil {
			return nil, err
		}
		q.Grade = &grade
	}
	if q.Step != nil && *q.Step < 1 {
		return nil, InvalidParam("step", fmt.Sprint(*q.Step), "step must be at least 1")
	}

	cells, err := s.reader.Cells(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list cells of %q: %w", table, err)
	}
	if len(cells) == 0 {
		return nil, notFoundf("no data for table %q", table)
	}
	SortCells(cells)
	return cells, nil
}

// Lookup returns exactly one cell, or an error wrapping ErrNotFound.
func (s *Service) Lookup(ctx context.Context, table, group string, step int) (SalaryCell, error) {
	table, err := requireTable(table)
	if err != nil {
		return SalaryCell{}, err
	}
	grade, err := requireGroup(group)
	if err != nil {
		return SalaryCell{}, err
	}
	if step < 1 {
		return SalaryCell{}, InvalidParam("step", fmt.Sprint(step), "step must be at least 1")
	}

	cell, err := s.reader.Cell(ctx, table, grade, step)
	if err != nil {
		return SalaryCell{}, fmt.Errorf("lookup %q/%q/%d: %w", table, grade, step, err)
	}
	return cell, nil
}

// Grid returns the pivoted grade x step matrix of a table.
func (s *Service) Grid(ctx context.Context, table string) (Grid, error) {
	cells, err := s.Cells(ctx, CellQuery{TableName: table})
	if err != nil {
		return Grid{}, err
	}
	return BuildGrid(cells[0].TableName, cells), nil
}

// Imports returns recorded import batches, newest first.
func (s *Service) Imports(ctx context.Context) ([]ImportBatch, error) {
	batches, err := s.reader.Imports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	slices.SortStableFunc(batches, func(a, b ImportBatch) int {
		return b.ImportedAt.Compare(a.ImportedAt)
	})
	return batches, nil
}

func requireTable(table string) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", InvalidParam("table", "", "table is required")
	}
	return table, nil
}

func requireGroup(group string) (string, error) {
	grade := CleanGrade(group)
	if grade == "" {
		return "", InvalidParam("group", "", "group is required")
	}
	return grade, nil
}
