package core

import (
	"slices"
	"strconv"
)

// Grid is a pay scale pivoted into grade rows and step columns.
// Min and Max span every present amount and drive heatmap color scaling.
type Grid struct {
	TableName string    `json:"table_name"`
	Steps     []int     `json:"steps"`
	Rows      []GridRow `json:"rows"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
}

// GridRow holds one grade's amounts, aligned with Grid.Steps.
// A nil entry means the grade has no salary at that step.
type GridRow struct {
	Grade   string     `json:"Entgeltgruppe"`
	Amounts []*float64 `json:"amounts"`
}

// BuildGrid pivots cells of one table. Rows follow natural grade order and
// steps ascend. When a (grade, step) pair occurs more than once the last
// cell wins.
func BuildGrid(table string, cells []SalaryCell) Grid {
	g := Grid{TableName: table}
	if len(cells) == 0 {
		return g
	}

	var grades []string
	seenGrade := make(map[string]bool)
	seenStep := make(map[int]bool)
	for _, c := range cells {
		if !seenGrade[c.Grade] {
			seenGrade[c.Grade] = true
			grades = append(grades, c.Grade)
		}
		if !seenStep[c.Step] {
			seenStep[c.Step] = true
			g.Steps = append(g.Steps, c.Step)
		}
	}
	SortGrades(grades)
	slices.Sort(g.Steps)

	stepPos := make(map[int]int, len(g.Steps))
	for i, s := range g.Steps {
		stepPos[s] = i
	}
	rowPos := make(map[string]int, len(grades))
	g.Rows = make([]GridRow, len(grades))
	for i, grade := range grades {
		rowPos[grade] = i
		g.Rows[i] = GridRow{Grade: grade, Amounts: make([]*float64, len(g.Steps))}
	}

	first := true
	for _, c := range cells {
		amount := c.Salary
		g.Rows[rowPos[c.Grade]].Amounts[stepPos[c.Step]] = &amount
		if first || amount < g.Min {
			g.Min = amount
		}
		if first || amount > g.Max {
			g.Max = amount
		}
		first = false
	}
	return g
}

// Intensity returns amount's position between Min and Max in [0, 1].
// A grid whose amounts are all equal returns 0.
func (g Grid) Intensity(amount float64) float64 {
	if g.Max <= g.Min {
		return 0
	}
	v := (amount - g.Min) / (g.Max - g.Min)
	return min(max(v, 0), 1)
}

// formatAmount renders a salary without trailing zeros.
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
