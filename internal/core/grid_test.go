package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ptr(f float64) *float64 { return &f }

func TestBuildGrid(t *testing.T) {
	cells := []SalaryCell{
		cell("TV-L", "E 10", 1, 4000),
		cell("TV-L", "E 2", 2, 2600),
		cell("TV-L", "E 2", 1, 2500),
		cell("TV-L", "E 9a", 3, 3700),
	}

	got := BuildGrid("TV-L", cells)

	want := Grid{
		TableName: "TV-L",
		Steps:     []int{1, 2, 3},
		Rows: []GridRow{
			{Grade: "E 2", Amounts: []*float64{ptr(2500), ptr(2600), nil}},
			{Grade: "E 9a", Amounts: []*float64{nil, nil, ptr(3700)}},
			{Grade: "E 10", Amounts: []*float64{ptr(4000), nil, nil}},
		},
		Min: 2500,
		Max: 4000,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildGrid mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildGridEmpty(t *testing.T) {
	got := BuildGrid("TV-L", nil)
	if diff := cmp.Diff(Grid{TableName: "TV-L"}, got); diff != "" {
		t.Errorf("BuildGrid mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildGridDuplicateLastWins(t *testing.T) {
	got := BuildGrid("TV-L", []SalaryCell{
		cell("TV-L", "E 1", 1, 2000),
		cell("TV-L", "E 1", 1, 2100),
	})
	if n := len(got.Rows); n != 1 {
		t.Fatalf("got %d rows, want 1", n)
	}
	if a := got.Rows[0].Amounts[0]; a == nil || *a != 2100 {
		t.Errorf("amount = %v, want 2100", a)
	}
}

func TestGridIntensity(t *testing.T) {
	g := Grid{Min: 2000, Max: 4000}
	tests := []struct {
		amount float64
		want   float64
	}{
		{2000, 0},
		{3000, 0.5},
		{4000, 1},
		{1000, 0},
		{5000, 1},
	}
	for _, tt := range tests {
		if got := g.Intensity(tt.amount); got != tt.want {
			t.Errorf("Intensity(%v) = %v, want %v", tt.amount, got, tt.want)
		}
	}

	flat := Grid{Min: 3000, Max: 3000}
	if got := flat.Intensity(3000); got != 0 {
		t.Errorf("flat Intensity = %v, want 0", got)
	}
}
