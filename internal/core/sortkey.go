package core

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// GradeSentinel is the numeric part given to labels that are not of the form
// "E <digits><suffix>". It sorts them after every regular grade.
const GradeSentinel = math.MaxInt32

var gradePattern = regexp.MustCompile(`^E\s*(\d+)(\D*)$`)

// GradeKey orders Entgeltgruppe labels: by numeric part, then by suffix.
type GradeKey struct {
	Number int
	Suffix string
}

// Compare returns -1, 0 or +1 comparing k to other lexicographically.
func (k GradeKey) Compare(other GradeKey) int {
	if c := cmp.Compare(k.Number, other.Number); c != 0 {
		return c
	}
	return strings.Compare(k.Suffix, other.Suffix)
}

// GradeKeyOf derives the natural sort key of a grade label.
//
//	"E 9a" -> (9, "a")
//	"E 2Ü" -> (2, "Ü")
//	"E 10" -> (10, "")
//	"Azubi" -> (GradeSentinel, "Azubi")
//	""     -> (GradeSentinel, "")
func GradeKeyOf(label string) GradeKey {
	label = CleanGrade(label)
	if label == "" {
		return GradeKey{Number: GradeSentinel}
	}

	m := gradePattern.FindStringSubmatch(label)
	if m == nil {
		return GradeKey{Number: GradeSentinel, Suffix: label}
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n >= GradeSentinel {
		return GradeKey{Number: GradeSentinel, Suffix: label}
	}
	return GradeKey{Number: n, Suffix: strings.TrimSpace(m[2])}
}

// CompareGrades compares two grade labels by their natural sort key.
func CompareGrades(a, b string) int {
	return GradeKeyOf(a).Compare(GradeKeyOf(b))
}

// SortGrades sorts grade labels in place in natural order.
// Labels with equal keys keep their relative order.
func SortGrades(grades []string) {
	slices.SortStableFunc(grades, CompareGrades)
}

// SortCells orders cells by table name, natural grade order, then step.
func SortCells(cells []SalaryCell) {
	slices.SortStableFunc(cells, func(a, b SalaryCell) int {
		if c := strings.Compare(a.TableName, b.TableName); c != 0 {
			return c
		}
		if c := CompareGrades(a.Grade, b.Grade); c != 0 {
			return c
		}
		return cmp.Compare(a.Step, b.Step)
	})
}
