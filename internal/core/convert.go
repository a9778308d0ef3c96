package core

// convert.go provides cleaning and type conversion for raw pay scale cells.
//
// Published salary tables are copied out of PDFs and spreadsheets, so cells
// carry the usual artifacts:
//   - Non-breaking spaces inside labels ("E 15") and amounts
//   - German number formats ("2.434,49") next to plain ones ("2434.49")
//   - Currency markers (€, EUR) and stray quotes
//   - Decomposed umlauts ("U" + combining diaeresis) in labels like "E 2Ü"
//
// Amount conversion never fails loudly: an unparseable cell reports ok=false
// and the normalizer drops it.

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// numericRegex validates that a string is a plain decimal number after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// spaceReplacer maps the space variants found in exported tables to ASCII space.
var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u202f", " ", // narrow no-break space
	"\u2007", " ", // figure space
	"\ufeff", "", // stray BOM
)

// CleanCell removes common CSV artifacts from a header or text cell:
// - Replaces non-breaking spaces with spaces
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(spaceReplacer.Replace(s))

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// CleanGrade normalizes an Entgeltgruppe label: non-breaking spaces become
// spaces, surrounding whitespace is trimmed and the label is NFC-normalized.
//
//	CleanGrade("E\u00a015 ") == "E 15"
func CleanGrade(s string) string {
	return norm.NFC.String(strings.TrimSpace(spaceReplacer.Replace(s)))
}

// ParseStep parses a Stufe column name. Only decimal digit strings naming a
// step of at least 1 are accepted; signs, spaces and decimals are rejected.
func ParseStep(s string) (int, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ParseAmount converts a salary cell to a number.
//
// Accepted forms include "2434.49", "2434,49", "2.434,49", "2,434.49",
// "2 434,49 €" and "EUR 2434". When both separators appear, the last one is
// the decimal separator. A single comma is a decimal comma; several commas or
// several dots are thousands separators.
// Returns ok=false for empty, non-numeric, NaN or infinite values.
func ParseAmount(s string) (float64, bool) {
	s = spaceReplacer.Replace(s)
	s = strings.ReplaceAll(s, "\u20ac", "") // Euro
	s = strings.ReplaceAll(s, "EUR", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.Trim(s, `"'`)
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
