package core

// normalize.go reshapes a wide salary table into long-form records.
//
// Source layout (one row per grade, one column per step):
//
//	Entgeltgruppe;1;2;3
//	E 1;2000;2100;
//	E 2;2500;2600;2700
//
// becomes one SalaryCell per non-empty numeric cell. Cells that are empty or
// not numeric are dropped. A numeric cell that is zero or negative fails the
// whole file, since it means the source is wrong rather than sparse.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NormalizeOptions configures a single normalization run.
type NormalizeOptions struct {
	TableName   string // Pay scale name stored on every cell, e.g. "TV-L"
	GradeColumn string // Header of the grade column (default "Entgeltgruppe")
	Delimiter   rune   // Field separator (default ';')
	Region      string // Region metadata (default "ALL")
	ValidFrom   string // Validity date YYYY-MM-DD (default "2025-02-01")
	Encoding    string // Source charset (default "utf-8")
}

// withDefaults fills unset options.
func (o NormalizeOptions) withDefaults() NormalizeOptions {
	o.TableName = strings.TrimSpace(o.TableName)
	if strings.TrimSpace(o.GradeColumn) == "" {
		o.GradeColumn = DefaultGradeColumn
	}
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if strings.TrimSpace(o.Region) == "" {
		o.Region = DefaultRegion
	}
	if strings.TrimSpace(o.ValidFrom) == "" {
		o.ValidFrom = DefaultValidFrom
	}
	if strings.TrimSpace(o.Encoding) == "" {
		o.Encoding = DefaultEncoding
	}
	return o
}

// fillFrom copies every option of d that o leaves unset. TableName is never copied.
func (o NormalizeOptions) fillFrom(d NormalizeOptions) NormalizeOptions {
	if strings.TrimSpace(o.GradeColumn) == "" {
		o.GradeColumn = d.GradeColumn
	}
	if o.Delimiter == 0 {
		o.Delimiter = d.Delimiter
	}
	if strings.TrimSpace(o.Region) == "" {
		o.Region = d.Region
	}
	if strings.TrimSpace(o.ValidFrom) == "" {
		o.ValidFrom = d.ValidFrom
	}
	if strings.TrimSpace(o.Encoding) == "" {
		o.Encoding = d.Encoding
	}
	return o
}

// NormalizeStats describes what a normalization run kept and dropped.
type NormalizeStats struct {
	Rows         int   // Data rows read (header excluded)
	Cells        int   // Cells emitted
	DroppedCells int   // Empty or non-numeric step cells
	SkippedRows  int   // Rows without a grade label
	BytesRead    int64 // Raw bytes consumed from the source
}

// Normalize reads a wide CSV from r and returns long-form cells in source
// order: row by row, and within a row in step column order.
//
// Options are checked before any input is read. Returns a *ValidationError
// if the table name is empty or the validity date is invalid, if the grade
// column is missing or the CSV is malformed, and if a retained salary is not
// positive.
func Normalize(r io.Reader, opts NormalizeOptions) ([]SalaryCell, NormalizeStats, error) {
	opts = opts.withDefaults()
	var stats NormalizeStats

	if opts.TableName == "" {
		return nil, stats, InvalidParam("table_name", "", "table name is required")
	}
	if err := recordValidator().Var(opts.ValidFrom, "datetime="+DateLayout); err != nil {
		return nil, stats, InvalidParam("valid_from", opts.ValidFrom, "invalid date format (use YYYY-MM-DD)")
	}

	decoded, counter, err := WrapForImport(r, opts.Encoding)
	if err != nil {
		return nil, stats, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, &ValidationError{Kind: KindMalformedFile, Message: "empty file"}
	}
	if err != nil {
		return nil, stats, malformed(err)
	}

	cleaned := make([]string, len(header))
	for i, h := range header {
		cleaned[i] = CleanCell(h)
	}

	gradeIdx, stepCols, err := ValidateHeaders(cleaned, opts.GradeColumn)
	if err != nil {
		return nil, stats, err
	}
	if len(stepCols) == 0 {
		slog.Warn("no step columns found in header", "table", opts.TableName, "header", cleaned)
	}

	var cells []SalaryCell
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, malformed(err)
		}
		line++
		stats.Rows++

		if gradeIdx >= len(record) {
			stats.SkippedRows++
			continue
		}
		grade := CleanGrade(record[gradeIdx])
		if grade == "" {
			stats.SkippedRows++
			continue
		}

		for _, col := range stepCols {
			if col.Index >= len(record) {
				stats.DroppedCells++
				continue
			}
			amount, ok := ParseAmount(record[col.Index])
			if !ok {
				stats.DroppedCells++
				continue
			}

			cell := SalaryCell{
				TableName: opts.TableName,
				Grade:     grade,
				Step:      col.Step,
				Salary:    amount,
				ValidFrom: opts.ValidFrom,
				Region:    opts.Region,
			}
			if err := ValidateCell(cell); err != nil {
				var ve *ValidationError
				if errors.As(err, &ve) {
					ve.Line = line
					if ve.Kind == KindNonPositive {
						ve.Field = fmt.Sprintf("%s / Stufe %d", grade, col.Step)
					}
				}
				return nil, stats, err
			}
			cells = append(cells, cell)
		}
	}

	stats.Cells = len(cells)
	stats.BytesRead = counter.bytesRead
	return cells, stats, nil
}

// malformed wraps a csv parse error as a ValidationError.
func malformed(err error) error {
	ve := &ValidationError{Kind: KindMalformedFile, Message: err.Error()}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		ve.Line = pe.Line
		ve.Message = pe.Err.Error()
	}
	return ve
}

// WriteLongCSV writes cells as a long-form CSV with a header row, the layout
// of the cleaned intermediate files: Entgeltgruppe,Stufe,Salary,valid_from,region,table_name.
func WriteLongCSV(w io.Writer, cells []SalaryCell) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Entgeltgruppe", "Stufe", "Salary", "valid_from", "region", "table_name"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range cells {
		row := []string{
			c.Grade,
			fmt.Sprintf("%d", c.Step),
			formatAmount(c.Salary),
			c.ValidFrom,
			c.Region,
			c.TableName,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
