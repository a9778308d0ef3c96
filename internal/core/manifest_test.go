package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseManifest(t *testing.T) {
	input := `
imports:
  - file: raw/TV-L.csv
    table: TV-L
  - file: /data/TVoED.csv
    table: TVöD
    valid_from: "2025-04-01"
    encoding: windows-1252
    delimiter: tab
    grade_column: Gruppe
`
	m, err := ParseManifest(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(m.Imports) != 2 {
		t.Fatalf("got %d entries, want 2", len(m.Imports))
	}

	want := NormalizeOptions{
		TableName:   "TVöD",
		GradeColumn: "Gruppe",
		Delimiter:   '\t',
		ValidFrom:   "2025-04-01",
		Encoding:    "windows-1252",
	}
	if diff := cmp.Diff(want, m.Imports[1].Options()); diff != "" {
		t.Errorf("Options mismatch (-want +got):\n%s", diff)
	}
	if got := m.Path(m.Imports[0]); got != "raw/TV-L.csv" {
		t.Errorf("Path = %q, want raw/TV-L.csv", got)
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty document", input: ""},
		{name: "no imports", input: "imports: []\n"},
		{name: "unknown field", input: "imports:\n  - file: a.csv\n    table: TV-L\n    sheet: 1\n"},
		{name: "missing file", input: "imports:\n  - table: TV-L\n"},
		{name: "missing table", input: "imports:\n  - file: a.csv\n"},
		{name: "bad delimiter", input: "imports:\n  - file: a.csv\n    table: TV-L\n    delimiter: ab\n"},
		{name: "not yaml", input: "imports: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest(strings.NewReader(tt.input))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
		})
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		input   string
		want    rune
		wantErr bool
	}{
		{"", 0, false},
		{";", ';', false},
		{",", ',', false},
		{"|", '|', false},
		{"tab", '\t', false},
		{`\t`, '\t', false},
		{"Semicolon", ';', false},
		{"comma", ',', false},
		{"ab", 0, true},
		{`"`, 0, true},
		{"\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDelimiter(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDelimiter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDelimiter(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportManifest(t *testing.T) {
	withProfiles(t)

	dir := t.TempDir()
	writeFile(t, dir, "raw/TV-L.csv", "Entgeltgruppe;1;2\nE 1;2000;2100\n")
	writeFile(t, dir, "raw/TVoED.csv", "Entgeltgruppe;1\nE 1;2200\nE 2;2300\n")
	path := writeFile(t, dir, "imports.yaml", `
imports:
  - file: raw/TV-L.csv
    table: TV-L
  - file: raw/TVoED.csv
    table: TVöD
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	loader := &fakeLoader{}
	results, err := NewImporter(loader, nil).ImportManifest(context.Background(), m)
	if err != nil {
		t.Fatalf("ImportManifest: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if got := results[1].Batch.Source; got != filepath.Join(dir, "raw", "TVoED.csv") {
		t.Errorf("Source = %q", got)
	}
	if n := len(loader.cells["TV-L"]); n != 2 {
		t.Errorf("TV-L cells = %d, want 2", n)
	}
	if n := len(loader.cells["TVöD"]); n != 2 {
		t.Errorf("TVöD cells = %d, want 2", n)
	}
}

func TestImportManifestStopsAtFirstError(t *testing.T) {
	withProfiles(t)

	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "Entgeltgruppe;1\nE 1;2000\n")
	writeFile(t, dir, "b.csv", "Gruppe;1\nE 1;2000\n")
	writeFile(t, dir, "c.csv", "Entgeltgruppe;1\nE 1;2000\n")
	path := writeFile(t, dir, "imports.yaml", `
imports:
  - {file: a.csv, table: A}
  - {file: b.csv, table: B}
  - {file: c.csv, table: C}
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	loader := &fakeLoader{}
	results, err := NewImporter(loader, nil).ImportManifest(context.Background(), m)

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != KindMissingColumn {
		t.Fatalf("expected missing column error, got %v", err)
	}
	if len(results) != 1 || len(loader.batches) != 1 || loader.batches[0].TableName != "A" {
		t.Errorf("expected only A imported, got %d results, batches %+v", len(results), loader.batches)
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
