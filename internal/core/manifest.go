package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Manifest lists the source files of a full re-import.
//
//	imports:
//	  - file: Entgelttabelle_raw/TV-L.csv
//	    table: TV-L
//	  - file: Entgelttabelle_raw/TVoED.csv
//	    table: TVöD
//	    valid_from: "2025-04-01"
type Manifest struct {
	Imports []ManifestEntry `yaml:"imports"`

	dir string // directory relative file paths resolve against
}

// ManifestEntry is one source file and its import options.
type ManifestEntry struct {
	File        string `yaml:"file"`
	Table       string `yaml:"table"`
	Region      string `yaml:"region,omitempty"`
	ValidFrom   string `yaml:"valid_from,omitempty"`
	Encoding    string `yaml:"encoding,omitempty"`
	Delimiter   string `yaml:"delimiter,omitempty"`
	GradeColumn string `yaml:"grade_column,omitempty"`
}

// LoadManifest reads and checks a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes a manifest. Relative file paths resolve against the
// working directory unless the manifest was loaded with LoadManifest.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return nil, &ValidationError{Kind: KindMalformedFile, Message: "empty manifest"}
		}
		return nil, &ValidationError{Kind: KindMalformedFile, Message: err.Error()}
	}

	if len(m.Imports) == 0 {
		return nil, &ValidationError{Kind: KindMalformedFile, Field: "imports", Message: "no imports listed"}
	}
	for i, e := range m.Imports {
		if strings.TrimSpace(e.File) == "" {
			return nil, &ValidationError{Kind: KindInvalidField, Field: fmt.Sprintf("imports[%d].file", i), Message: "required field is empty"}
		}
		if strings.TrimSpace(e.Table) == "" {
			return nil, &ValidationError{Kind: KindInvalidField, Field: fmt.Sprintf("imports[%d].table", i), Message: "required field is empty"}
		}
		if _, err := ParseDelimiter(e.Delimiter); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// Path returns the resolved source path of an entry.
func (m *Manifest) Path(e ManifestEntry) string {
	if filepath.IsAbs(e.File) || m.dir == "" {
		return e.File
	}
	return filepath.Join(m.dir, e.File)
}

// Options converts an entry into normalization options.
func (e ManifestEntry) Options() NormalizeOptions {
	delim, _ := ParseDelimiter(e.Delimiter)
	return NormalizeOptions{
		TableName:   e.Table,
		GradeColumn: e.GradeColumn,
		Delimiter:   delim,
		Region:      e.Region,
		ValidFrom:   e.ValidFrom,
		Encoding:    e.Encoding,
	}
}

// ParseDelimiter accepts a single character or the names "tab", "semicolon"
// and "comma". Empty means the default.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "semicolon":
		return ';', nil
	case "comma":
		return ',', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, InvalidParam("delimiter", s, "delimiter must be a single character")
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, InvalidParam("delimiter", s, "invalid delimiter")
	}
	return r, nil
}

// ImportManifest imports every entry in order and stops at the first error.
// Entries imported before the failure stay committed.
func (im *Importer) ImportManifest(ctx context.Context, m *Manifest) ([]*ImportResult, error) {
	results := make([]*ImportResult, 0, len(m.Imports))
	for _, e := range m.Imports {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		path := m.Path(e)
		res, err := im.ImportFile(ctx, path, e.Options())
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ImportFile imports a single file from disk.
func (im *Importer) ImportFile(ctx context.Context, path string, opts NormalizeOptions) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return im.Import(ctx, f, path, opts)
}
