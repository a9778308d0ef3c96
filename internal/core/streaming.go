package core

// streaming.go provides the reader chain applied to import sources.
//
// Salary tables exported from Excel on Windows arrive as UTF-8 with a BOM or
// as Windows-1252. The chain handles both without buffering the whole file:
//
//   - UTF-8 input: BOM removed, invalid sequences replaced with U+FFFD
//   - Windows-1252 / ISO-8859-1 / ISO-8859-15 input: decoded to UTF-8
//   - countingReader: tracks bytes consumed for import logging
//
// Use WrapForImport to apply the transforms in the correct order.

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SupportedEncodings lists the accepted values for the import encoding option.
var SupportedEncodings = []string{"utf-8", "windows-1252", "iso-8859-1", "iso-8859-15"}

// lookupEncoding resolves an encoding name. Empty means UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	default:
		return nil, InvalidParam("encoding", name,
			fmt.Sprintf("unsupported encoding (use one of: %s)", strings.Join(SupportedEncodings, ", ")))
	}
}

// countingReader wraps an io.Reader to track bytes read.
type countingReader struct {
	reader    io.Reader
	bytesRead int64
}

// Read implements io.Reader.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.bytesRead += int64(n)
	return n, err
}

// WrapForImport wraps r with byte counting and charset decoding.
//
// The order matters:
// 1. Counting sees the raw source bytes
// 2. Decoding strips the BOM and yields valid UTF-8
func WrapForImport(r io.Reader, encodingName string) (io.Reader, *countingReader, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, nil, err
	}
	counter := &countingReader{reader: r}
	return transform.NewReader(counter, enc.NewDecoder()), counter, nil
}
