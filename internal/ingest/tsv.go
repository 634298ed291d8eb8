package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

type tsvReader struct{}

func (tsvReader) CanRead(filename string) bool { return hasExt(filename, ".tsv", ".tab") }

// Read re-encodes tab-separated rows as CSV so embedded commas are quoted.
func (tsvReader) Read(path string, _ Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open tsv: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read tsv: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return encode(rows)
}

func encode(rows [][]string) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	return b.String(), nil
}
