// Package ingest turns uploaded files into CSV text for the schema mapper.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Options selects what part of a file to read.
type Options struct {
	// Sheet names the workbook sheet to read. Empty means the first sheet.
	Sheet string
}

// Reader converts one file format to CSV text.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (string, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ErrEmpty indicates a file without any content.
var ErrEmpty = errors.New("file is empty")

// ReadFile selects a reader by filename. Files no reader claims are read as
// comma-separated text.
func ReadFile(path string, opt Options) (string, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return csvReader{}.Read(path, opt)
}

func init() {
	Register(csvReader{})
	Register(tsvReader{})
	Register(xlsxReader{})
}

func hasExt(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

type csvReader struct{}

func (csvReader) CanRead(filename string) bool { return hasExt(filename, ".csv", ".txt") }

func (csvReader) Read(path string, _ Options) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return string(b), nil
}
