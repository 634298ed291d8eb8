package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaIncomplete is returned by callers that reject a normalization whose
// report lists missing required fields. Process itself never returns it.
var ErrSchemaIncomplete = errors.New("required fields missing")

// MalformedInputError indicates the uploaded text could not be read as a
// table even after structural repair.
type MalformedInputError struct {
	Line int
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("file not parsable (line %d): %v", e.Line, e.Err)
	}
	return fmt.Sprintf("file not parsable: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// IncompleteError wraps ErrSchemaIncomplete with the missing field names.
func IncompleteError(missing []string) error {
	return fmt.Errorf("%w: %s", ErrSchemaIncomplete, strings.Join(missing, ", "))
}
