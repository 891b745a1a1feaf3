package factor

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema is the sentinel wrapped by every *SchemaError.
	ErrSchema = errors.New("schema error")

	// ErrDuplicateRecord is returned when an input table repeats its key,
	// e.g. two stock records for the same (date, code).
	ErrDuplicateRecord = errors.New("duplicate record")
)

// SchemaError reports a required field that is absent or unusable.
// It aborts the build before any aggregation.
type SchemaError struct {
	Table  string // "stock", "futures", "north_flow"
	Field  string
	Row    int // zero-based index into the input slice, -1 for header-level problems
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("schema error: %s.%s: %s", e.Table, e.Field, e.Reason)
	}
	return fmt.Sprintf("schema error: %s.%s (row %d): %s", e.Table, e.Field, e.Row, e.Reason)
}

// Unwrap lets errors.Is match ErrSchema.
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}
