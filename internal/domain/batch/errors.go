package batch

import (
	"errors"
	"fmt"
)

// Sentinel kinds for batch errors.
var (
	ErrEmpty        = errors.New("batch has no records")
	ErrFieldCount   = errors.New("record does not have exactly 5 fields")
	ErrInvalidField = errors.New("record has an invalid field")
	ErrSyntax       = errors.New("batch is not valid CSV")
)

// LineError locates a parse failure within the batch text.
type LineError struct {
	Line  int
	Field string
	Err   error
}

func (e *LineError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
