package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no item matches the requested id.
var ErrNotFound = errors.New("item not found")

// FieldError describes one rejected input field. Loc is the path to the
// field, starting with where it came from ("body", "query", "path").
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError is returned when a request payload or parameter is malformed.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(f.Loc, "."), f.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewFieldError builds a single-field ValidationError.
func NewFieldError(loc []string, msg, typ string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Loc: loc, Msg: msg, Type: typ}}}
}

// StorageError wraps a failure of the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
