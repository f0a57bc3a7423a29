package api

import (
	"errors"
	"strings"
)

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("api serve failed")
	ErrBadRequest = errors.New("bad request")
	//nolint:staticcheck // shown verbatim by the upload page
	ErrBadFormat = errors.New("Invalid data format.")
	ErrNotFound  = errors.New("not found")
	ErrTooLarge  = errors.New("request body too large")
	ErrInternal  = errors.New("internal error")
)

// kindError carries the failing operation, a client-facing kind and the cause.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	var b strings.Builder
	b.WriteString(e.op)
	b.WriteString(": ")
	b.WriteString(e.kind.Error())
	if e.err != nil {
		b.WriteString(": ")
		b.WriteString(e.err.Error())
	}
	return b.String()
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}

// Wrap marks err as an internal error of op.
func Wrap(op string, err error) error {
	return &kindError{op: op, kind: ErrInternal, err: err}
}

// WrapKind attaches kind to err.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}
