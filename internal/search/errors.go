package search

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrInit  ErrorKind = "init"  // schema, tokenizer or engine setup
	ErrIndex ErrorKind = "index" // add / commit failures, batch rejected
	ErrQuery ErrorKind = "query" // unusable query or engine search failure

	ErrInvalidWeights ErrorKind = "invalid_weights"
)

// ErrNotQueryable cause of a QueryError raised before the first reload.
var ErrNotQueryable = errors.New("index is not queryable before the first reload")

type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func InitError(msg string, cause error) *Error {
	return &Error{Kind: ErrInit, Message: msg, Cause: cause}
}

func IndexError(msg string, cause error) *Error {
	return &Error{Kind: ErrIndex, Message: msg, Cause: cause}
}

func QueryError(msg string, cause error) *Error {
	return &Error{Kind: ErrQuery, Message: msg, Cause: cause}
}

func fieldError(kind ErrorKind, field, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Field: field}
}

// IsRejectedQuery reports a QueryError caused by the query text itself rather
// than by the engine, the context or the index state.
func IsRejectedQuery(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrQuery && e.Cause == nil
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
