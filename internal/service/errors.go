package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/content-platform-api/internal/validation"
)

// Kind classifies service failures
type Kind string

const (
	KindNotFound      Kind = "NOT_FOUND"
	KindForbidden     Kind = "FORBIDDEN"
	KindValidation    Kind = "VALIDATION_ERROR"
	KindDataIntegrity Kind = "DATA_INTEGRITY_ERROR"
	KindStore         Kind = "STORE_ERROR"
)

// Error is returned by every CommentService operation
type Error struct {
	Kind    Kind
	Message string
	// Fields carries per-field details for validation failures
	Fields []validation.ValidationError
	Origin error
}

func (e *Error) Error() string {
	if e.Origin != nil {
		return e.Message + ": " + e.Origin.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Origin
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == "" && t.Origin == nil
}

// Kind sentinels for errors.Is
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrDataIntegrity = &Error{Kind: KindDataIntegrity}
	ErrStore         = &Error{Kind: KindStore}
)

// KindOf returns the kind of err, or "" when err is not a service error
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func notFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", what, id)}
}

func forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func invalid(fields []validation.ValidationError) *Error {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	return &Error{Kind: KindValidation, Message: strings.Join(msgs, "; "), Fields: fields}
}

func integrity(msg string) *Error {
	return &Error{Kind: KindDataIntegrity, Message: msg}
}

func storeErr(msg string, origin error) *Error {
	return &Error{Kind: KindStore, Message: msg, Origin: origin}
}
