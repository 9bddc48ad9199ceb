package tracker

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error for transport mapping.
type Kind int

const (
	// KindValidation marks malformed or constraint-violating input.
	KindValidation Kind = iota + 1
	// KindForbidden marks a policy denial on an existing target.
	KindForbidden
	// KindNotFound marks a primary key absent from the store.
	KindNotFound
)

// Error is a domain error carrying a transport-mappable kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validationf builds a validation error.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Forbiddenf builds a policy-denial error.
func Forbiddenf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a missing-entity error.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or zero for non-domain errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
