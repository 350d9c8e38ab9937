// Package apperr carries the error taxonomy shared by every domain package.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindRule
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRule:
		return "rule"
	default:
		return "internal"
	}
}

// Error is a classified failure. Two errors match under errors.Is when their codes match.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) WithMessage(message string) *Error {
	out := *e
	out.Message = message
	return &out
}

func (e *Error) WithMessagef(format string, args ...any) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

func (e *Error) Wrap(err error) *Error {
	out := *e
	out.Err = err
	return &out
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }

func NotFound(code, message string) *Error { return New(KindNotFound, code, message) }

func Forbidden(code, message string) *Error { return New(KindForbidden, code, message) }

func Conflict(code, message string) *Error { return New(KindConflict, code, message) }

func Rule(code, message string) *Error { return New(KindRule, code, message) }

func Unauthenticated(code, message string) *Error { return New(KindUnauthenticated, code, message) }

func As(err error) (*Error, bool) {
	var out *Error
	if errors.As(err, &out) {
		return out, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
