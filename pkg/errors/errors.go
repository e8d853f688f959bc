// Package errors augments the standard errors with sentinel values that can
// wrap a nested cause without resorting to fmt.Errorf("%w", err).
//
// Sentinels declared with New remain matchable with errors.Is after they
// have been enriched with a cause or extra message context.
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New creates a wrap-aware error with a fixed message
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is an error value which may carry a nested cause. Wrapping returns a
// derived copy, so package-level sentinels stay immutable.
type Error struct {
	msg  string
	err  error  // nested cause
	base *Error // sentinel this error derives from
}

// Error message, including the nested cause when present
func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

// Unwrap the nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap returns a derived error with a nested cause.
// Is still matches the original sentinel.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, base: e.root()}
}

// WrapMessage returns a derived error with a formatted message appended.
// Is still matches the original sentinel.
func (e *Error) WrapMessage(format string, args ...interface{}) *Error {
	return &Error{msg: e.msg + ": " + fmt.Sprintf(format, args...), base: e.root()}
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}
	return e
}

// Is reports whether this error, the sentinel it derives from, or its cause
// matches the target
func (e *Error) Is(target error) bool {
	return e == target || e.root() == target || e.err == target
}

// As finds the first error in err's chain that matches target
// (a shortcut to the standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to the standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
