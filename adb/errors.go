package adb

import (
	"errors"
	"fmt"
)

// ErrorCode is the core's domain-level failure taxonomy (spec §7);
// it deliberately does not track platform errno names.
type ErrorCode string

const (
	ErrBadMessage  ErrorCode = "BAD_MESSAGE"
	ErrBadFormat   ErrorCode = "BAD_FORMAT"
	ErrNoKey       ErrorCode = "NO_KEY"
	ErrKeyRejected ErrorCode = "KEY_REJECTED"
	ErrUnsupported ErrorCode = "UNSUPPORTED"
	ErrTooBig      ErrorCode = "TOO_BIG"
	ErrIO          ErrorCode = "IO"
)

// Error is returned by every failing operation in this package. Err, when
// set, carries the underlying cause from an external collaborator
// (an InputStream, a Digester, ...); it propagates unchanged.
type Error struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}

func wrapErr(code ErrorCode, msg string, err error) error {
	return &Error{Code: code, Msg: msg, Err: err}
}

// Code extracts the ErrorCode carried by err, if err (or something it
// wraps) is an *Error.
func Code(err error) (code ErrorCode, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
