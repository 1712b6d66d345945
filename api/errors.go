// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-ring.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	// ErrWouldBlock reports that a non-blocking call could not move any data:
	// the ring is full on write or empty on read. It is a flow-control signal,
	// not a failure.
	ErrWouldBlock = errors.New("operation would block")

	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrResourceExhausted = fmt.Errorf("resource exhausted")
	ErrReleased          = fmt.Errorf("resource released")
	ErrOperationTimeout  = fmt.Errorf("operation timeout")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

// The zero ErrorCode is unset and matches no sentinel.
const (
	ErrCodeInvalidArgument ErrorCode = iota + 1
	ErrCodeResourceExhausted
	ErrCodeReleased
	ErrCodeTimeout
)

// String returns the code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeReleased:
		return "released"
	case ErrCodeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// sentinel maps a code onto the package-level error it stands for.
func (c ErrorCode) sentinel() error {
	switch c {
	case ErrCodeInvalidArgument:
		return ErrInvalidArgument
	case ErrCodeResourceExhausted:
		return ErrResourceExhausted
	case ErrCodeReleased:
		return ErrReleased
	case ErrCodeTimeout:
		return ErrOperationTimeout
	default:
		return nil
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the same code, so that
// errors.Is(err, ErrResourceExhausted) holds for structured errors.
func (e *Error) Is(target error) bool {
	if s := e.Code.sentinel(); s != nil && s == target {
		return true
	}
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause records the error that triggered this one.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// IsWouldBlock reports whether err is the would-block signal.
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}

// IsNonFailure reports whether err is nil or ErrWouldBlock.
func IsNonFailure(err error) bool {
	return err == nil || IsWouldBlock(err)
}
