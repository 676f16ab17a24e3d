package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeIO             = "IO_ERROR"
	ErrCodeDecode         = "DECODE_ERROR"
	ErrCodeKeyMismatch    = "KEY_MISMATCH"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeDecrypt        = "DECRYPT_ERROR"
	ErrCodeInvalidPattern = "INVALID_PATTERN"
)

// Sentinel errors. Each one is an error kind; wrapped errors match it with errors.Is.
var (
	ErrIO             = errors.New("i/o error")
	ErrDecode         = errors.New("decode error")
	ErrKeyMismatch    = errors.New("data was not encrypted with the provided key")
	ErrNotFound       = errors.New("not found")
	ErrDecrypt        = errors.New("decryption failed")
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrPathMismatch is returned when a record is asked for a path other than its own.
	ErrPathMismatch = fmt.Errorf("path does not match: %w", ErrNotFound)

	// ErrNoFilepath is returned by Save when the store was never bound to a file.
	ErrNoFilepath = fmt.Errorf("tomb has no filepath: %w", ErrIO)
)

// Error describes a failed operation on a key, secret or tomb file.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

// NewError wraps err with an operation and error kind.
func NewError(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && errors.Is(e.Kind, target)
}

// Code returns the structured error code for err, or "" when err has no known kind.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrKeyMismatch):
		return ErrCodeKeyMismatch
	case errors.Is(err, ErrInvalidPattern):
		return ErrCodeInvalidPattern
	case errors.Is(err, ErrDecrypt):
		return ErrCodeDecrypt
	case errors.Is(err, ErrDecode):
		return ErrCodeDecode
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrIO):
		return ErrCodeIO
	default:
		return ""
	}
}
