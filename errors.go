package rollblock

import (
	"errors"
	"fmt"
)

// Common sentinel errors for the rollblock package.
var (
	// ErrIO is returned when a series, output or chart location cannot be
	// opened, read or written.
	ErrIO = errors.New("i/o error")

	// ErrParse is returned when an input field is not a valid floating-point literal.
	ErrParse = errors.New("parse error")

	// ErrConfig is returned for invalid run configuration, such as a
	// non-positive block size or a missing location.
	ErrConfig = errors.New("invalid configuration")

	// ErrRender is returned when the chart cannot be drawn.
	ErrRender = errors.New("chart render failed")

	// ErrLengthMismatch is returned when x and y series differ in length.
	ErrLengthMismatch = errors.New("x and y series differ in length")
)

// ParseError describes an input field that could not be converted to a number.
type ParseError struct {
	Source string // location the rows were read from, may be empty
	Line   int    // 1-based record line
	Field  int    // 1-based field index
	Value  string
	Cause  error
}

func (e *ParseError) Error() string {
	src := e.Source
	if src == "" {
		src = "input"
	}
	if e.Field == 0 {
		return fmt.Sprintf("parse %s line %d: %v", src, e.Line, e.Cause)
	}
	return fmt.Sprintf("parse %s line %d field %d %q: %v", src, e.Line, e.Field, e.Value, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// StorageErrorType categorizes storage errors.
type StorageErrorType int

const (
	// StorageErrorTypeUnknown is an unclassified storage error.
	StorageErrorTypeUnknown StorageErrorType = iota
	// StorageErrorTypeRead indicates a read failure.
	StorageErrorTypeRead
	// StorageErrorTypeWrite indicates a write failure.
	StorageErrorTypeWrite
	// StorageErrorTypeCodec indicates a compression or decompression failure.
	StorageErrorTypeCodec
)

// StorageError provides detailed information about storage failures.
type StorageError struct {
	Type    StorageErrorType
	Message string
	Path    string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s [%s]: %v", e.Message, e.Path, e.Cause)
		}
		return fmt.Sprintf("%s [%s]", e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for StorageError. Every storage error is an
// I/O error as far as callers are concerned.
func (e *StorageError) Is(target error) bool {
	return target == ErrIO
}

// newStorageError creates a new StorageError.
func newStorageError(errType StorageErrorType, message, path string, cause error) *StorageError {
	return &StorageError{
		Type:    errType,
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// Exit codes returned by ExitCode.
const (
	ExitOK     = 0
	ExitIO     = 1
	ExitParse  = 2
	ExitConfig = 3
)

// ExitCode maps an error returned by this package to a process exit code.
// Parse errors are checked first because a ParseError may wrap an I/O cause
// from the csv reader.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrParse):
		return ExitParse
	case errors.Is(err, ErrConfig), errors.Is(err, ErrLengthMismatch):
		return ExitConfig
	default:
		return ExitIO
	}
}
