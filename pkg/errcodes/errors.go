package errcodes

import (
	"errors"
	"fmt"
)

// Error is a categorized error. Missing database records are deliberately not
// represented here: absence of metadata is an expected condition and is
// reported through nil/sentinel values, never as an error.
type Error struct {
	Code    string
	Message string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.Code = err.Code
	te.Message = err.Message
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Code == err.Code && te.Message == err.Message
}

// HasCode reports whether err (or anything it wraps) is an Error with the
// given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

const (
	CodeValidation = "validation"
	CodeFileSystem = "filesystem"
	CodeGeometry   = "geometry"
)

// Validation returns an error for bad paths or arguments. These fail fast,
// before any pair is processed.
func Validation(msg string) error {
	return &Error{CodeValidation, msg}
}

func Validationf(format string, args ...interface{}) error {
	return &Error{CodeValidation, fmt.Sprintf(format, args...)}
}

// FileSystem returns an error for I/O failures reading or writing files or
// directories.
func FileSystem(msg string) error {
	return &Error{CodeFileSystem, msg}
}

func FileSystemf(format string, args ...interface{}) error {
	return &Error{CodeFileSystem, fmt.Sprintf(format, args...)}
}

// Geometry returns an error for vector documents with no usable path geometry.
func Geometry(msg string) error {
	return &Error{CodeGeometry, msg}
}

func Geometryf(format string, args ...interface{}) error {
	return &Error{CodeGeometry, fmt.Sprintf(format, args...)}
}
