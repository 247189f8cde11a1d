package core

import (
	"net/http"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// BusinessError is an expected failure raised by a handler or service; it
// carries its own HTTP status and message and is returned to the caller
// verbatim. Anything else reaching the pipeline is treated as a fault.
type BusinessError struct {
	Status int
	Err    error
	Fields []FieldError
}

func NewBusinessError(status int, err error, flds ...FieldError) error {
	return &BusinessError{Status: status, Err: err, Fields: flds}
}

// NewValidationError reports a 400 with optional per-field details.
func NewValidationError(err error, flds ...FieldError) error {
	return NewBusinessError(http.StatusBadRequest, err, flds...)
}

func NewNotFoundError(err error) error {
	return NewBusinessError(http.StatusNotFound, err)
}

func (err BusinessError) Error() string {
	if err.Err == nil {
		return http.StatusText(err.Status)
	}
	return err.Err.Error()
}

// AsBusinessError unwraps err down to a BusinessError if it is one.
func AsBusinessError(err error) (*BusinessError, bool) {
	berr, ok := errors.Cause(err).(*BusinessError)
	return berr, ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
