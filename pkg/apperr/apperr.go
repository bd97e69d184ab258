// Package apperr defines the application error model: canonical codes, HTTP
// status mapping, per-field suggestions, and a registry that maps sentinel
// errors from domain packages onto codes.
package apperr

import (
	"errors"
	"fmt"
	"sync"
)

// Suggestion is a per-field hint on how to fix a request.
type Suggestion struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the canonical error shape serialized to clients.
type AppError struct {
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	HTTPStatus  int          `json:"-"`
	cause       error
	ec          *ErrorCode
}

// New creates a new AppError from an ErrorCode.
func New(ec *ErrorCode) *AppError {
	if ec == nil {
		ec = ErrorCodeInternal
	}
	return &AppError{
		Code:       ec.Code(),
		Message:    ec.Message(),
		HTTPStatus: ec.HTTPStatus(),
		ec:         ec,
	}
}

// Newf creates AppError with formatted message.
func Newf(ec *ErrorCode, format string, args ...any) *AppError {
	a := New(ec)
	a.Message = fmt.Sprintf(format, args...)
	return a
}

var (
	mappingsMu sync.RWMutex
	mappings   []mapping
)

type mapping struct {
	target error
	ec     *ErrorCode
}

// RegisterMapping makes FromError translate any error matching target
// (via errors.Is) into ec.
func RegisterMapping(target error, ec *ErrorCode) {
	mappingsMu.Lock()
	defer mappingsMu.Unlock()
	mappings = append(mappings, mapping{target: target, ec: ec})
}

// FromError converts err into an AppError. Wrapped AppErrors are returned
// as-is, registered sentinels get their code, everything else is internal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}

	mappingsMu.RLock()
	defer mappingsMu.RUnlock()
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return New(m.ec).Wrap(err)
		}
	}

	// keep message minimal for clients
	return New(ErrorCodeInternal).Wrap(err)
}

// AddSuggestion appends a field suggestion (fluent)
func (a *AppError) AddSuggestion(field, message string) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	a.Suggestions = append(a.Suggestions, Suggestion{Field: field, Message: message})
	return a
}

func (a *AppError) Error() string {
	if a == nil {
		return "<nil>"
	}
	if a.cause != nil {
		return a.Message + ": " + a.cause.Error()
	}
	return a.Message
}

// WithStatus overrides the HTTP status.
func (a *AppError) WithStatus(status int) *AppError {
	if a == nil {
		return New(ErrorCodeInternal).WithStatus(status)
	}
	a.HTTPStatus = status
	return a
}

// WithMessage overrides the client-facing message.
func (a *AppError) WithMessage(msg string) *AppError {
	if a == nil {
		return New(ErrorCodeInternal).WithMessage(msg)
	}
	a.Message = msg
	return a
}

// Wrap sets the underlying cause and returns the same AppError.
func (a *AppError) Wrap(err error) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	a.cause = err
	return a
}

// Unwrap returns the underlying cause, allowing errors.Unwrap/Is/As to work.
func (a *AppError) Unwrap() error { return a.cause }

// Is reports whether the error carries the given code.
func (a *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && a != nil && t.Code == a.Code
}

// HasCode reports whether err is an AppError (or wraps one) with ec's code.
func HasCode(err error, ec *ErrorCode) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == ec.Code()
}
