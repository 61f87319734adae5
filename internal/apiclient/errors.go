package apiclient

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags the failure mode of an Error.
type Kind string

const (
	KindTransport  Kind = "transport"
	KindTimeout    Kind = "timeout"
	KindHTTP       Kind = "http"
	KindDecode     Kind = "decode"
	KindValidation Kind = "validation"
)

// Error is the one error shape every client call fails with.
// Status is 0 when no response was received.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	// ContextLogID links a failed call to an entry the server already persisted.
	ContextLogID string
	Body         []byte
	Err          error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) HasStatus() bool {
	return e != nil && e.Status > 0
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an HTTP error with the given status code.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == status
}

// ValidationError builds a pre-flight error; it never carries a status.
func ValidationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: strings.TrimSpace(fmt.Sprintf(format, args...)),
	}
}

func statusMessage(status int) string {
	return fmt.Sprintf("request failed with status code %d", status)
}
