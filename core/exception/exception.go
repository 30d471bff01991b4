// Package exception defines the structured error report shared by the query
// resolver and the domain services. An Exception carries an HTTP-style status
// analog, an application code the client can rely on, a public message that is
// safe to render and a private message meant for logs only.
package exception

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matching the status class of an Exception. They allow callers
// to branch with errors.Is without inspecting status codes.
var (
	ErrNotFound   = errors.New("exception: not found")
	ErrBadRequest = errors.New("exception: bad request")
	ErrConflict   = errors.New("exception: conflict")
	ErrInternal   = errors.New("exception: internal")
)

// Exception is a terminal, non-retryable error report.
type Exception struct {
	Status         int    `json:"status"`
	Code           int    `json:"code"`
	PublicMessage  string `json:"message"`
	PrivateMessage string `json:"-"`
	Cause          error  `json:"-"`
}

// New creates an Exception.
func New(status, code int, publicMessage, privateMessage string) *Exception {
	return &Exception{
		Status:         status,
		Code:           code,
		PublicMessage:  publicMessage,
		PrivateMessage: privateMessage,
	}
}

// WithCause attaches the error that caused the exception.
func (e *Exception) WithCause(err error) *Exception {
	e.Cause = err
	return e
}

func (e *Exception) Error() string {
	msg := e.PrivateMessage
	if msg == "" {
		msg = e.PublicMessage
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%d/%d] %s: %v", e.Status, e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%d/%d] %s", e.Status, e.Code, msg)
}

func (e *Exception) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this exception's status class.
func (e *Exception) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrInternal:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// As extracts an *Exception from err, if any.
func As(err error) (*Exception, bool) {
	var ex *Exception
	if errors.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

// IsNotFound returns true if err is or wraps a not-found exception.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBadRequest returns true if err is or wraps a bad-request exception.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}
