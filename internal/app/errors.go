package app

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a request failure with the HTTP status it should be reported as.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func notFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

func tooManyRequests(msg string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Message: msg}
}

// internalError reports prefix plus the cause to the caller.
func internalError(prefix string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: fmt.Sprintf("%s: %v", prefix, err), Err: err}
}

// statusOf maps any error to a status code and client-facing message.
func statusOf(err error) (int, string) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}
	return http.StatusInternalServerError, err.Error()
}
