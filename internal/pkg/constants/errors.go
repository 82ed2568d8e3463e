package constants

import (
	"errors"
	"fmt"
	"net/http"
)

// CodedError is an error that knows which HTTP status it maps to.
type CodedError struct {
	msg  string
	code int
}

func NewCodedError(msg string, code int) *CodedError {
	return &CodedError{msg: msg, code: code}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Code() int {
	return e.code
}

var (
	ErrDBNotFound           = NewCodedError("not found", http.StatusNotFound)
	ErrMissingAuthToken     = NewCodedError("No authentication token found", http.StatusUnauthorized)
	ErrInvalidAuthToken     = NewCodedError("Invalid authentication token", http.StatusUnauthorized)
	ErrUnknownReport        = NewCodedError("unknown report", http.StatusNotFound)
	ErrSuperseded           = NewCodedError("request superseded by a newer one", http.StatusConflict)
	ErrQueueFull            = NewCodedError("submission queue is full, try again later", http.StatusServiceUnavailable)
	ErrQueueClosed          = NewCodedError("submission queue is closed", http.StatusServiceUnavailable)
	ErrStoreDisabled        = NewCodedError("api check history is not configured", http.StatusNotImplemented)
	ErrRequestTimeout       = NewCodedError("Request timeout", http.StatusRequestTimeout)
	ErrFailedToAuthenticate = NewCodedError("Failed to authenticate", http.StatusUnauthorized)
)

// UpstreamError is a non-2xx answer from the welfare API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.Status, e.Message)
}

// Code passes auth and not-found statuses through; any other upstream
// failure is reported as 502.
func (e *UpstreamError) Code() int {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return e.Status
	default:
		return http.StatusBadGateway
	}
}

// ValidationError is a client-side input check failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Code() int {
	return http.StatusBadRequest
}

// Coder is implemented by every error that carries its own HTTP status.
type Coder interface {
	error
	Code() int
}

// StatusOf walks the wrap chain and returns the first carried status,
// or 500 when there is none.
func StatusOf(err error) int {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return http.StatusInternalServerError
}
