package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// AuthError reports a credential that is empty, malformed, rejected by the
// token introspection endpoint, or missing the calendar scope.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid credential: %s: %v", e.Reason, e.Err)
	}
	return "invalid credential: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProviderError is a non-2xx answer from the Google API.
type ProviderError struct {
	Op      string
	Status  int
	Message string
	Body    string
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("calendar %s failed with status %d: %s", e.Op, e.Status, msg)
}

// NotFound reports whether the event no longer exists. Google answers 410
// for events that were already deleted.
func (e *ProviderError) NotFound() bool {
	return e.Status == http.StatusNotFound || e.Status == http.StatusGone
}

// BadRequest reports whether the provider rejected the request parameters.
func (e *ProviderError) BadRequest() bool {
	return e.Status == http.StatusBadRequest
}

// Retryable reports whether the failure is worth retrying for an idempotent call.
func (e *ProviderError) Retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// NetworkError is a transport failure: the provider was never reached or the
// call ran out of time.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("calendar %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the call hit its deadline.
func (e *NetworkError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// IsNotFound reports whether err is a provider "not found" answer.
func IsNotFound(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.NotFound()
}

// classify maps an API client error onto the package's error types.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &ProviderError{
			Op:      op,
			Status:  gerr.Code,
			Message: gerr.Message,
			Body:    gerr.Body,
		}
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	var nerr *NetworkError
	if errors.As(err, &nerr) {
		return nerr
	}

	return &NetworkError{Op: op, Err: err}
}
