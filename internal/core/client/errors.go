package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nemy/nemy/internal/core/engine"
)

// ErrorKind classifies a FetchSummary failure.
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindRateLimited ErrorKind = "rate_limited"
	KindTimeout     ErrorKind = "timeout"
	KindTransport   ErrorKind = "transport"
	KindHTTP        ErrorKind = "http"
	KindValidation  ErrorKind = "validation"
	KindUnknown     ErrorKind = "unknown"
)

// RateLimitedError is returned when either the local ledger or the upstream
// provider refuses a request.
type RateLimitedError struct {
	Scope engine.Scope
	// RetryAfter is nil for remote rejections.
	RetryAfter *time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("rate limited (%s): retry after %d seconds", e.Scope, int64(e.RetryAfter.Seconds()))
	}
	return fmt.Sprintf("rate limited (%s)", e.Scope)
}

// TimeoutError is returned when the request exceeds the fixed request timeout.
type TimeoutError struct {
	Timeout time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// TransportError wraps network failures and malformed payloads.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("error communicating with API: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// HTTPError reports an unexpected upstream status.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

// ValidationKind names the validation rule that failed.
type ValidationKind string

const (
	ValidationMissingFields   ValidationKind = "missing_fields"
	ValidationInvalidCategory ValidationKind = "invalid_category"
	ValidationInvalidNumber   ValidationKind = "invalid_number"
	ValidationOutOfRange      ValidationKind = "out_of_range"
)

// ValidationError reports a response that breaks the upstream contract.
type ValidationError struct {
	Kind ValidationKind
	// Field is empty for missing-field errors.
	Field string
	// Fields lists every missing field, in required-field order.
	Fields []string
	// Value is the offending raw value.
	Value string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationMissingFields:
		return "missing required fields in API response: " + strings.Join(e.Fields, ", ")
	case ValidationInvalidCategory:
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Value)
	case ValidationInvalidNumber:
		return fmt.Sprintf("invalid numeric value for %s: %s", e.Field, e.Value)
	case ValidationOutOfRange:
		return fmt.Sprintf("value out of range for %s: %s", e.Field, e.Value)
	default:
		return fmt.Sprintf("invalid API response: %s", e.Kind)
	}
}

// KindOf classifies err. Nil yields KindNone.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		rateLimited *RateLimitedError
		timeout     *TimeoutError
		transport   *TransportError
		httpErr     *HTTPError
		validation  *ValidationError
	)

	switch {
	case errors.As(err, &rateLimited):
		return KindRateLimited
	case errors.As(err, &timeout):
		return KindTimeout
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &transport):
		return KindTransport
	default:
		return KindUnknown
	}
}

// RetryAfterOf extracts the retry-after hint from a rate limit error.
func RetryAfterOf(err error) (engine.Scope, *time.Duration, bool) {
	var rateLimited *RateLimitedError
	if !errors.As(err, &rateLimited) {
		return "", nil, false
	}
	return rateLimited.Scope, rateLimited.RetryAfter, true
}

// StatusCodeOf returns the upstream status for HTTP errors.
func StatusCodeOf(err error) (int, bool) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return 0, false
	}
	return httpErr.StatusCode, true
}
