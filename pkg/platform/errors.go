package platform

import (
	"fmt"
	"net/http"
	"time"
)

// FailureKind classifies why a platform call did not produce data.
type FailureKind string

const (
	// KindTransport means no HTTP response was received.
	KindTransport FailureKind = "transport"

	// KindRejection means the platform answered with a non-2xx status or an
	// API-level error inside a 2xx body.
	KindRejection FailureKind = "rejection"

	// KindIdentity means the account behind the access token could not be
	// resolved. Calls that need it stop there.
	KindIdentity FailureKind = "identity"

	// KindParse means a 2xx body could not be decoded.
	KindParse FailureKind = "parse"
)

// Failure is the failure variant of a Result.
// It implements error so callers can hand it to errors.As.
type Failure struct {
	// Platform is the platform that produced the failure.
	Platform string

	// Kind classifies the failure.
	Kind FailureKind

	// Code is the HTTP status for rejections and 500 for synthetic failures.
	Code int

	// Message is a human-readable description.
	Message string

	// Details is the decoded error body when the platform sent one.
	Details any

	// RetryAfter is the Retry-After hint on 429 responses.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("platform %q %s failure (code %d): %s", f.Platform, f.Kind, f.Code, f.Message)
}

// ErrorType returns the failure kind as a metric label value.
func (f *Failure) ErrorType() string {
	return string(f.Kind)
}

// Retryable reports whether repeating the call could succeed: transport
// failures, 429 and 5xx rejections. Identity, parse and other 4xx failures
// are permanent.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case KindTransport:
		return true
	case KindRejection:
		return f.Code == http.StatusTooManyRequests || f.Code >= 500
	default:
		return false
	}
}

// TransportFailure builds a synthetic failure for requests that got no response.
func TransportFailure(platform string, err error) *Failure {
	return &Failure{
		Platform: platform,
		Kind:     KindTransport,
		Code:     http.StatusInternalServerError,
		Message:  err.Error(),
	}
}

// RejectionFailure builds a failure for a platform-rejected request.
func RejectionFailure(platform string, code int, message string, details any) *Failure {
	if message == "" {
		message = http.StatusText(code)
	}
	return &Failure{
		Platform: platform,
		Kind:     KindRejection,
		Code:     code,
		Message:  message,
		Details:  details,
	}
}

// ParseFailure builds a failure for a 2xx body that could not be decoded.
func ParseFailure(platform string, err error, raw []byte) *Failure {
	return &Failure{
		Platform: platform,
		Kind:     KindParse,
		Code:     http.StatusInternalServerError,
		Message:  fmt.Sprintf("failed to decode response: %v", err),
		Details:  truncate(string(raw), 512),
	}
}

// IdentityFailure wraps the failure that prevented resolving the account id.
func IdentityFailure(platform string, cause *Failure) *Failure {
	f := &Failure{
		Platform: platform,
		Kind:     KindIdentity,
		Code:     http.StatusInternalServerError,
		Message:  "unable to resolve account identity",
	}
	if cause != nil {
		f.Code = cause.Code
		f.Message = fmt.Sprintf("unable to resolve account identity: %s", cause.Message)
		f.Details = cause.Details
	}
	return f
}

// ConfigError represents an invalid client configuration.
type ConfigError struct {
	// Platform is the platform with invalid configuration
	Platform string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("platform %q configuration error for field %q: %s",
		e.Platform, e.Field, e.Message)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
