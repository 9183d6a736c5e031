// Package httpclient holds the shared plumbing for the three outbound HTTP
// clients: a typed error taxonomy, retry with exponential backoff, and
// structured call logging.
package httpclient

import "fmt"

// ErrorKind categorizes an outbound API failure.
type ErrorKind int

const (
	KindAuthentication ErrorKind = iota
	KindRateLimit
	KindServiceUnavailable
	KindInvalidRequest
	KindTimeout
	KindNotFound
	KindUnknown
)

// String returns a human-readable description of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication error"
	case KindRateLimit:
		return "rate limit exceeded"
	case KindServiceUnavailable:
		return "service unavailable"
	case KindInvalidRequest:
		return "invalid request"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not found"
	default:
		return "unknown error"
	}
}

// Error is an outbound API error with enough structure to decide retry
// eligibility without inspecting message text.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Retryable  bool
	Service    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Service, e.Kind.String(), e.Message, e.StatusCode)
}

// Is matches errors by kind for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsRetryable reports whether the failure is worth retrying.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewAuthenticationError creates a non-retryable credential failure.
func NewAuthenticationError(service, message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message, StatusCode: 401, Retryable: false, Service: service}
}

// NewRateLimitError creates a retryable rate-limit failure.
func NewRateLimitError(service, message string) *Error {
	return &Error{Kind: KindRateLimit, Message: message, StatusCode: 429, Retryable: true, Service: service}
}

// NewServiceUnavailableError creates a retryable server-side failure.
func NewServiceUnavailableError(service, message string) *Error {
	return &Error{Kind: KindServiceUnavailable, Message: message, StatusCode: 503, Retryable: true, Service: service}
}

// NewInvalidRequestError creates a non-retryable validation failure.
func NewInvalidRequestError(service, message string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: message, StatusCode: 400, Retryable: false, Service: service}
}

// NewTimeoutError creates a retryable connectivity failure. Transport-level
// errors (connection refused, DNS, timeouts) map here.
func NewTimeoutError(service, message string) *Error {
	return &Error{Kind: KindTimeout, Message: message, StatusCode: 0, Retryable: true, Service: service}
}

// NewNotFoundError creates a non-retryable missing-resource failure.
func NewNotFoundError(service, message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, StatusCode: 404, Retryable: false, Service: service}
}

// MapStatus converts an HTTP error status to a typed Error using the shared
// taxonomy: 429 and 5xx are retryable, 4xx auth/validation failures are not.
func MapStatus(service string, statusCode int, message string) *Error {
	switch {
	case statusCode == 401 || statusCode == 403:
		e := NewAuthenticationError(service, message)
		e.StatusCode = statusCode
		return e
	case statusCode == 404:
		return NewNotFoundError(service, message)
	case statusCode == 429:
		return NewRateLimitError(service, message)
	case statusCode >= 500:
		e := NewServiceUnavailableError(service, message)
		e.StatusCode = statusCode
		return e
	case statusCode >= 400:
		e := NewInvalidRequestError(service, message)
		e.StatusCode = statusCode
		return e
	default:
		return &Error{Kind: KindUnknown, Message: message, StatusCode: statusCode, Retryable: false, Service: service}
	}
}
