package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrMissingCredential   = errors.New("credential is required")
	ErrInvalidCredential   = errors.New("credential is malformed")
	ErrUnknownMode         = errors.New("unknown routing mode")
	ErrUnknownCacheType    = errors.New("unsupported cache type")
	ErrNotFound            = errors.New("not found")
	ErrCacheMiss           = errors.New("key not found")
	ErrCacheDisabled       = errors.New("cache disabled")
	ErrNATSConfigRequired  = errors.New("NATS configuration required for NATS cache")
	ErrRedisConfigRequired = errors.New("redis configuration required for redis cache")
	ErrEmptyRedisAddress   = errors.New("redis address is required")
	ErrKeyNotFoundInChain  = errors.New("key not found in any cache")
	ErrMalformedResponse   = errors.New("response body is not valid JSON")
)

// ConfigError reports a missing or invalid client setting. It is raised at
// construction time and never retried.
type ConfigError struct {
	Err    error
	Detail string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return "config: " + e.Err.Error()
	}

	return fmt.Sprintf("config: %s: %s", e.Err.Error(), e.Detail)
}

// Unwrap returns the sentinel describing the failure.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FetchError represents a non-success response from the content API.
type FetchError struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
	URL        string `json:"-"`
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed with status %d: %s", e.StatusCode, e.Message)
}

// NewFetchError builds a FetchError from a response body, preferring the
// server-supplied message and falling back to the generic status text.
func NewFetchError(statusCode int, body []byte, url string) *FetchError {
	message := http.StatusText(statusCode)

	var payload struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}

	if message == "" {
		message = "unknown error"
	}

	return &FetchError{
		StatusCode: statusCode,
		Message:    message,
		URL:        url,
	}
}

// QueryError wraps a malformed or unevaluable query expression.
type QueryError struct {
	Expression string
	Err        error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q: %v", e.Expression, e.Err)
}

// Unwrap returns the evaluator error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned by keyed accessors (page, entry, image, list)
// when the key is absent from the document.
type NotFoundError struct {
	Kind string
	Key  string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound checks if the error is a not found error, either from a keyed
// accessor or from a 404 response.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}

	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsConfigError checks if the error was raised by configuration validation.
func IsConfigError(err error) bool {
	configErr := &ConfigError{}

	return errors.As(err, &configErr)
}

func hasStatus(err error, status int) bool {
	fetchErr := &FetchError{}
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode == status
	}

	return false
}
