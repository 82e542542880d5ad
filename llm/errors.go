// ABOUTME: Error hierarchy for language-model and execution-backend calls.
// ABOUTME: Defines SDKError, ProviderError with retryability, and ConfigurationError.
package llm

import "encoding/json"

// SDKError is the base error type for all errors in this package.
// Other error types embed SDKError either directly or transitively.
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *SDKError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns false for the base SDKError. Subtypes override this.
func (e *SDKError) IsRetryable() bool {
	return false
}

// ProviderError represents an error returned by a backend API. It carries
// the HTTP status code and the raw response body when available.
type ProviderError struct {
	SDKError
	Provider   string
	StatusCode int
	Retryable  bool
	RetryAfter *float64
	Raw        json.RawMessage
}

func (e *ProviderError) Error() string {
	return e.SDKError.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.SDKError.Unwrap()
}

// IsRetryable returns the Retryable flag set on the provider error.
func (e *ProviderError) IsRetryable() bool {
	return e.Retryable
}

// As enables errors.As to match SDKError from a ProviderError.
func (e *ProviderError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// NetworkError represents a transport-level failure (connection refused,
// timeout, DNS). Always retryable.
type NetworkError struct {
	SDKError
}

func (e *NetworkError) Error() string     { return e.SDKError.Error() }
func (e *NetworkError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *NetworkError) IsRetryable() bool { return true }

// ConfigurationError indicates the client was constructed or invoked with
// invalid configuration (for example a missing API key). Not retryable.
type ConfigurationError struct {
	SDKError
}

func (e *ConfigurationError) Error() string     { return e.SDKError.Error() }
func (e *ConfigurationError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *ConfigurationError) IsRetryable() bool { return false }
