package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by providers.
var (
	// ErrEmptyAPIKey indicates a missing API key.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")

	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// ErrorType categorizes provider errors for retryability decisions.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication covers invalid or rejected credentials.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit covers provider throttling.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest covers malformed requests.
	ErrorTypeBadRequest
	// ErrorTypeServerError covers provider-side failures.
	ErrorTypeServerError
	// ErrorTypeNetwork covers transport failures and cancellations.
	ErrorTypeNetwork
)

// ProviderError normalizes provider-specific failures into one shape
// carrying the classified type, provider name, and HTTP status.
type ProviderError struct {
	Type       ErrorType
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

// Unwrap supports errors.Is/As chains.
func (e *ProviderError) Unwrap() error { return e.Err }

// IsRetryable reports whether a request failing with this error is
// worth retrying: throttling, server-side, and transport failures are;
// auth and bad-request failures are not.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// classifyStatus maps an HTTP status code from a provider response to
// a ProviderError.
func classifyStatus(provider string, statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	switch {
	case statusCode == 401 || statusCode == 403:
		errType = ErrorTypeAuthentication
	case statusCode == 429:
		errType = ErrorTypeRateLimit
	case statusCode >= 400 && statusCode < 500:
		errType = ErrorTypeBadRequest
	case statusCode >= 500:
		errType = ErrorTypeServerError
	default:
		errType = ErrorTypeUnknown
	}
	return &ProviderError{
		Type:       errType,
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// classifyTransport wraps context and transport failures.
func classifyTransport(provider string, err error) *ProviderError {
	errType := ErrorTypeUnknown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		errType = ErrorTypeNetwork
	}
	return &ProviderError{Type: errType, Provider: provider, Err: err}
}
