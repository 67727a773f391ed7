package embedding

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported is wrapped by every *UnsupportedError.
	ErrNotSupported = errors.New("embedding method not supported")
	// ErrMissingCredentials is returned by ExternalAPI without a key or endpoint.
	ErrMissingCredentials = errors.New("missing API key or endpoint for external API embedding")
	// ErrEmptyText is returned by model and API backed methods for blank input.
	ErrEmptyText = errors.New("empty text provided for embedding")
	// ErrInvalidDimension is returned when the requested dimension is not positive.
	ErrInvalidDimension = errors.New("embedding dimension must be positive")
)

// UnsupportedError reports a method that needs a dependency this build does not have.
type UnsupportedError struct {
	Method Method
	Reason string
	Err    error
}

func (e *UnsupportedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Method, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Reason)
}

func (e *UnsupportedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotSupported}
	}
	return []error{ErrNotSupported, e.Err}
}

// TransportError is a network-level failure talking to the embedding API.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("embedding API request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from the embedding API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("embedding API returned status %d: %s", e.StatusCode, e.Body)
}

// SchemaError is a 2xx response whose body is not a usable embedding.
type SchemaError struct {
	Expected int
	Actual   int
	Err      error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid embedding API response: %v", e.Err)
	}
	return fmt.Sprintf("embedding API returned %d dimensions, expected %d", e.Actual, e.Expected)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IsUpstream reports whether err came from the remote embedding service
// (transport failure or error status) rather than from the request itself.
func IsUpstream(err error) bool {
	var te *TransportError
	var se *StatusError
	return errors.As(err, &te) || errors.As(err, &se)
}
