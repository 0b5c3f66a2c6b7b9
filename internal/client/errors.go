package client

import (
	"errors"
	"fmt"
)

// TransportError is any non-2xx response from the backend. Message carries
// the response body verbatim for diagnostics; error bodies may be plain
// text, so no JSON shape is assumed.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (status %d)", e.Status)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// NetworkError means the request could not be sent or completed at all:
// DNS failure, connection refused, canceled context.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string { return "network error: " + e.Cause.Error() }

func (e *NetworkError) Unwrap() error { return e.Cause }

// IsTransport checks if an error is a backend-signaled failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsNetwork checks if an error is a connectivity failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
