package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document does not exist or is not owned.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServer indicates the document service failed to answer a request.
	ErrServer = errors.New("server error")

	// Authentication Errors.

	// ErrAuth indicates the credential was rejected. Never retried.
	ErrAuth = errors.New("authentication rejected")

	// ErrAuthExpired indicates the stored credential has expired.
	ErrAuthExpired = fmt.Errorf("%w: token expired", ErrAuth)

	// ErrAuthRequired indicates no credential is configured.
	ErrAuthRequired = fmt.Errorf("%w: no token configured", ErrAuth)

	// Channel Errors.

	// ErrConnectivity indicates a transient network failure.
	// The reconnection controller retries these.
	ErrConnectivity = errors.New("connectivity failure")

	// ErrNotConnected indicates an emit was attempted without an open connection.
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrConnectivity)

	// ErrUnknownEvent indicates a push event name outside the known set.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrInvalidEvent indicates a known push event with a malformed payload.
	ErrInvalidEvent = errors.New("invalid event payload")

	// Session Errors.

	// ErrInvariantViolation indicates a local precondition failure,
	// e.g. asking while a question is already in flight.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrTimeout indicates no answer arrived within the ask timeout.
	ErrTimeout = errors.New("timed out waiting for answer")

	// ErrDocumentDeleted indicates the document was deleted externally.
	// Callers must navigate away from the document.
	ErrDocumentDeleted = errors.New("document deleted")

	// ErrSessionClosed indicates the session was torn down.
	ErrSessionClosed = errors.New("session closed")
)

// APIError carries the HTTP status and server message of a failed request.
// It unwraps to the matching sentinel so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto a domain sentinel.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrAuth
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		return ErrInvalidInput
	default:
		return ErrServer
	}
}
