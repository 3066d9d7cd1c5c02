package llm

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"
)

// CapabilityError is returned by the factory when the requested mode is not
// supported by the provider. It is raised before any network call.
type CapabilityError struct {
	Provider string
	Mode     Mode
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("provider %s does not support %s mode", e.Provider, e.Mode)
}

// CredentialError is returned when a provider that requires a remote API key
// was given none.
type CredentialError struct {
	Provider string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("provider %s requires an API key", e.Provider)
}

// ParseError means model output could not be coerced into the expected shape
// after all repair passes. Callers fall back to deterministic insights.
type ParseError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %s returned unparseable output: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError wraps a network/auth/rate-limit failure from a vendor call.
// ConnectionRefused distinguishes an unreachable self-hosted provider from
// remote API failures for user messaging.
type TransportError struct {
	Provider          string
	StatusCode        int
	ConnectionRefused bool
	Err               error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s transport error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsAuth reports whether the failure looks like a credential problem
func (e *TransportError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// transportError builds a TransportError, detecting refused connections
func transportError(provider string, statusCode int, err error) *TransportError {
	return &TransportError{
		Provider:          provider,
		StatusCode:        statusCode,
		ConnectionRefused: errors.Is(err, syscall.ECONNREFUSED),
		Err:               err,
	}
}
