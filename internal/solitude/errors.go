package solitude

import (
	"errors"
	"fmt"
)

var (
	// ErrNotModified signals that a conditional read matched the current
	// version. Control flow, not a failure.
	ErrNotModified = errors.New("resource not modified")

	// Configuration errors. These indicate an operator or setup problem
	// and must never be swallowed.
	ErrSellerNotConfigured = errors.New("seller not configured")
	ErrNoBillingAccount    = errors.New("seller has no billing account")
	ErrProviderNotSet      = errors.New("provider has not been set")

	ErrNotImplemented     = errors.New("not implemented for this provider")
	ErrObjectDoesNotExist = errors.New("object does not exist")
	ErrClientDisabled     = errors.New("solitude client is not configured")
	ErrBackendUnavailable = errors.New("solitude backend unavailable")
)

// HTTPClientError is a 4xx reply from the backend.
type HTTPClientError struct {
	StatusCode int
	Body       string
}

func (e *HTTPClientError) Error() string {
	return fmt.Sprintf("solitude client error: status %d: %s", e.StatusCode, e.Body)
}
