package fitbit

import "fmt"

// TransportError is a network failure or timeout talking to Fitbit.
type TransportError struct {
	Op  string
	Err error
}

// Error returns the error message.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fitbit %s: transport: %v", e.Op, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthorizationError means Fitbit rejected the credentials (HTTP 401, or an
// invalid grant on the token endpoint).
type AuthorizationError struct {
	Op   string
	Body string
}

// Error returns the error message.
func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("fitbit %s: unauthorized: %s", e.Op, e.Body)
}

// RemoteRejection is any other unexpected status from Fitbit.
type RemoteRejection struct {
	Op         string
	StatusCode int
	Body       string
}

// Error returns the error message.
func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("fitbit %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}
