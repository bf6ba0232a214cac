package dialog

import "fmt"

// NotFoundError is an empty food search.
type NotFoundError struct {
	Query string
}

// Error returns the error message.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("no foods found for %q", e.Query)
}

// InvalidUserInput is a follow-up outside the vocabulary of the current
// state.
type InvalidUserInput struct {
	State    State
	Response string
}

// Error returns the error message.
func (e InvalidUserInput) Error() string {
	return fmt.Sprintf("unexpected response %q in state %s", e.Response, e.State)
}
