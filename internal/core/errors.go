package core

import (
	"errors"
	"fmt"
)

// ThrottledError signals that a collaborator was rate limited by its
// provider. Adapters classify provider responses into this type so the
// orchestrator can branch on it without inspecting error text.
type ThrottledError struct {
	Provider string
	Err      error
}

func (e *ThrottledError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s throttled request: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s throttled request", e.Provider)
}

func (e *ThrottledError) Unwrap() error {
	return e.Err
}

// NewThrottledError wraps a provider error as a throttling failure
func NewThrottledError(provider string, err error) *ThrottledError {
	return &ThrottledError{Provider: provider, Err: err}
}

// IsThrottled reports whether err is a throttling-class failure
func IsThrottled(err error) bool {
	var throttled *ThrottledError
	return errors.As(err, &throttled)
}
