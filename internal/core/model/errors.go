package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks transient failures that can be retried
	ErrNetwork = errors.New("network error")
	// ErrAuth marks failures that need a new session before retrying
	ErrAuth = errors.New("authentication error")
)

// SourceError is a page fetch failure for one source
type SourceError struct {
	Source    ItemType
	PageIndex int
	Err       error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s page %d: %v", e.Source, e.PageIndex, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether err requires re-authentication
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsNetwork reports whether err is a transient network failure
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// NetworkError wraps err so that IsNetwork reports true
func NetworkError(err error) error {
	if err == nil || errors.Is(err, ErrNetwork) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// AuthError wraps err so that IsAuth reports true
func AuthError(err error) error {
	if err == nil || errors.Is(err, ErrAuth) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrAuth, err)
}
