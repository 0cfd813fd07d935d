package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session cannot be located.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStorage marks failures of the session or leaderboard stores. The
	// engine performs no partial writes when a storage call fails.
	ErrStorage = errors.New("storage failure")
)

// storageErr classifies a collaborator failure so callers can distinguish
// it from empty results and validation problems.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
