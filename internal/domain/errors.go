package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrConflictingVote  = errors.New("conflicting vote")
	// ErrStaleRequest marks a result superseded by a newer request; callers drop it silently.
	ErrStaleRequest = errors.New("stale request")

	ErrToggleInProgress = errors.New("vote toggle in progress")
	ErrInvalidVoteType  = errors.New("invalid vote type")
	ErrInvalidAudience  = errors.New("invalid audience")
	ErrFollowSelf       = errors.New("cannot follow self")
	ErrBlockSelf        = errors.New("cannot block self")
	ErrFeedNotLoaded    = errors.New("feed not loaded")
	ErrUserNotFound     = errors.New("user not found")
	ErrNoActiveSearch   = errors.New("no active search")
)

// StoreError wraps a backend failure of a single data store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStoreUnavailable) match any StoreError.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// WrapStore returns nil for nil errors and passes through errors that already carry a domain meaning.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflictingVote) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
