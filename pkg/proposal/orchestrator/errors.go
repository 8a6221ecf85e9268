package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactUnavailable means no document could be produced this time;
	// the conversation is left eligible for a retry.
	ErrArtifactUnavailable = errors.New("proposal document not available, retry later")
	// ErrGenerationInProgress means another caller holds the conversation's generation lock.
	ErrGenerationInProgress = errors.New("proposal generation already in progress")
)

// PersistenceError reports a failed metadata or artifact write. It is always
// surfaced because a lost write breaks the at-most-one-generation guarantee.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
