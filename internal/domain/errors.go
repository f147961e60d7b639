package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Common domain errors that can occur during contest operations. All are
// detected before any mutation; operations that return them leave engine
// state untouched. The dispatch layer is responsible for turning these
// into user-facing text.
var (
	// ErrRoundAlreadyActive indicates an open round already occupies the
	// active slot.
	ErrRoundAlreadyActive = errors.New("a round is already active")

	// ErrNoActiveRound indicates no round is currently open.
	ErrNoActiveRound = errors.New("no active round")

	// ErrRoundNameMismatch indicates the named round is not the active one.
	ErrRoundNameMismatch = errors.New("round name does not match active round")

	// ErrDuplicateSubmission indicates the participant already submitted
	// for the active round.
	ErrDuplicateSubmission = errors.New("participant already submitted")

	// ErrUnknownEntity indicates one or more entity ids could not be
	// resolved against the roster. The complete id list is carried by
	// UnknownEntityError.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrEntityListInvalid indicates an entity id list is not exactly
	// PodiumSize long or contains repeats.
	ErrEntityListInvalid = errors.New("entity list must be exactly five distinct ids")

	// ErrRoundNotFound indicates no closed round exists under the
	// requested name.
	ErrRoundNotFound = errors.New("round not found")

	// ErrNoSubmission indicates the participant has no submission for the
	// active round.
	ErrNoSubmission = errors.New("no submission for participant")
)

// UnknownEntityError reports every unresolvable id in a submitted list at
// once, not just the first encountered, so the caller can surface all
// mistakes in one reply.
type UnknownEntityError struct {
	// IDs lists the unresolvable entity ids in input order.
	IDs []int
}

// Error implements the error interface for UnknownEntityError.
func (e *UnknownEntityError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("unknown entity ids: %s", strings.Join(ids, ", "))
}

// Unwrap lets errors.Is match against ErrUnknownEntity.
func (e *UnknownEntityError) Unwrap() error { return ErrUnknownEntity }

// NewUnknownEntityError creates an UnknownEntityError for the given ids.
func NewUnknownEntityError(ids []int) *UnknownEntityError {
	return &UnknownEntityError{IDs: ids}
}
