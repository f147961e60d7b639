package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur during persistence and
// roster interactions.
var (
	// ErrPersistence indicates a snapshot could not be durably recorded.
	// The engine rolls its in-memory state back before surfacing it.
	ErrPersistence = errors.New("persistence failure")

	// ErrCorruptSnapshot indicates persisted data could not be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrRosterUnavailable indicates the roster source could not be read.
	ErrRosterUnavailable = errors.New("roster unavailable")
)

// StoreError represents a failure of the persistence gateway. It records
// which engine operation triggered the save and the underlying cause.
type StoreError struct {
	// Operation is the engine operation whose save failed.
	Operation string

	// Err is the underlying error from the store.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: operation=%s, err=%v", e.Operation, e.Err)
}

// Unwrap lets errors.Is match both ErrPersistence and the cause.
func (e *StoreError) Unwrap() error { return e.Err }

// Is reports ErrPersistence for any StoreError so callers can classify
// without knowing the concrete type.
func (e *StoreError) Is(target error) bool { return target == ErrPersistence }

// NewStoreError creates a StoreError for the given operation and cause.
func NewStoreError(operation string, err error) *StoreError {
	return &StoreError{Operation: operation, Err: err}
}

// RosterError represents a failure to read or decode roster data.
type RosterError struct {
	// Path is the roster source involved in the failure.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for RosterError.
func (e *RosterError) Error() string {
	return fmt.Sprintf("roster error: path=%s, err=%v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *RosterError) Unwrap() error { return e.Err }

// Is reports ErrRosterUnavailable for any RosterError.
func (e *RosterError) Is(target error) bool { return target == ErrRosterUnavailable }

// NewRosterError creates a RosterError for the given path and cause.
func NewRosterError(path string, err error) *RosterError {
	return &RosterError{Path: path, Err: err}
}
