package ports

import (
	"errors"
	"fmt"
)

// Structural errors surfaced to callers. Numeric edge cases (zero votes,
// missing measurements, unknown rule-set identifiers) are absorbed inside
// the domain layer and never appear here.
var (
	// ErrEventNotFound indicates that the requested event does not exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrBandNotFound indicates that a requested band is absent from the
	// event's cohort. The engine never synthesizes a placeholder band.
	ErrBandNotFound = errors.New("band not found in cohort")

	// ErrSnapshotNotFound indicates that no finalized snapshot was ever
	// written for the event.
	ErrSnapshotNotFound = errors.New("finalized snapshot not found")

	// ErrSnapshotExists indicates that a finalized snapshot already
	// exists and the attempted write was rejected. Callers treat this as
	// the idempotent no-op signal, not a failure.
	ErrSnapshotExists = errors.New("finalized snapshot already exists")

	// ErrResultsNotVisible indicates that a non-privileged viewer asked
	// for results before the event was finalized.
	ErrResultsNotVisible = errors.New("results not visible before finalization")

	// ErrStorageUnavailable indicates that the backing store could not
	// serve a coherent read or write.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// StorageError wraps a failure from the storage layer with the operation
// and event that triggered it.
type StorageError struct {
	// Operation names the storage operation that failed.
	Operation string

	// EventID is the event involved in the failed operation.
	EventID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StorageError.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: operation=%s, event=%s, err=%v", e.Operation, e.EventID, e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError creates a StorageError with the given details.
func NewStorageError(operation, eventID string, err error) *StorageError {
	return &StorageError{
		Operation: operation,
		EventID:   eventID,
		Err:       err,
	}
}

// SnapshotError wraps a failure from the snapshot store. It is distinct
// from StorageError so finalize paths can tell freeze problems from plain
// read problems.
type SnapshotError struct {
	// EventID is the event whose snapshot operation failed.
	EventID string

	// Operation names the snapshot operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for SnapshotError.
func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot error: operation=%s, event=%s, err=%v", e.Operation, e.EventID, e.Err)
}

// Unwrap returns the underlying error.
func (e *SnapshotError) Unwrap() error { return e.Err }

// NewSnapshotError creates a SnapshotError with the given details.
func NewSnapshotError(eventID, operation string, err error) *SnapshotError {
	return &SnapshotError{
		EventID:   eventID,
		Operation: operation,
		Err:       err,
	}
}
