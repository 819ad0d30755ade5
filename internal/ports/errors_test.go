package ports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStorageErrorWrapping verifies that StorageError participates in the
// errors.Is / errors.As chains callers rely on.
func TestStorageErrorWrapping(t *testing.T) {
	base := ErrEventNotFound
	err := NewStorageError("Event", "ev-42", base)

	assert.True(t, errors.Is(err, ErrEventNotFound))
	assert.Contains(t, err.Error(), "operation=Event")
	assert.Contains(t, err.Error(), "event=ev-42")

	var se *StorageError
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &se))
	assert.Equal(t, "ev-42", se.EventID)
}

// TestSnapshotErrorWrapping verifies the same contract for SnapshotError,
// including the ErrSnapshotExists idempotency signal.
func TestSnapshotErrorWrapping(t *testing.T) {
	err := NewSnapshotError("ev-7", "WriteSnapshot", ErrSnapshotExists)

	assert.True(t, errors.Is(err, ErrSnapshotExists))
	assert.Contains(t, err.Error(), "operation=WriteSnapshot")

	var se *SnapshotError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "ev-7", se.EventID)
}

// TestSentinelDistinctness guards against two sentinels collapsing into one
// another, which would confuse callers branching on errors.Is.
func TestSentinelDistinctness(t *testing.T) {
	sentinels := []error{
		ErrEventNotFound,
		ErrBandNotFound,
		ErrSnapshotNotFound,
		ErrSnapshotExists,
		ErrResultsNotVisible,
		ErrStorageUnavailable,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v must not match %v", a, b)
		}
	}
}
