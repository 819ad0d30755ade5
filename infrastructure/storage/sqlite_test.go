package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandwagonhq/podium/internal/domain"
	"github.com/bandwagonhq/podium/internal/ports"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedEvent(t *testing.T, s *Store) domain.Event {
	t.Helper()
	ev := domain.Event{
		ID:             "ev-1",
		Name:           "Rock the Shelter 2026",
		Status:         domain.StatusVoting,
		ScoringVersion: "crowd-noise",
	}
	require.NoError(t, s.SaveEvent(context.Background(), ev))
	return ev
}

// TestEventRoundTrip verifies event persistence and the not-found error.
func TestEventRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := seedEvent(t, s)

	got, err := s.Event(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("missing event", func(t *testing.T) {
		_, err := s.Event(ctx, "ev-404")
		assert.ErrorIs(t, err, ports.ErrEventNotFound)

		var se *ports.StorageError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "ev-404", se.EventID)
	})
}

// TestAggregateRoundTrip verifies that optional measurements survive the
// round trip as presence, not as zeroes.
func TestAggregateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedEvent(t, s)

	noise := 8.5
	withNoise := domain.BandVoteAggregate{
		BandID:          "b1",
		BandName:        "The Amp Hogs",
		Order:           1,
		AvgSongChoice:   15.5,
		AvgPerformance:  25,
		AvgCrowdVibe:    22.5,
		JudgeVoteCount:  3,
		CrowdVoteCount:  10,
		TotalCrowdVotes: 50,
		CrowdNoiseScore: &noise,
		EnergyTelemetry: 71.3,
		PeakTelemetry:   96.2,
	}
	withoutNoise := domain.BandVoteAggregate{
		BandID:          "b2",
		BandName:        "Static Cling",
		Order:           2,
		AvgSongChoice:   12,
		AvgPerformance:  20,
		AvgCrowdVibe:    18,
		CrowdVoteCount:  4,
		TotalCrowdVotes: 50,
	}
	require.NoError(t, s.SaveAggregate(ctx, "ev-1", withNoise))
	require.NoError(t, s.SaveAggregate(ctx, "ev-1", withoutNoise))

	cohort, err := s.BandVoteAggregates(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, cohort, 2)
	assert.Equal(t, withNoise, cohort[0])
	assert.Nil(t, cohort[1].CrowdNoiseScore)
	assert.Nil(t, cohort[1].AvgVisuals)

	t.Run("empty cohort is empty slice", func(t *testing.T) {
		empty, err := s.BandVoteAggregates(ctx, "ev-empty")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

// TestWriteSnapshotFreezeOnce verifies the persistence-level freeze-once
// boundary: the second write fails with ErrSnapshotExists and the original
// rows survive untouched.
func TestWriteSnapshotFreezeOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedEvent(t, s)

	ranked := []domain.RankedResult{
		{BandID: "b1", BandName: "The Amp Hogs", Rank: 1, IsWinner: true,
			Breakdown: domain.ScoreBreakdown{JudgeComponent: 63, CrowdVoteComponent: 10, Total: 73}},
		{BandID: "b2", BandName: "Static Cling", Rank: 2,
			Breakdown: domain.ScoreBreakdown{JudgeComponent: 50, CrowdVoteComponent: 4, Total: 54}},
	}
	finalizedAt := time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC)

	frozen, err := s.WriteSnapshot(ctx, "ev-1", ranked, finalizedAt)
	require.NoError(t, err)
	require.Len(t, frozen, 2)

	t.Run("marker and status", func(t *testing.T) {
		has, err := s.HasSnapshot(ctx, "ev-1")
		require.NoError(t, err)
		assert.True(t, has)

		ev, err := s.Event(ctx, "ev-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFinalized, ev.Status)
	})

	t.Run("second write rejected", func(t *testing.T) {
		divergent := []domain.RankedResult{{BandID: "b2", Rank: 1, IsWinner: true}}
		_, err := s.WriteSnapshot(ctx, "ev-1", divergent, finalizedAt.Add(time.Hour))
		assert.ErrorIs(t, err, ports.ErrSnapshotExists)

		rows, err := s.Snapshot(ctx, "ev-1")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "b1", rows[0].BandID)
		assert.True(t, rows[0].IsWinner)
		assert.Equal(t, finalizedAt, rows[0].FinalizedAt)
	})

	t.Run("snapshot round trip", func(t *testing.T) {
		rows, err := s.Snapshot(ctx, "ev-1")
		require.NoError(t, err)
		for i, row := range rows {
			assert.Equal(t, ranked[i], row.Ranked())
			assert.Equal(t, "ev-1", row.EventID)
		}
	})
}

// TestSnapshotMissing verifies the not-found contract for events that were
// never finalized.
func TestSnapshotMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	has, err := s.HasSnapshot(ctx, "ev-1")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = s.Snapshot(ctx, "ev-1")
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
}

// TestWriteSnapshotRollback verifies that a rejected write leaves no
// partial rows behind: the marker insert and the result rows commit or
// roll back together.
func TestWriteSnapshotRollback(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedEvent(t, s)

	_, err := s.WriteSnapshot(ctx, "ev-1",
		[]domain.RankedResult{{BandID: "b1", Rank: 1}}, time.Now())
	require.NoError(t, err)

	_, err = s.WriteSnapshot(ctx, "ev-1",
		[]domain.RankedResult{{BandID: "b9", Rank: 1}}, time.Now())
	require.ErrorIs(t, err, ports.ErrSnapshotExists)

	rows, err := s.Snapshot(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b1", rows[0].BandID, "losing write must leave no rows")
}
