// Package ports defines the interfaces through which the results engine
// talks to its collaborators: the relational store that supplies
// already-averaged vote metrics, the snapshot store that owns frozen
// results, and the metrics backend.
package ports

import (
	"context"
	"time"

	"github.com/bandwagonhq/podium/internal/domain"
)

// EventSource supplies event metadata, including the free-form scoring
// version identifier and the legacy winner field.
type EventSource interface {
	// Event returns the metadata for one event.
	// It returns ErrEventNotFound (possibly wrapped) when the event
	// does not exist.
	Event(ctx context.Context, eventID string) (domain.Event, error)
}

// AggregateSource supplies the live, per-band vote aggregates for an event.
// Implementations must return the whole cohort from a single consistent
// read: crowd normalization compares sibling vote counts, so mixing a stale
// cohort with a fresher subject band breaks determinism.
type AggregateSource interface {
	// BandVoteAggregates returns every band's aggregate for the event,
	// recomputed from current vote rows. A zero-band event yields an
	// empty slice, not an error.
	BandVoteAggregates(ctx context.Context, eventID string) ([]domain.BandVoteAggregate, error)
}

// SnapshotStore owns the durable, immutable finalized-result rows. The
// write path is the engine's freeze-once boundary: the store must enforce
// per-event uniqueness so that two near-simultaneous finalize calls cannot
// write divergent snapshots.
type SnapshotStore interface {
	// HasSnapshot reports whether a finalized snapshot exists for the
	// event.
	HasSnapshot(ctx context.Context, eventID string) (bool, error)

	// Snapshot returns the frozen rows for the event, in rank order.
	// It returns ErrSnapshotNotFound (possibly wrapped) when no
	// snapshot was ever written.
	Snapshot(ctx context.Context, eventID string) ([]domain.FinalizedResult, error)

	// WriteSnapshot freezes the given ranking for the event, exactly
	// once. A second write for the same event must fail with
	// ErrSnapshotExists (possibly wrapped) and leave the original rows
	// untouched, even under concurrent invocation.
	WriteSnapshot(ctx context.Context, eventID string, results []domain.RankedResult, finalizedAt time.Time) ([]domain.FinalizedResult, error)
}

// MetricsCollector abstracts the metrics backend so the application layer
// never imports a concrete client. Implementations integrate with
// Prometheus or other monitoring systems.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric, e.g. computations
	// performed or snapshots served.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)
}

// NopMetrics is a MetricsCollector that discards everything. It keeps
// metrics optional for embedders and tests.
type NopMetrics struct{}

// RecordLatency implements MetricsCollector.
func (NopMetrics) RecordLatency(string, time.Duration, map[string]string) {}

// RecordCounter implements MetricsCollector.
func (NopMetrics) RecordCounter(string, float64, map[string]string) {}

// RecordGauge implements MetricsCollector.
func (NopMetrics) RecordGauge(string, float64, map[string]string) {}

var _ MetricsCollector = NopMetrics{}
