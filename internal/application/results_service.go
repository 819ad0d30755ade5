package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bandwagonhq/podium/internal/domain"
	"github.com/bandwagonhq/podium/internal/ports"
)

// EventResults is what the engine hands to UI and API callers: either a
// frozen snapshot served verbatim or a live-computed preview, tagged so
// callers can label the difference.
type EventResults struct {
	// EventID identifies the event.
	EventID string `json:"event_id"`

	// RuleSet is the rule-set the results were computed under.
	RuleSet domain.RuleSet `json:"rule_set"`

	// Frozen is true when Results came from a finalized snapshot and
	// false for a live preview.
	Frozen bool `json:"frozen"`

	// FinalizedAt is set only for frozen results.
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`

	// Results is the ranked result set, best first. Empty when the
	// event has no bands.
	Results []domain.RankedResult `json:"results"`
}

// ResultsService is the finalization snapshot manager. It decides, per
// event, whether results are served live or frozen, and performs the
// one-time freeze. Score computation itself is delegated to the pure
// domain functions; the service owns orchestration, validation, visibility,
// and idempotency.
type ResultsService struct {
	events     ports.EventSource
	aggregates ports.AggregateSource
	snapshots  ports.SnapshotStore
	metrics    ports.MetricsCollector
	config     EngineConfig
	tracer     trace.Tracer

	// now is injectable for deterministic finalization timestamps in
	// tests.
	now func() time.Time
}

// NewResultsService creates a ResultsService over the given collaborators.
// The metrics collector may be nil, in which case metrics are discarded.
// Returns an error when a required collaborator is missing or the config
// is invalid.
func NewResultsService(
	events ports.EventSource,
	aggregates ports.AggregateSource,
	snapshots ports.SnapshotStore,
	config EngineConfig,
	metrics ports.MetricsCollector,
) (*ResultsService, error) {
	if events == nil {
		return nil, fmt.Errorf("event source cannot be nil")
	}
	if aggregates == nil {
		return nil, fmt.Errorf("aggregate source cannot be nil")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	return &ResultsService{
		events:     events,
		aggregates: aggregates,
		snapshots:  snapshots,
		metrics:    metrics,
		config:     config,
		tracer:     otel.Tracer("results-service"),
		now:        time.Now,
	}, nil
}

// GetResults returns the event's results subject to the visibility rule:
// a non-privileged viewer sees results only once the event is finalized,
// while a privileged viewer may request the live preview at any status for
// run-of-show checking before the irreversible freeze.
//
// A finalized event with an existing snapshot is served the snapshot
// verbatim, with no recomputation and no dependency on current vote rows.
// A finalized event whose snapshot was never written (a recoverable
// inconsistency) falls back to live computation.
func (s *ResultsService) GetResults(ctx context.Context, eventID string, privileged bool) (EventResults, error) {
	ctx, span := s.tracer.Start(ctx, "ResultsService.GetResults",
		trace.WithAttributes(
			attribute.String("event.id", eventID),
			attribute.Bool("viewer.privileged", privileged),
		))
	defer span.End()
	start := s.now()

	// Event metadata and snapshot presence are independent reads.
	var (
		event   domain.Event
		hasSnap bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = s.events.Event(gctx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		hasSnap, err = s.snapshots.HasSnapshot(gctx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return EventResults{}, err
	}

	if event.Status != domain.StatusFinalized && !privileged {
		return EventResults{}, fmt.Errorf("event %s: %w", eventID, ports.ErrResultsNotVisible)
	}

	if event.Status == domain.StatusFinalized && hasSnap {
		rows, err := s.snapshots.Snapshot(ctx, eventID)
		if err != nil {
			return EventResults{}, err
		}
		s.metrics.RecordCounter("results_served_total", 1, map[string]string{"source": "snapshot"})
		s.metrics.RecordLatency("get_results", s.now().Sub(start), map[string]string{"source": "snapshot"})
		return frozenResults(eventID, s.config.ResolveRuleSet(event.ScoringVersion), rows), nil
	}

	res, err := s.liveResults(ctx, event)
	if err != nil {
		return EventResults{}, err
	}
	s.metrics.RecordCounter("results_served_total", 1, map[string]string{"source": "live"})
	s.metrics.RecordLatency("get_results", s.now().Sub(start), map[string]string{"source": "live"})
	span.SetAttributes(attribute.Int("cohort.size", len(res.Results)))
	return res, nil
}

// BandResult returns one band's placement from the event's results. A band
// absent from the cohort is a caller-level not-found condition, not a
// scoring error; the engine never synthesizes a placeholder band.
func (s *ResultsService) BandResult(ctx context.Context, eventID, bandID string, privileged bool) (domain.RankedResult, error) {
	res, err := s.GetResults(ctx, eventID, privileged)
	if err != nil {
		return domain.RankedResult{}, err
	}
	for _, r := range res.Results {
		if r.BandID == bandID {
			return r, nil
		}
	}
	return domain.RankedResult{}, fmt.Errorf("event %s, band %s: %w", eventID, bandID, ports.ErrBandNotFound)
}

// Finalize performs the one-time freeze of an event's results. It is
// idempotent: finalizing an event that already has a snapshot returns the
// existing snapshot untouched, with no recomputation and no overwrite, so
// a retried admin action or late-arriving votes can never change published
// results. Concurrent double-invocation is resolved by the snapshot
// store's per-event uniqueness guarantee; the loser of the race reads back
// the winner's rows.
func (s *ResultsService) Finalize(ctx context.Context, eventID string) (EventResults, error) {
	ctx, span := s.tracer.Start(ctx, "ResultsService.Finalize",
		trace.WithAttributes(attribute.String("event.id", eventID)))
	defer span.End()

	event, err := s.events.Event(ctx, eventID)
	if err != nil {
		return EventResults{}, err
	}

	hasSnap, err := s.snapshots.HasSnapshot(ctx, eventID)
	if err != nil {
		return EventResults{}, err
	}
	rs := s.config.ResolveRuleSet(event.ScoringVersion)
	if hasSnap {
		rows, err := s.snapshots.Snapshot(ctx, eventID)
		if err != nil {
			return EventResults{}, err
		}
		span.SetAttributes(attribute.Bool("finalize.noop", true))
		return frozenResults(eventID, rs, rows), nil
	}

	live, err := s.liveResults(ctx, event)
	if err != nil {
		return EventResults{}, err
	}

	rows, err := s.snapshots.WriteSnapshot(ctx, eventID, live.Results, s.now())
	if errors.Is(err, ports.ErrSnapshotExists) {
		// Lost a concurrent finalize race; the first write stands.
		rows, err = s.snapshots.Snapshot(ctx, eventID)
	}
	if err != nil {
		return EventResults{}, err
	}

	s.metrics.RecordCounter("finalizations_total", 1, map[string]string{"rule_set": rs.String()})
	return frozenResults(eventID, rs, rows), nil
}

// liveResults computes a transient preview from the current cohort. The
// aggregate source supplies the whole cohort from one consistent read;
// each aggregate is range-validated before the calculator runs, because a
// garbled cohort must surface as an error rather than as partial scores.
func (s *ResultsService) liveResults(ctx context.Context, event domain.Event) (EventResults, error) {
	cohort, err := s.aggregates.BandVoteAggregates(ctx, event.ID)
	if err != nil {
		return EventResults{}, err
	}

	for _, band := range cohort {
		if err := validate.Struct(band); err != nil {
			return EventResults{}, ports.NewStorageError("BandVoteAggregates", event.ID,
				fmt.Errorf("invalid aggregate for band %q: %w", band.BandID, err))
		}
	}

	rs := s.config.ResolveRuleSet(event.ScoringVersion)
	return EventResults{
		EventID: event.ID,
		RuleSet: rs,
		Results: domain.RankCohort(cohort, rs, event.WinnerName),
	}, nil
}

// frozenResults converts snapshot rows into the caller-facing shape.
func frozenResults(eventID string, rs domain.RuleSet, rows []domain.FinalizedResult) EventResults {
	results := make([]domain.RankedResult, len(rows))
	var finalizedAt *time.Time
	for i, row := range rows {
		results[i] = row.Ranked()
		if finalizedAt == nil {
			t := row.FinalizedAt
			finalizedAt = &t
		}
	}
	return EventResults{
		EventID:     eventID,
		RuleSet:     rs,
		Frozen:      true,
		FinalizedAt: finalizedAt,
		Results:     results,
	}
}
