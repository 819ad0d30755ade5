// Package storage provides the SQLite-backed implementation of the results
// engine's storage ports. The wider event platform owns vote collection and
// SQL aggregation; this store holds the already-averaged per-band metrics,
// event metadata, and the immutable finalized-result snapshots.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/bandwagonhq/podium/internal/domain"
	"github.com/bandwagonhq/podium/internal/ports"
)

// Store is the SQLite-backed storage adapter. It implements
// ports.EventSource, ports.AggregateSource, and ports.SnapshotStore.
// All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time port checks.
var (
	_ ports.EventSource     = (*Store)(nil)
	_ ports.AggregateSource = (*Store)(nil)
	_ ports.SnapshotStore   = (*Store)(nil)
)

// Open creates a Store at the given database path, creating tables as
// needed. File-based databases run in WAL mode for concurrent read
// performance; pass ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same
		// in-memory database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'upcoming',
		scoring_version TEXT NOT NULL DEFAULT '',
		winner_name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS band_vote_aggregates (
		event_id TEXT NOT NULL,
		band_id TEXT NOT NULL,
		band_name TEXT NOT NULL,
		display_order INTEGER NOT NULL DEFAULT 0,
		avg_song_choice REAL NOT NULL DEFAULT 0,
		avg_performance REAL NOT NULL DEFAULT 0,
		avg_crowd_vibe REAL NOT NULL DEFAULT 0,
		avg_visuals REAL,
		judge_vote_count INTEGER NOT NULL DEFAULT 0,
		crowd_vote_count INTEGER NOT NULL DEFAULT 0,
		total_crowd_votes INTEGER NOT NULL DEFAULT 0,
		crowd_noise_score REAL,
		energy_telemetry REAL NOT NULL DEFAULT 0,
		peak_telemetry REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (event_id, band_id)
	);

	CREATE TABLE IF NOT EXISTS finalized_events (
		event_id TEXT PRIMARY KEY,
		finalized_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS finalized_results (
		event_id TEXT NOT NULL,
		band_id TEXT NOT NULL,
		band_name TEXT NOT NULL,
		placement INTEGER NOT NULL,
		judge_component REAL NOT NULL DEFAULT 0,
		crowd_vote_component REAL NOT NULL DEFAULT 0,
		supplementary_component REAL NOT NULL DEFAULT 0,
		total REAL NOT NULL DEFAULT 0,
		is_winner INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (event_id, band_id)
	);

	CREATE INDEX IF NOT EXISTS idx_aggregates_event ON band_vote_aggregates(event_id, display_order);
	CREATE INDEX IF NOT EXISTS idx_finalized_event ON finalized_results(event_id, placement);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Event implements ports.EventSource.
func (s *Store) Event(ctx context.Context, eventID string) (domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ev domain.Event
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, status, scoring_version, winner_name FROM events WHERE id = ?`,
		eventID,
	).Scan(&ev.ID, &ev.Name, &status, &ev.ScoringVersion, &ev.WinnerName)
	if err == sql.ErrNoRows {
		return domain.Event{}, ports.NewStorageError("Event", eventID, ports.ErrEventNotFound)
	}
	if err != nil {
		return domain.Event{}, ports.NewStorageError("Event", eventID, err)
	}
	ev.Status = domain.EventStatus(status)
	return ev, nil
}

// BandVoteAggregates implements ports.AggregateSource. The whole cohort is
// read inside one implicit statement, satisfying the coherent-snapshot
// requirement of the scoring engine.
func (s *Store) BandVoteAggregates(ctx context.Context, eventID string) ([]domain.BandVoteAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT band_id, band_name, display_order,
		       avg_song_choice, avg_performance, avg_crowd_vibe, avg_visuals,
		       judge_vote_count, crowd_vote_count, total_crowd_votes,
		       crowd_noise_score, energy_telemetry, peak_telemetry
		FROM band_vote_aggregates
		WHERE event_id = ?
		ORDER BY display_order, band_id`,
		eventID,
	)
	if err != nil {
		return nil, ports.NewStorageError("BandVoteAggregates", eventID, err)
	}
	defer rows.Close()

	cohort := []domain.BandVoteAggregate{}
	for rows.Next() {
		var agg domain.BandVoteAggregate
		var visuals, noise sql.NullFloat64
		if err := rows.Scan(
			&agg.BandID, &agg.BandName, &agg.Order,
			&agg.AvgSongChoice, &agg.AvgPerformance, &agg.AvgCrowdVibe, &visuals,
			&agg.JudgeVoteCount, &agg.CrowdVoteCount, &agg.TotalCrowdVotes,
			&noise, &agg.EnergyTelemetry, &agg.PeakTelemetry,
		); err != nil {
			return nil, ports.NewStorageError("BandVoteAggregates", eventID, err)
		}
		if visuals.Valid {
			v := visuals.Float64
			agg.AvgVisuals = &v
		}
		if noise.Valid {
			n := noise.Float64
			agg.CrowdNoiseScore = &n
		}
		cohort = append(cohort, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, ports.NewStorageError("BandVoteAggregates", eventID, err)
	}
	return cohort, nil
}

// HasSnapshot implements ports.SnapshotStore.
func (s *Store) HasSnapshot(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM finalized_events WHERE event_id = ?)`,
		eventID,
	).Scan(&exists)
	if err != nil {
		return false, ports.NewSnapshotError(eventID, "HasSnapshot", err)
	}
	return exists, nil
}

// Snapshot implements ports.SnapshotStore, returning frozen rows in
// placement order.
func (s *Store) Snapshot(ctx context.Context, eventID string) ([]domain.FinalizedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var finalizedAtRaw string
	err := s.db.QueryRowContext(ctx,
		`SELECT finalized_at FROM finalized_events WHERE event_id = ?`,
		eventID,
	).Scan(&finalizedAtRaw)
	if err == sql.ErrNoRows {
		return nil, ports.NewSnapshotError(eventID, "Snapshot", ports.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, ports.NewSnapshotError(eventID, "Snapshot", err)
	}
	finalizedAt, err := time.Parse(time.RFC3339Nano, finalizedAtRaw)
	if err != nil {
		return nil, ports.NewSnapshotError(eventID, "Snapshot", fmt.Errorf("corrupt finalized_at %q: %w", finalizedAtRaw, err))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT band_id, band_name, placement,
		       judge_component, crowd_vote_component, supplementary_component, total,
		       is_winner
		FROM finalized_results
		WHERE event_id = ?
		ORDER BY placement`,
		eventID,
	)
	if err != nil {
		return nil, ports.NewSnapshotError(eventID, "Snapshot", err)
	}
	defer rows.Close()

	results := []domain.FinalizedResult{}
	for rows.Next() {
		fr := domain.FinalizedResult{EventID: eventID, FinalizedAt: finalizedAt}
		if err := rows.Scan(
			&fr.BandID, &fr.BandName, &fr.Rank,
			&fr.Breakdown.JudgeComponent, &fr.Breakdown.CrowdVoteComponent,
			&fr.Breakdown.SupplementaryComponent, &fr.Breakdown.Total,
			&fr.IsWinner,
		); err != nil {
			return nil, ports.NewSnapshotError(eventID, "Snapshot", err)
		}
		results = append(results, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, ports.NewSnapshotError(eventID, "Snapshot", err)
	}
	return results, nil
}

// WriteSnapshot implements ports.SnapshotStore. The freeze is one
// transaction: the finalized_events marker row, every result row, and the
// event status flip commit together. The marker's primary key is the
// freeze-once boundary; a concurrent or repeated finalize hits the unique
// constraint, the transaction rolls back, and the caller receives
// ErrSnapshotExists with the original rows left untouched.
func (s *Store) WriteSnapshot(ctx context.Context, eventID string, results []domain.RankedResult, finalizedAt time.Time) ([]domain.FinalizedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, ports.NewSnapshotError(eventID, "WriteSnapshot", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO finalized_events (event_id, finalized_at) VALUES (?, ?)`,
		eventID, finalizedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		if isUniqueViolation(err) {
			return nil, ports.NewSnapshotError(eventID, "WriteSnapshot", ports.ErrSnapshotExists)
		}
		return nil, ports.NewSnapshotError(eventID, "WriteSnapshot", err)
	}

	frozen := make([]domain.FinalizedResult, len(results))
	for i, r := range results {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO finalized_results
				(event_id, band_id, band_name, placement,
				 judge_component, crowd_vote_component, supplementary_component, total,
				 is_winner)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			eventID, r.BandID, r.BandName, r.Rank,
			r.Breakdown.JudgeComponent, r.Breakdown.CrowdVoteComponent,
			r.Breakdown.SupplementaryComponent, r.Breakdown.Total,
			r.IsWinner,
		); err != nil {
			return nil, ports.NewSnapshotError(eventID, "WriteSnapshot", err)
		}
		frozen[i] = domain.FinalizedResult{
			EventID:     eventID,
			BandID:      r.BandID,
			BandName:    r.BandName,
			Rank:        r.Rank,
			Breakdown:   r.Breakdown,
			IsWinner:    r.IsWinner,
			FinalizedAt: finalizedAt.UTC(),
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET status = ? WHERE id = ?`,
		string(domain.StatusFinalized), eventID,
	); err != nil {
		return nil, ports.NewSnapshotError(eventID, "WriteSnapshot", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, ports.NewSnapshotError(eventID, "WriteSnapshot", err)
	}
	return frozen, nil
}

// SaveEvent inserts or updates an event's metadata. The wider platform's
// CRUD layer normally owns these writes; the method exists for embedders
// and tests.
func (s *Store) SaveEvent(ctx context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, name, status, scoring_version, winner_name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			scoring_version = excluded.scoring_version,
			winner_name = excluded.winner_name`,
		ev.ID, ev.Name, string(ev.Status), ev.ScoringVersion, ev.WinnerName,
	)
	if err != nil {
		return ports.NewStorageError("SaveEvent", ev.ID, err)
	}
	return nil
}

// SaveAggregate inserts or updates one band's vote aggregate for an event.
func (s *Store) SaveAggregate(ctx context.Context, eventID string, agg domain.BandVoteAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var visuals, noise any
	if agg.AvgVisuals != nil {
		visuals = *agg.AvgVisuals
	}
	if agg.CrowdNoiseScore != nil {
		noise = *agg.CrowdNoiseScore
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO band_vote_aggregates
			(event_id, band_id, band_name, display_order,
			 avg_song_choice, avg_performance, avg_crowd_vibe, avg_visuals,
			 judge_vote_count, crowd_vote_count, total_crowd_votes,
			 crowd_noise_score, energy_telemetry, peak_telemetry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, band_id) DO UPDATE SET
			band_name = excluded.band_name,
			display_order = excluded.display_order,
			avg_song_choice = excluded.avg_song_choice,
			avg_performance = excluded.avg_performance,
			avg_crowd_vibe = excluded.avg_crowd_vibe,
			avg_visuals = excluded.avg_visuals,
			judge_vote_count = excluded.judge_vote_count,
			crowd_vote_count = excluded.crowd_vote_count,
			total_crowd_votes = excluded.total_crowd_votes,
			crowd_noise_score = excluded.crowd_noise_score,
			energy_telemetry = excluded.energy_telemetry,
			peak_telemetry = excluded.peak_telemetry`,
		eventID, agg.BandID, agg.BandName, agg.Order,
		agg.AvgSongChoice, agg.AvgPerformance, agg.AvgCrowdVibe, visuals,
		agg.JudgeVoteCount, agg.CrowdVoteCount, agg.TotalCrowdVotes,
		noise, agg.EnergyTelemetry, agg.PeakTelemetry,
	)
	if err != nil {
		return ports.NewStorageError("SaveAggregate", eventID, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure. The modernc driver surfaces constraint errors through the error
// string rather than a shared sentinel type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
