// Package domain contains pure, dependency-free models and scoring logic
// for the competition results engine.
package domain

import (
	"time"
)

// EventStatus describes where an event sits in its lifecycle.
// Results become publicly visible only once an event is finalized.
type EventStatus string

const (
	// StatusUpcoming marks an event that has not opened voting yet.
	StatusUpcoming EventStatus = "upcoming"

	// StatusVoting marks an event that is actively collecting votes.
	// Results computed during this phase are transient previews.
	StatusVoting EventStatus = "voting"

	// StatusFinalized marks an event whose results have been frozen.
	// A finalized event is expected, but not guaranteed, to have a
	// durable result snapshot.
	StatusFinalized EventStatus = "finalized"
)

// Event carries the metadata the engine needs about a single competition
// event. The scoring version identifier is free-form text written by admins
// over several years of shows; anything unrecognized resolves to the legacy
// rule-set.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id" validate:"required"`

	// Name is the human-readable event title.
	Name string `json:"name"`

	// Status is the event's lifecycle state.
	Status EventStatus `json:"status" validate:"required,oneof=upcoming voting finalized"`

	// ScoringVersion is the free-form rule-set identifier stored on the
	// event. Empty or unrecognized values mean legacy scoring.
	ScoringVersion string `json:"scoring_version,omitempty"`

	// WinnerName is the free-text winner field used by legacy events.
	// It is matched against band names at ranking time; a mismatch
	// silently yields no winner.
	WinnerName string `json:"winner_name,omitempty"`
}

// BandVoteAggregate holds the already-averaged vote metrics for one band in
// one event, as supplied by the storage layer. The engine never re-derives
// averages from raw vote rows; it only composes and normalizes them.
type BandVoteAggregate struct {
	// BandID uniquely identifies the band within the event.
	BandID string `json:"band_id" validate:"required"`

	// BandName is the band's display name, also used for legacy winner
	// matching.
	BandName string `json:"band_name" validate:"required"`

	// Order is the band's display position in the running order.
	Order int `json:"order" validate:"min=0"`

	// AvgSongChoice is the mean judge score for song choice, 0-20.
	AvgSongChoice float64 `json:"avg_song_choice" validate:"min=0,max=20"`

	// AvgPerformance is the mean judge score for performance, 0-30.
	AvgPerformance float64 `json:"avg_performance" validate:"min=0,max=30"`

	// AvgCrowdVibe is the mean judge score for crowd vibe. Its ceiling is
	// 30 under crowd-noise scoring and 20 under visual-presentation
	// scoring; the tag admits the larger range.
	AvgCrowdVibe float64 `json:"avg_crowd_vibe" validate:"min=0,max=30"`

	// AvgVisuals is the mean judge score for visual presentation, 0-20.
	// It is only recorded under the visual-presentation rule-set; nil
	// contributes zero on that axis.
	AvgVisuals *float64 `json:"avg_visuals,omitempty" validate:"omitempty,min=0,max=20"`

	// JudgeVoteCount is how many judge ballots fed the averages.
	JudgeVoteCount int `json:"judge_vote_count" validate:"min=0"`

	// CrowdVoteCount is how many crowd votes this band received.
	CrowdVoteCount int `json:"crowd_vote_count" validate:"min=0"`

	// TotalCrowdVotes is the event-wide crowd vote denominator. It is
	// carried for display; crowd normalization uses the cohort's peak
	// per-band count instead.
	TotalCrowdVotes int `json:"total_crowd_votes" validate:"min=0,gtefield=CrowdVoteCount"`

	// CrowdNoiseScore is the decibel-meter derived score, 0-10. It is
	// only recorded under the crowd-noise rule-set; nil contributes zero
	// on that axis.
	CrowdNoiseScore *float64 `json:"crowd_noise_score,omitempty" validate:"omitempty,min=0,max=10"`

	// EnergyTelemetry and PeakTelemetry are raw noise-meter readings kept
	// for display only. They never enter the composite total.
	EnergyTelemetry float64 `json:"energy_telemetry,omitempty"`
	PeakTelemetry   float64 `json:"peak_telemetry,omitempty"`
}

// ScoreBreakdown is the per-band component decomposition of a composite
// score. It is derived on demand and only persisted as part of a finalized
// snapshot.
type ScoreBreakdown struct {
	// JudgeComponent is the sum of the rule-set's active judge criteria.
	JudgeComponent float64 `json:"judge_component"`

	// CrowdVoteComponent is the cohort-normalized crowd vote score, 0-10.
	CrowdVoteComponent float64 `json:"crowd_vote_component"`

	// SupplementaryComponent is the rule-set specific extra axis:
	// crowd-noise measurement or judged visuals. Zero for legacy.
	SupplementaryComponent float64 `json:"supplementary_component"`

	// Total is the composite score, always within [0,100].
	Total float64 `json:"total"`
}

// RankedResult is one band's placement within a ranked cohort.
type RankedResult struct {
	// BandID identifies the band.
	BandID string `json:"band_id"`

	// BandName is the band's display name at ranking time.
	BandName string `json:"band_name"`

	// Rank is the 1-based placement, 1 being best. Every band in a
	// cohort receives a distinct rank, ties included.
	Rank int `json:"rank"`

	// Breakdown is the component decomposition behind the placement.
	// It is zero-valued for legacy events, which carry no structured
	// scores.
	Breakdown ScoreBreakdown `json:"breakdown"`

	// IsWinner marks the competition winner: rank 1 under detailed
	// rule-sets, or a stored-name match under legacy.
	IsWinner bool `json:"is_winner"`
}

// FinalizedResult is a frozen copy of one band's RankedResult, written
// exactly once when an event is finalized and immutable thereafter.
type FinalizedResult struct {
	// EventID identifies the finalized event.
	EventID string `json:"event_id"`

	// BandID identifies the band.
	BandID string `json:"band_id"`

	// BandName is the band's name at the moment of finalization.
	BandName string `json:"band_name"`

	// Rank is the frozen placement.
	Rank int `json:"rank"`

	// Breakdown is the frozen component decomposition.
	Breakdown ScoreBreakdown `json:"breakdown"`

	// IsWinner is the frozen winner flag.
	IsWinner bool `json:"is_winner"`

	// FinalizedAt records when the freeze happened.
	FinalizedAt time.Time `json:"finalized_at"`
}

// Ranked converts the frozen row back into the RankedResult it was copied
// from, for callers that render live and frozen results uniformly.
func (f FinalizedResult) Ranked() RankedResult {
	return RankedResult{
		BandID:    f.BandID,
		BandName:  f.BandName,
		Rank:      f.Rank,
		Breakdown: f.Breakdown,
		IsWinner:  f.IsWinner,
	}
}
