package domain

import (
	"strings"
)

// RuleSet identifies one versioned formula for combining judge, crowd, and
// supplementary signals into a 0-100 composite total. The set is closed:
// downstream code switches on these constants and never on raw metadata
// strings.
type RuleSet string

const (
	// RuleSetLegacy covers events created before structured scoring
	// existed. No per-criterion scores are trusted; the winner is an
	// opaque name stored on the event.
	RuleSetLegacy RuleSet = "legacy"

	// RuleSetCrowdNoise scores song choice (20) + performance (30) +
	// crowd vibe (30) from judges, crowd votes (10), and a decibel-meter
	// crowd-noise measurement (10).
	RuleSetCrowdNoise RuleSet = "crowd-noise"

	// RuleSetVisualPresentation scores song choice (20) + performance
	// (30) + crowd vibe (20) from judges, crowd votes (10), and a judged
	// visual-presentation criterion (20).
	RuleSetVisualPresentation RuleSet = "visual-presentation"
)

// Component maxima per rule-set. Each rule-set's maxima sum to exactly 100,
// which is what keeps composite totals within [0,100].
const (
	// MaxCrowdVoteComponent caps the cohort-normalized crowd vote score.
	MaxCrowdVoteComponent = 10.0

	// MaxCrowdNoiseComponent caps the crowd-noise measurement.
	MaxCrowdNoiseComponent = 10.0

	// MaxVisualsComponent caps the judged visual-presentation criterion.
	MaxVisualsComponent = 20.0
)

// ResolveRuleSet maps a free-form scoring version identifier from event
// metadata onto the closed rule-set enum. It is a total function: empty,
// unknown, or malformed identifiers resolve to RuleSetLegacy, protecting
// events created before structured scoring existed.
func ResolveRuleSet(identifier string) RuleSet {
	switch RuleSet(strings.ToLower(strings.TrimSpace(identifier))) {
	case RuleSetCrowdNoise:
		return RuleSetCrowdNoise
	case RuleSetVisualPresentation:
		return RuleSetVisualPresentation
	default:
		return RuleSetLegacy
	}
}

// HasDetailedBreakdown reports whether per-criterion composition is
// meaningful for this rule-set. Legacy events have no structured scores, so
// displaying a breakdown for them would fabricate data.
func (rs RuleSet) HasDetailedBreakdown() bool {
	return rs == RuleSetCrowdNoise || rs == RuleSetVisualPresentation
}

// String returns the canonical identifier for the rule-set.
func (rs RuleSet) String() string { return string(rs) }
