package domain

// ComputeBreakdown composes one band's score components under the given
// rule-set, using the full cohort as normalization context. It is pure and
// deterministic: identical inputs yield bit-identical output, and the cohort
// slice is never mutated.
//
// The crowd-vote component is cohort-relative: it divides the band's vote
// count by the cohort's peak per-band count, not by the event-wide total.
// A band's score therefore changes when a sibling's vote count changes,
// which is why results must always be computed over a coherent cohort
// snapshot and never cached per band.
//
// Numeric edge cases are absorbed here, never raised:
//   - a cohort peak of zero votes scores every band's crowd component 0,
//   - a missing crowd-noise or visuals measurement scores 0 on that axis
//     only, leaving the other components untouched.
//
// Under RuleSetLegacy every component is defined as 0; legacy events never
// compute a structured breakdown.
func ComputeBreakdown(band BandVoteAggregate, cohort []BandVoteAggregate, rs RuleSet) ScoreBreakdown {
	switch rs {
	case RuleSetCrowdNoise:
		return composeCrowdNoise(band, cohort)
	case RuleSetVisualPresentation:
		return composeVisualPresentation(band, cohort)
	default:
		return ScoreBreakdown{}
	}
}

// composeCrowdNoise applies the crowd-noise formula: judges contribute song
// choice (20) + performance (30) + crowd vibe (30) = 80, crowd votes 10,
// and the noise measurement 10.
func composeCrowdNoise(band BandVoteAggregate, cohort []BandVoteAggregate) ScoreBreakdown {
	judge := band.AvgSongChoice + band.AvgPerformance + band.AvgCrowdVibe
	crowd := crowdVoteComponent(band, cohort)

	var noise float64
	if band.CrowdNoiseScore != nil {
		noise = *band.CrowdNoiseScore
	}

	return ScoreBreakdown{
		JudgeComponent:         judge,
		CrowdVoteComponent:     crowd,
		SupplementaryComponent: noise,
		Total:                  judge + crowd + noise,
	}
}

// composeVisualPresentation applies the visual-presentation formula: judges
// contribute song choice (20) + performance (30) + crowd vibe (20) = 70,
// crowd votes 10, and the judged visuals criterion 20 as the supplementary
// axis.
func composeVisualPresentation(band BandVoteAggregate, cohort []BandVoteAggregate) ScoreBreakdown {
	judge := band.AvgSongChoice + band.AvgPerformance + band.AvgCrowdVibe
	crowd := crowdVoteComponent(band, cohort)

	var visuals float64
	if band.AvgVisuals != nil {
		visuals = *band.AvgVisuals
	}

	return ScoreBreakdown{
		JudgeComponent:         judge,
		CrowdVoteComponent:     crowd,
		SupplementaryComponent: visuals,
		Total:                  judge + crowd + visuals,
	}
}

// crowdVoteComponent normalizes a band's crowd vote count against the
// cohort's peak count, scaled to MaxCrowdVoteComponent. When nobody in the
// cohort received a vote the component is 0 for every band; no band may be
// penalized or rewarded when nobody voted, and no division happens.
func crowdVoteComponent(band BandVoteAggregate, cohort []BandVoteAggregate) float64 {
	peak := 0
	for _, b := range cohort {
		if b.CrowdVoteCount > peak {
			peak = b.CrowdVoteCount
		}
	}
	if peak == 0 {
		return 0
	}
	return float64(band.CrowdVoteCount) / float64(peak) * MaxCrowdVoteComponent
}
