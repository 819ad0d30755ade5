package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// foldCaser performs Unicode case folding for winner name comparison.
// cases.Fold handles multi-byte characters correctly where a naive
// strings.ToLower comparison would not.
var foldCaser = cases.Fold()

// RankCohort orders a cohort and assigns 1-based placements under the given
// rule-set. The returned slice is freshly allocated; the input cohort is
// never mutated.
//
// Detailed rule-sets sort by descending composite total with a deterministic
// tie-break: judge component, then crowd-vote component, then display order,
// then band ID. Every band receives a distinct rank even on exact ties, and
// the rank-1 band is flagged as the winner.
//
// Legacy events carry no structured scores. Bands keep their display order,
// breakdowns stay zero-valued, and the winner is whichever band's name
// matches the free-text winner stored on the event. A mismatch (misspelled
// or renamed band) silently yields no winner; that soft failure is part of
// the legacy data contract and is deliberately not papered over with fuzzy
// matching.
func RankCohort(cohort []BandVoteAggregate, rs RuleSet, legacyWinnerName string) []RankedResult {
	if len(cohort) == 0 {
		return []RankedResult{}
	}
	if !rs.HasDetailedBreakdown() {
		return rankLegacy(cohort, legacyWinnerName)
	}

	results := make([]RankedResult, len(cohort))
	for i, band := range cohort {
		results[i] = RankedResult{
			BandID:    band.BandID,
			BandName:  band.BandName,
			Breakdown: ComputeBreakdown(band, cohort, rs),
		}
	}

	// Display order and band ID are carried alongside for tie-breaking
	// only; they keep the sort total even when breakdowns are identical.
	order := make(map[string]int, len(cohort))
	for _, band := range cohort {
		order[band.BandID] = band.Order
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Breakdown.Total != b.Breakdown.Total {
			return a.Breakdown.Total > b.Breakdown.Total
		}
		if a.Breakdown.JudgeComponent != b.Breakdown.JudgeComponent {
			return a.Breakdown.JudgeComponent > b.Breakdown.JudgeComponent
		}
		if a.Breakdown.CrowdVoteComponent != b.Breakdown.CrowdVoteComponent {
			return a.Breakdown.CrowdVoteComponent > b.Breakdown.CrowdVoteComponent
		}
		if order[a.BandID] != order[b.BandID] {
			return order[a.BandID] < order[b.BandID]
		}
		return a.BandID < b.BandID
	})

	for i := range results {
		results[i].Rank = i + 1
		results[i].IsWinner = i == 0
	}
	return results
}

// rankLegacy preserves the cohort's display order and resolves the winner
// by stored-name equality alone.
func rankLegacy(cohort []BandVoteAggregate, winnerName string) []RankedResult {
	ordered := make([]BandVoteAggregate, len(cohort))
	copy(ordered, cohort)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order < ordered[j].Order
		}
		return ordered[i].BandID < ordered[j].BandID
	})

	results := make([]RankedResult, len(ordered))
	for i, band := range ordered {
		results[i] = RankedResult{
			BandID:   band.BandID,
			BandName: band.BandName,
			Rank:     i + 1,
			IsWinner: MatchesWinnerName(band.BandName, winnerName),
		}
	}
	return results
}

// MatchesWinnerName reports whether a band name equals the stored legacy
// winner field. Comparison trims surrounding whitespace and applies Unicode
// case folding; an empty stored name never matches.
func MatchesWinnerName(bandName, storedName string) bool {
	stored := strings.TrimSpace(storedName)
	if stored == "" {
		return false
	}
	return foldCaser.String(strings.TrimSpace(bandName)) == foldCaser.String(stored)
}
