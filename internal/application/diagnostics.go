package application

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/bandwagonhq/podium/internal/domain"
)

// minWinnerSimilarity is the similarity floor below which a near-miss is
// considered a coincidence rather than a probable typo.
const minWinnerSimilarity = 0.75

var diagFoldCaser = cases.Fold()

// WinnerDiagnostic reports a probable misspelling in a legacy event's
// stored winner name. It is advisory only, shown on admin tooling so a
// human can correct the stored field; winner resolution itself never uses
// fuzzy matching, so a mismatch keeps yielding no winner until fixed.
type WinnerDiagnostic struct {
	// StoredName is the free-text winner field on the event.
	StoredName string `json:"stored_name"`

	// ClosestBandID identifies the nearest-named band in the cohort.
	ClosestBandID string `json:"closest_band_id"`

	// ClosestBandName is that band's display name.
	ClosestBandName string `json:"closest_band_name"`

	// Distance is the Levenshtein edit distance between the folded
	// stored name and the folded band name.
	Distance int `json:"distance"`

	// Similarity normalizes Distance to [0,1], 1.0 meaning identical.
	Similarity float64 `json:"similarity"`
}

// AuditLegacyWinner inspects a legacy event's stored winner name against
// the cohort and reports the closest near-miss when no band matches
// exactly. It returns nil when the stored name is empty, matches a band,
// or resembles nothing in the cohort.
func AuditLegacyWinner(event domain.Event, cohort []domain.BandVoteAggregate) *WinnerDiagnostic {
	stored := strings.TrimSpace(event.WinnerName)
	if stored == "" || len(cohort) == 0 {
		return nil
	}

	for _, band := range cohort {
		if domain.MatchesWinnerName(band.BandName, stored) {
			return nil
		}
	}

	foldedStored := diagFoldCaser.String(stored)
	best := (*WinnerDiagnostic)(nil)
	for _, band := range cohort {
		folded := diagFoldCaser.String(strings.TrimSpace(band.BandName))
		distance := levenshtein.ComputeDistance(foldedStored, folded)

		// Distance operates on runes, so the similarity denominator
		// must use rune counts for multi-byte names.
		maxLen := utf8.RuneCountInString(foldedStored)
		if n := utf8.RuneCountInString(folded); n > maxLen {
			maxLen = n
		}
		if maxLen == 0 {
			continue
		}
		similarity := 1.0 - float64(distance)/float64(maxLen)

		if best == nil || similarity > best.Similarity {
			best = &WinnerDiagnostic{
				StoredName:      stored,
				ClosestBandID:   band.BandID,
				ClosestBandName: band.BandName,
				Distance:        distance,
				Similarity:      similarity,
			}
		}
	}

	if best == nil || best.Similarity < minWinnerSimilarity {
		return nil
	}
	return best
}
