// Package similarity provides the string-similarity metric used for
// fuzzy name matching. The score is a normalized inverse Levenshtein
// edit distance in [0.0, 1.0], computed over case-folded runes so that
// comparisons are case-insensitive.
//
// Example usage:
//
//	s := similarity.Score("Avoca River at Charlton", "AVOCA RIVER AT D/S CHARLTON")
//	if s >= 0.4 {
//	    // accept as a fuzzy match
//	}
package similarity

import (
	"math"

	"golang.org/x/text/cases"
)

// fold performs Unicode case folding, which is the correct way to do
// caseless comparison across scripts (ToLower mishandles cases like
// the Kelvin sign and Turkish dotless i).
var fold = cases.Fold()

// Score returns the similarity between a and b in [0.0, 1.0].
//
// Identical strings score 1.0, as do strings that are equal after case
// folding. If either string is empty and they are not equal, the score
// is 0.0. Otherwise the score is 1 - d/max(len(a), len(b)) where d is
// the Levenshtein edit distance between the case-folded strings,
// rounded to 4 decimal places.
//
// Score is deterministic, symmetric, and has no side effects.
func Score(a, b string) float64 {
	if a == b {
		return 1.0
	}

	fa := fold.String(a)
	fb := fold.String(b)
	if fa == fb {
		return 1.0
	}
	if fa == "" || fb == "" {
		return 0.0
	}

	ra := []rune(fa)
	rb := []rune(fb)
	dist := levenshtein(ra, rb)

	// max length is nonzero here, the empty case was handled above.
	maxLen := max(len(ra), len(rb))
	return round4(1.0 - float64(dist)/float64(maxLen))
}

// levenshtein computes the edit distance between two rune slices using
// the standard dynamic-programming recurrence over a full
// (len(a)+1) x (len(b)+1) matrix.
func levenshtein(a, b []rune) int {
	la, lb := len(a), len(b)

	dp := make([][]int, la+1)
	for i := range dp {
		dp[i] = make([]int, lb+1)
		dp[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		dp[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1]
				continue
			}
			dp[i][j] = 1 + min(
				dp[i-1][j],   // deletion
				dp[i][j-1],   // insertion
				dp[i-1][j-1], // substitution
			)
		}
	}

	return dp[la][lb]
}

// round4 rounds to 4 decimal places.
func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
