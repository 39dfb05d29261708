package reconcile

import (
	"strings"

	"github.com/riverlabs/gaugelink/pkg/geojson"
	"github.com/riverlabs/gaugelink/pkg/linktable"
	"github.com/riverlabs/gaugelink/pkg/similarity"
)

// Tier identifies one matching strategy in the cascade.
type Tier string

// Cascade tiers, strongest signal first.
const (
	TierExactID   Tier = "exact-id"
	TierPartialID Tier = "partial-id"
	TierFuzzyName Tier = "fuzzy-name"
	TierUnmatched Tier = "unmatched"
)

// String returns the string representation of a tier.
func (t Tier) String() string {
	return string(t)
}

// UsedSet tracks link-table row indices already consumed by a match.
// A row may be assigned to at most one feature across all tiers, so
// the set is shared by every pass of a reconciliation run and only
// grows.
type UsedSet map[int]struct{}

// NewUsedSet returns an empty UsedSet.
func NewUsedSet() UsedSet {
	return make(UsedSet)
}

// Use marks row index i as consumed.
func (u UsedSet) Use(i int) {
	u[i] = struct{}{}
}

// Used reports whether row index i has been consumed.
func (u UsedSet) Used(i int) bool {
	_, ok := u[i]
	return ok
}

// Len returns the number of consumed rows.
func (u UsedSet) Len() int {
	return len(u)
}

// Strategy is one tier of the matching cascade. Strategies share a
// signature so the engine can run them as an ordered pipeline and new
// tiers can be inserted without touching the loop structure.
type Strategy interface {
	// Tier returns the tier this strategy implements.
	Tier() Tier

	// Match selects an unused link-table row for the feature, or
	// reports that no candidate qualifies. The score is meaningful
	// only for scored tiers and is zero otherwise.
	Match(f geojson.Feature, idx *linktable.Index, used UsedSet) (row int, score float64, ok bool)
}

// DefaultStrategies returns the standard three-tier cascade:
// exact id, partial id, then fuzzy name at the given threshold.
func DefaultStrategies(threshold float64) []Strategy {
	return []Strategy{
		exactIDStrategy{},
		partialIDStrategy{},
		fuzzyNameStrategy{threshold: threshold},
	}
}

// exactIDStrategy matches a feature whose trimmed id is an exact key
// of the link-table lookup.
type exactIDStrategy struct{}

func (exactIDStrategy) Tier() Tier { return TierExactID }

func (exactIDStrategy) Match(f geojson.Feature, idx *linktable.Index, used UsedSet) (int, float64, bool) {
	if !f.HasID {
		return 0, 0, false
	}

	row, ok := idx.Lookup(strings.TrimSpace(f.ID))
	if !ok || used.Used(row) {
		return 0, 0, false
	}
	return row, 0, true
}

// partialIDStrategy matches the first unused row whose id is a
// substring of the feature's trimmed id. First-found-in-row-order
// wins; the tier has no scoring.
type partialIDStrategy struct{}

func (partialIDStrategy) Tier() Tier { return TierPartialID }

func (partialIDStrategy) Match(f geojson.Feature, idx *linktable.Index, used UsedSet) (int, float64, bool) {
	if !f.HasID {
		return 0, 0, false
	}

	featureID := strings.TrimSpace(f.ID)
	for i, row := range idx.Rows() {
		if used.Used(i) {
			continue
		}
		if strings.Contains(featureID, row.ID) {
			return i, 0, true
		}
	}
	return 0, 0, false
}

// fuzzyNameStrategy matches the unused row whose name scores strictly
// highest against the feature's name, accepted at or above the
// threshold. Ties break to the earliest row index since only a
// strictly greater score replaces the current best.
type fuzzyNameStrategy struct {
	threshold float64
}

func (fuzzyNameStrategy) Tier() Tier { return TierFuzzyName }

func (s fuzzyNameStrategy) Match(f geojson.Feature, idx *linktable.Index, used UsedSet) (int, float64, bool) {
	// A feature without a name scores 0.0 against any nonempty row
	// name and must not pair with rows that also lack one, so it is
	// always reported unmatched.
	if f.Name == "" {
		return 0, 0, false
	}

	best := -1
	bestScore := 0.0
	for i, row := range idx.Rows() {
		if used.Used(i) {
			continue
		}
		if score := similarity.Score(f.Name, row.Name); score > bestScore {
			bestScore = score
			best = i
		}
	}

	if best < 0 || bestScore < s.threshold {
		return 0, 0, false
	}
	return best, bestScore, true
}
