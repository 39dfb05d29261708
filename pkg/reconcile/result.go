package reconcile

import "time"

// MatchRecord is the outcome of reconciling one feature.
type MatchRecord struct {
	// Tier that resolved the feature, or TierUnmatched.
	Tier Tier

	// FeatureIndex is the feature's position in the collection.
	FeatureIndex int

	// FeatureName and FeatureID identify the feature as sourced,
	// the id trimmed of surrounding whitespace.
	FeatureName string
	FeatureID   string

	// RowIndex is the matched link-table row, -1 when unmatched.
	RowIndex int

	// RowName, RowID and RowLink describe the matched row.
	RowName string
	RowID   string
	RowLink string

	// Score is the similarity achieved, set only for the fuzzy tier.
	Score float64
}

// Matched reports whether the feature was resolved by any tier.
func (r MatchRecord) Matched() bool {
	return r.Tier != TierUnmatched
}

// Confident reports whether the feature was resolved by an id tier.
// Fuzzy-name matches carry uncertainty and are reported separately
// by the downstream summary.
func (r MatchRecord) Confident() bool {
	return r.Tier == TierExactID || r.Tier == TierPartialID
}

// Metadata describes one reconciliation run.
type Metadata struct {
	// Start and End bound the run; Duration is their difference.
	Start    time.Time
	End      time.Time
	Duration time.Duration

	// Features and Rows are the input sizes.
	Features int
	Rows     int

	// Skipped counts features passed through because they carry no
	// properties object.
	Skipped int

	// Threshold is the fuzzy acceptance threshold used.
	Threshold float64
}

// Result is the outcome of a reconciliation run: one record per
// processed feature plus the final used-set.
type Result struct {
	// Records in emission order: grouped by tier in cascade order,
	// unmatched features last, original feature order within each
	// group.
	Records []MatchRecord

	// Used is the final set of consumed row indices.
	Used UsedSet

	// Metadata about the run.
	Metadata Metadata
}

// ByTier returns the records resolved at the given tier, in emission
// order.
func (r *Result) ByTier(tier Tier) []MatchRecord {
	var out []MatchRecord
	for _, rec := range r.Records {
		if rec.Tier == tier {
			out = append(out, rec)
		}
	}
	return out
}

// Count returns the number of records at the given tier.
func (r *Result) Count(tier Tier) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Tier == tier {
			n++
		}
	}
	return n
}

// Matched returns all records resolved by any tier.
func (r *Result) Matched() []MatchRecord {
	var out []MatchRecord
	for _, rec := range r.Records {
		if rec.Matched() {
			out = append(out, rec)
		}
	}
	return out
}
