package report

import (
	"io"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/riverlabs/gaugelink/pkg/linktable"
	"github.com/riverlabs/gaugelink/pkg/reconcile"
)

// Stats is the machine-readable summary of one reconciliation run.
type Stats struct {
	GeneratedAt     time.Time `yaml:"generated_at"`
	Features        int       `yaml:"features"`
	Rows            int       `yaml:"rows"`
	DuplicateRowIDs []string  `yaml:"duplicate_row_ids,omitempty"`
	Threshold       float64   `yaml:"threshold"`
	DurationMs      int64     `yaml:"duration_ms"`
	Matches         Counts    `yaml:"matches"`
}

// Counts holds the per-tier outcome totals.
type Counts struct {
	ExactID   int `yaml:"exact_id"`
	PartialID int `yaml:"partial_id"`
	FuzzyName int `yaml:"fuzzy_name"`
	Unmatched int `yaml:"unmatched"`
	Skipped   int `yaml:"skipped"`
}

// BuildStats assembles run statistics from the engine result and the
// link index. The index contributes the duplicate-id diagnostics.
func BuildStats(res *reconcile.Result, idx *linktable.Index, generated time.Time) Stats {
	return Stats{
		GeneratedAt:     generated,
		Features:        res.Metadata.Features,
		Rows:            res.Metadata.Rows,
		DuplicateRowIDs: idx.Duplicates(),
		Threshold:       res.Metadata.Threshold,
		DurationMs:      res.Metadata.Duration.Milliseconds(),
		Matches: Counts{
			ExactID:   res.Count(reconcile.TierExactID),
			PartialID: res.Count(reconcile.TierPartialID),
			FuzzyName: res.Count(reconcile.TierFuzzyName),
			Unmatched: res.Count(reconcile.TierUnmatched),
			Skipped:   res.Metadata.Skipped,
		},
	}
}

// WriteStats writes the stats as YAML.
func WriteStats(w io.Writer, s Stats) error {
	data, err := yaml.MarshalWithOptions(s, yaml.Indent(2))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
