// Package reconcile pairs geospatial features with link-table rows
// using a cascading, uniqueness-preserving matching algorithm. The
// cascade runs three sequential full passes over the feature
// collection, strongest signal first: exact identifier, substring
// identifier, then fuzzy name similarity. A shared used-set guarantees
// that a row is assigned to at most one feature across all tiers, and
// each tier exhausts its candidates over the whole collection before
// the next tier begins.
package reconcile

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/riverlabs/gaugelink/pkg/errors"
	"github.com/riverlabs/gaugelink/pkg/geojson"
	"github.com/riverlabs/gaugelink/pkg/linktable"
	"github.com/riverlabs/gaugelink/pkg/logging"
)

// DefaultThreshold is the minimum similarity at which a fuzzy name
// candidate is accepted.
const DefaultThreshold = 0.4

// Engine executes the matching cascade. It is a pure transformation of
// (features, index) into (annotated features, records, used-set) with
// no I/O mid-algorithm; a single Engine must not reconcile the same
// collection concurrently.
type Engine struct {
	threshold  float64
	strategies []Strategy
	logger     *zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// New creates an Engine with options. Without options it runs the
// standard three-tier cascade at DefaultThreshold.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		threshold: DefaultThreshold,
		logger:    logging.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.strategies == nil {
		e.strategies = DefaultStrategies(e.threshold)
	}

	return e, nil
}

// WithThreshold sets the fuzzy acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(e *Engine) error {
		if threshold < 0.0 || threshold > 1.0 {
			return errors.NewValidationError("threshold", threshold, "must be in [0.0, 1.0]")
		}
		e.threshold = threshold
		return nil
	}
}

// WithStrategies replaces the tier pipeline. Strategies run in the
// given order, each as a complete pass over the collection.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Engine) error {
		if len(strategies) == 0 {
			return errors.NewValidationError("strategies", nil, "at least one strategy required")
		}
		e.strategies = strategies
		return nil
	}
}

// WithLogger sets the logger used for per-feature diagnostics.
func WithLogger(logger *zerolog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return errors.NewValidationError("logger", nil, "logger cannot be nil")
		}
		e.logger = logger
		return nil
	}
}

// Reconcile annotates matched features with their row's link and
// returns one record per processed feature. The collection is mutated
// in place (properties.source only); everything else passes through
// unchanged.
func (e *Engine) Reconcile(coll *geojson.Collection, idx *linktable.Index) (*Result, error) {
	start := time.Now()

	used := NewUsedSet()
	matched := make(map[int]struct{}, coll.Len())
	records := make([]MatchRecord, 0, coll.Len())
	skipped := 0

	// Each tier performs a complete pass in original feature order
	// before the next tier begins; a feature is never revisited once
	// matched.
	for _, strategy := range e.strategies {
		for _, f := range coll.Features() {
			if _, done := matched[f.Index]; done {
				continue
			}
			if !f.HasProperties {
				continue
			}

			row, score, ok := strategy.Match(f, idx, used)
			if !ok {
				continue
			}

			link := idx.Row(row).Link
			if err := coll.SetSource(f.Index, link); err != nil {
				return nil, err
			}

			used.Use(row)
			matched[f.Index] = struct{}{}
			records = append(records, e.record(strategy.Tier(), f, idx, row, score))

			e.logger.Debug().
				Str("tier", strategy.Tier().String()).
				Str("feature_name", f.Name).
				Str("row_id", idx.Row(row).ID).
				Float64("score", score).
				Msg("Feature matched")
		}
	}

	// Final pass: report what remains. Features without properties
	// are skipped, not failed; features missing id or name were still
	// processed through whatever tiers applied.
	for _, f := range coll.Features() {
		if !f.HasProperties {
			skipped++
			continue
		}
		if _, done := matched[f.Index]; done {
			continue
		}

		if !f.HasID {
			e.logger.Debug().
				Int("feature", f.Index).
				Str("feature_name", f.Name).
				Msg("Feature has no id property, id tiers skipped")
		}
		records = append(records, e.record(TierUnmatched, f, idx, -1, 0))
	}

	end := time.Now()
	return &Result{
		Records: records,
		Used:    used,
		Metadata: Metadata{
			Start:     start,
			End:       end,
			Duration:  end.Sub(start),
			Features:  coll.Len(),
			Rows:      idx.Len(),
			Skipped:   skipped,
			Threshold: e.threshold,
		},
	}, nil
}

// record builds the MatchRecord for one feature outcome.
func (e *Engine) record(tier Tier, f geojson.Feature, idx *linktable.Index, row int, score float64) MatchRecord {
	rec := MatchRecord{
		Tier:         tier,
		FeatureIndex: f.Index,
		FeatureName:  f.Name,
		FeatureID:    trimmedID(f),
		RowIndex:     -1,
	}
	if row >= 0 {
		r := idx.Row(row)
		rec.RowIndex = row
		rec.RowName = r.Name
		rec.RowID = r.ID
		rec.RowLink = r.Link
		rec.Score = score
	}
	return rec
}

// trimmedID returns the feature id as reported: trimmed, empty when
// the property is absent.
func trimmedID(f geojson.Feature) string {
	if !f.HasID {
		return ""
	}
	return strings.TrimSpace(f.ID)
}
