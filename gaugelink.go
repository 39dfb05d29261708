// Package gaugelink reconciles a collected table of monitoring-station
// links against a GeoJSON feature collection and annotates each matched
// feature with its link.
//
// Matching runs as a cascade of tiers: exact station id, partial station
// id, then fuzzy name similarity. Each link table row is consumed by at
// most one feature.
package gaugelink

import (
	"os"
	"time"

	"github.com/riverlabs/gaugelink/internal/report"
	"github.com/riverlabs/gaugelink/pkg/errors"
	"github.com/riverlabs/gaugelink/pkg/geojson"
	"github.com/riverlabs/gaugelink/pkg/linktable"
	"github.com/riverlabs/gaugelink/pkg/reconcile"
)

// Run executes the full reconciliation pipeline: load both inputs, run
// the matching cascade, write the annotated collection, and emit the
// configured reports. Both inputs must parse before any output file is
// written, so a malformed input never leaves partial results behind.
func Run(opts ...Option) (*reconcile.Result, error) {
	cfg := defaultConfig()
	if err := cfg.options(opts...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.logger

	idx, err := linktable.Load(cfg.linksPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.linksPath).Int("rows", idx.Len()).
		Int("duplicate_ids", len(idx.Duplicates())).Msg("Loaded link table")

	coll, err := geojson.Load(cfg.featuresPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.featuresPath).Int("features", coll.Len()).Msg("Loaded feature collection")

	engine, err := reconcile.New(
		reconcile.WithThreshold(cfg.threshold),
		reconcile.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	res, err := engine.Reconcile(coll, idx)
	if err != nil {
		return nil, err
	}

	generated := time.Now()

	if err := coll.Write(cfg.outputPath); err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.outputPath).Msg("Wrote annotated feature collection")

	if cfg.auditPath != "" {
		if err := writeAudit(cfg.auditPath, res, generated); err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.auditPath).Msg("Wrote audit report")
	}

	if cfg.workbookPath != "" {
		if err := report.WriteWorkbook(cfg.workbookPath, res); err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.workbookPath).Msg("Wrote spreadsheet summary")
	}

	if cfg.statsPath != "" {
		if err := writeStats(cfg.statsPath, report.BuildStats(res, idx, generated)); err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.statsPath).Msg("Wrote run stats")
	}

	return res, nil
}

// writeAudit writes the audit report to path.
func writeAudit(path string, res *reconcile.Result, generated time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := report.WriteAudit(f, res, generated); err != nil {
		f.Close() //nolint:errcheck,gosec // best effort on error path
		return errors.WrapIO("write", path, err)
	}
	return f.Close()
}

// writeStats writes the YAML run stats to path.
func writeStats(path string, stats report.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := report.WriteStats(f, stats); err != nil {
		f.Close() //nolint:errcheck,gosec // best effort on error path
		return errors.WrapIO("write", path, err)
	}
	return f.Close()
}
