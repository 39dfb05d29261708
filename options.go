package gaugelink

import (
	"github.com/rs/zerolog"

	"github.com/riverlabs/gaugelink/pkg/errors"
	"github.com/riverlabs/gaugelink/pkg/logging"
	"github.com/riverlabs/gaugelink/pkg/reconcile"
)

// Option is a function that configures a pipeline run
type Option func(*config) error

// config holds the resolved settings for a pipeline run
type config struct {
	linksPath    string
	featuresPath string
	outputPath   string
	auditPath    string
	workbookPath string
	statsPath    string
	threshold    float64
	logger       *zerolog.Logger
}

// defaultConfig returns the default run configuration
func defaultConfig() *config {
	return &config{
		threshold: reconcile.DefaultThreshold,
		logger:    logging.Default(),
	}
}

// WithLinks sets the link table CSV path. Required.
func WithLinks(path string) Option {
	return func(c *config) error {
		c.linksPath = path
		return nil
	}
}

// WithFeatures sets the feature collection GeoJSON path. Required.
func WithFeatures(path string) Option {
	return func(c *config) error {
		c.featuresPath = path
		return nil
	}
}

// WithOutput sets the annotated feature collection output path. Required.
func WithOutput(path string) Option {
	return func(c *config) error {
		c.outputPath = path
		return nil
	}
}

// WithAudit sets the audit report output path. Empty disables the report.
func WithAudit(path string) Option {
	return func(c *config) error {
		c.auditPath = path
		return nil
	}
}

// WithWorkbook sets the spreadsheet summary output path. Empty disables
// the spreadsheet.
func WithWorkbook(path string) Option {
	return func(c *config) error {
		c.workbookPath = path
		return nil
	}
}

// WithStats sets the YAML run stats output path. Empty disables the
// stats sidecar.
func WithStats(path string) Option {
	return func(c *config) error {
		c.statsPath = path
		return nil
	}
}

// WithThreshold sets the fuzzy name acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(c *config) error {
		if threshold < 0 || threshold > 1 {
			return errors.NewValidationError("threshold", threshold, "must be between 0 and 1")
		}
		c.threshold = threshold
		return nil
	}
}

// WithLogger sets the logger used during the run.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return errors.NewValidationError("logger", nil, "must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// options applies the given options to the config
func (c *config) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// validate checks that the required paths are set
func (c *config) validate() error {
	if c.linksPath == "" {
		return errors.NewValidationError("links", "", "path is required")
	}
	if c.featuresPath == "" {
		return errors.NewValidationError("features", "", "path is required")
	}
	if c.outputPath == "" {
		return errors.NewValidationError("output", "", "path is required")
	}
	return nil
}
