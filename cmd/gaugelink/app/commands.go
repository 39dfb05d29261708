package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riverlabs/gaugelink"
	"github.com/riverlabs/gaugelink/internal/report"
)

// NewReconcileCommand creates the reconcile command, the one-shot
// batch transformation at the heart of the tool.
func (a *App) NewReconcileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Annotate station features with their collected links",
		Long: `Reconcile loads the link table and the feature collection, runs the
three-tier matching cascade, writes the annotated collection, and emits
the audit report and spreadsheet summary.

Parse failures on either input are fatal and abort before any output
file is written.`,
		RunE: a.runReconcile,
	}

	cmd.Flags().StringVar(&a.config.LinksPath, "links", a.config.LinksPath, "link table CSV (columns name,id,link)")
	cmd.Flags().StringVar(&a.config.FeaturesPath, "features", a.config.FeaturesPath, "feature collection GeoJSON")
	cmd.Flags().StringVar(&a.config.OutputPath, "output", a.config.OutputPath, "annotated feature collection output")
	cmd.Flags().StringVar(&a.config.AuditPath, "audit", a.config.AuditPath, "audit report output (empty to disable)")
	cmd.Flags().StringVar(&a.config.WorkbookPath, "workbook", a.config.WorkbookPath, "spreadsheet summary output (empty to disable)")
	cmd.Flags().StringVar(&a.config.StatsPath, "stats", a.config.StatsPath, "YAML run stats output (empty to disable)")
	cmd.Flags().Float64Var(&a.config.Threshold, "threshold", a.config.Threshold, "fuzzy name acceptance threshold")

	return cmd
}

// runReconcile executes the full pipeline and prints the tier summary.
func (a *App) runReconcile(cmd *cobra.Command, _ []string) error {
	cfg := a.config

	res, err := gaugelink.Run(
		gaugelink.WithLinks(cfg.LinksPath),
		gaugelink.WithFeatures(cfg.FeaturesPath),
		gaugelink.WithOutput(cfg.OutputPath),
		gaugelink.WithAudit(cfg.AuditPath),
		gaugelink.WithWorkbook(cfg.WorkbookPath),
		gaugelink.WithStats(cfg.StatsPath),
		gaugelink.WithThreshold(cfg.Threshold),
		gaugelink.WithLogger(a.Logger()),
	)
	if err != nil {
		return err
	}

	return report.RenderSummary(cmd.OutOrStdout(), res)
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gaugelink %s (commit %s, built %s)\n", a.version, a.commit, a.date)
		},
	}
}
