package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/riverlabs/gaugelink/pkg/reconcile"
)

// RenderSummary renders a per-tier count table for terminal output.
func RenderSummary(w io.Writer, res *reconcile.Result) error {
	table := tablewriter.NewTable(w)
	table.Header("Tier", "Features")

	rows := [][]string{
		{reconcile.TierExactID.String(), strconv.Itoa(res.Count(reconcile.TierExactID))},
		{reconcile.TierPartialID.String(), strconv.Itoa(res.Count(reconcile.TierPartialID))},
		{reconcile.TierFuzzyName.String(), strconv.Itoa(res.Count(reconcile.TierFuzzyName))},
		{reconcile.TierUnmatched.String(), strconv.Itoa(res.Count(reconcile.TierUnmatched))},
		{"skipped", strconv.Itoa(res.Metadata.Skipped)},
	}
	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return err
		}
	}

	return table.Render()
}
