// Package report holds the external-facing sinks for reconciliation
// results: the human-readable audit log, the spreadsheet summary, the
// terminal table and the machine-readable run stats. The emitters
// consume match records only; none of them holds matching logic.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/riverlabs/gaugelink/pkg/reconcile"
)

const sectionRule = "----------------------------------------"

// WriteAudit writes the sectioned, human-readable match report:
// exact-id matches, partial-id matches, fuzzy matches with their
// scores, then unmatched features, each section closed by its count.
func WriteAudit(w io.Writer, res *reconcile.Result, generated time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "gaugelink match report - Generated: %s\n", generated.Format("2006-01-02 15:04:05"))
	for range 80 {
		bw.WriteByte('=')
	}
	bw.WriteString("\n\n")

	exact := res.ByTier(reconcile.TierExactID)
	fmt.Fprintln(bw, "(1) MATCHED BY EXACT ID")
	fmt.Fprintln(bw, sectionRule)
	for _, rec := range exact {
		fmt.Fprintf(bw, "  Name: %s, ID: %s\n", rec.FeatureName, rec.FeatureID)
	}
	fmt.Fprintf(bw, "\nTotal matched by exact id: %d\n\n", len(exact))

	partial := res.ByTier(reconcile.TierPartialID)
	fmt.Fprintln(bw, "(2) MATCHED BY PARTIAL ID (row id is substring of feature id)")
	fmt.Fprintln(bw, sectionRule)
	for _, rec := range partial {
		fmt.Fprintf(bw, "  feature -> Name: %s, ID: %s\n", rec.FeatureName, rec.FeatureID)
		fmt.Fprintf(bw, "  link    -> Name: %s, ID: %s\n", rec.RowName, rec.RowID)
		fmt.Fprintln(bw)
	}
	fmt.Fprintf(bw, "Total matched by partial id: %d\n\n", len(partial))

	fuzzy := res.ByTier(reconcile.TierFuzzyName)
	fmt.Fprintf(bw, "(3) MATCHED BY NAME (fuzzy match, score >= %s)\n", formatScore(res.Metadata.Threshold))
	fmt.Fprintln(bw, sectionRule)
	for _, rec := range fuzzy {
		fmt.Fprintf(bw, "  feature -> Name: %s, ID: %s\n", rec.FeatureName, rec.FeatureID)
		fmt.Fprintf(bw, "  link    -> Name: %s, ID: %s\n", rec.RowName, rec.RowID)
		fmt.Fprintf(bw, "  Fuzzy score: %s\n", formatScore(rec.Score))
		fmt.Fprintln(bw)
	}
	fmt.Fprintf(bw, "Total matched by fuzzy name: %d\n\n", len(fuzzy))

	unmatched := res.ByTier(reconcile.TierUnmatched)
	fmt.Fprintln(bw, "(4) UNMATCHED")
	fmt.Fprintln(bw, sectionRule)
	for _, rec := range unmatched {
		fmt.Fprintf(bw, "  feature -> Name: %s, ID: %s\n", rec.FeatureName, rec.FeatureID)
	}
	fmt.Fprintf(bw, "\nTotal unmatched: %d\n", len(unmatched))

	return bw.Flush()
}

// formatScore renders a similarity score without trailing zeros,
// matching how scores appear in match records.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'g', -1, 64)
}
