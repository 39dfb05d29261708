package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/riverlabs/gaugelink/pkg/errors"
	"github.com/riverlabs/gaugelink/pkg/reconcile"
)

// SheetName is the worksheet holding the tabular summary.
const SheetName = "Results"

// matchedFill is the background color applied to confidently matched
// rows (light green).
const matchedFill = "90EE90"

// summaryRow is one spreadsheet row.
type summaryRow struct {
	SourceName  string
	MatchedName string
	Confident   bool
}

// WriteWorkbook writes the tabular summary spreadsheet: one row per
// feature with columns SourceName, MatchedName and Matched.
//
// The Matched column encodes confidence, not mere assignment: id-tier
// matches say Yes and are highlighted, while fuzzy-name matches say No
// with the matched name still filled in. Downstream consumers rely on
// that convention to separate certain matches from uncertain ones.
// Rows are sorted confident-first, alphabetically by source name
// within each group.
func WriteWorkbook(path string, res *reconcile.Result) error {
	rows := summaryRows(res)

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.WrapIO("create", path, err)
	}

	headers := []string{"SourceName", "MatchedName", "Matched"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return errors.WrapIO("create", path, err)
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return errors.WrapIO("create", path, err)
		}
	}

	confident := 0
	for i, row := range rows {
		n := i + 2
		matched := "No"
		if row.Confident {
			matched = "Yes"
			confident++
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("A%d", n), row.SourceName); err != nil {
			return errors.WrapIO("create", path, err)
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("B%d", n), row.MatchedName); err != nil {
			return errors.WrapIO("create", path, err)
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("C%d", n), matched); err != nil {
			return errors.WrapIO("create", path, err)
		}
	}

	// Confident rows sort first, so the highlight covers one
	// contiguous block.
	if confident > 0 {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{matchedFill}, Pattern: 1},
		})
		if err != nil {
			return errors.WrapIO("create", path, err)
		}
		if err := f.SetCellStyle(SheetName, "A2", fmt.Sprintf("C%d", confident+1), style); err != nil {
			return errors.WrapIO("create", path, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "B", 50); err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := f.SetColWidth(SheetName, "C", "C", 10); err != nil {
		return errors.WrapIO("create", path, err)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// summaryRows flattens match records into sorted spreadsheet rows.
func summaryRows(res *reconcile.Result) []summaryRow {
	rows := make([]summaryRow, 0, len(res.Records))
	for _, rec := range res.Records {
		rows = append(rows, summaryRow{
			SourceName:  rec.FeatureName,
			MatchedName: rec.RowName,
			Confident:   rec.Confident(),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Confident != rows[j].Confident {
			return rows[i].Confident
		}
		return strings.ToLower(rows[i].SourceName) < strings.ToLower(rows[j].SourceName)
	})

	return rows
}
