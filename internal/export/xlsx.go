package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipts-eval/internal/eval"
)

const (
	SheetSummary = "Summary"
	SheetByLabel = "By Label"
	SheetMissed  = "Missed"
)

// Workbook renders the report as XLSX bytes with a summary, per label and
// missed sheet.
func Workbook(r eval.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, sheet := range []string{SheetByLabel, SheetMissed} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	limit := "none"
	if r.Meta.Limit != nil {
		limit = fmt.Sprint(*r.Meta.Limit)
	}
	summary := [][]any{
		{"Run ID", r.Meta.RunID},
		{"Dataset", r.Meta.Dataset},
		{"Split", r.Meta.Split},
		{"Strategy", r.Meta.Strategy},
		{"Model", r.Meta.Model},
		{"Status", string(r.Meta.Status)},
		{"Timestamp", r.Meta.Timestamp.UTC().Format(time.RFC3339)},
		{"Documents", len(r.Meta.Datapoints)},
		{"Failed", len(r.Failures)},
		{"Limit", limit},
		{"Seed", r.Meta.Seed},
		{},
		{"F1", r.Aggregated.F1},
		{"Recall", r.Aggregated.Recall},
		{"Precision", r.Aggregated.Precision},
		{"True positives", r.Counts.TruePositive},
		{"False positives", r.Counts.FalsePositive},
		{"False negatives", r.Counts.FalseNegative},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return nil, err
	}

	byLabel := [][]any{{"Label", "F1", "Recall", "Precision", "TP", "FP", "FN"}}
	for _, l := range r.ByLabel {
		byLabel = append(byLabel, []any{string(l.Label), l.F1, l.Recall, l.Precision,
			l.Score.TruePositive, l.Score.FalsePositive, l.Score.FalseNegative})
	}
	if err := writeRows(f, SheetByLabel, byLabel); err != nil {
		return nil, err
	}

	missed := [][]any{{"Document", "Label", "Ground Truth", "Predicted"}}
	for _, m := range r.Missed {
		missed = append(missed, []any{m.DocumentID, string(m.Label), deref(m.GroundTruth), deref(m.Predicted)})
	}
	if err := writeRows(f, SheetMissed, missed); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(SheetSummary, "A", "A", 18)
	_ = f.SetColWidth(SheetSummary, "B", "B", 40)
	_ = f.SetColWidth(SheetByLabel, "A", "A", 12)
	_ = f.SetColWidth(SheetMissed, "A", "A", 52)
	_ = f.SetColWidth(SheetMissed, "C", "D", 36)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
