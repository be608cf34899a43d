package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/eval"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

func strPtr(s string) *string { return &s }

func sampleReport() eval.Report {
	limit := 2
	return eval.Report{
		Meta: eval.Meta{
			RunID:      "run-1",
			Datapoints: []string{"a", "b"},
			Dataset:    "custom",
			Split:      "eval",
			Limit:      &limit,
			Seed:       42,
			Strategy:   "simple",
			Status:     constants.RunStatusCompleted,
			Timestamp:  time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		},
		Aggregated: score.Metrics{F1: 0.6666666, Recall: 0.75, Precision: 0.6},
		Counts:     score.Score{TruePositive: 3, FalsePositive: 2, FalseNegative: 1},
		ByLabel: []score.LabelMetrics{
			{Label: constants.LabelTotal, Metrics: score.Metrics{F1: 0.5, Recall: 0.5, Precision: 0.5}, Score: score.Score{TruePositive: 1, FalsePositive: 1, FalseNegative: 1}},
			{Label: constants.LabelDate, Metrics: score.Metrics{F1: 1, Recall: 1, Precision: 1}, Score: score.Score{TruePositive: 1}},
		},
		Missed: []score.MissedEntry{
			{DocumentID: "b", Label: constants.LabelTotal, GroundTruth: strPtr("5,00"), Predicted: strPtr("6,00")},
			{DocumentID: "b", Label: constants.LabelCompany, Predicted: strPtr("X")},
		},
	}
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "eval-custom-simple-20240301T123000Z", FileStem(sampleReport()))

	r := sampleReport()
	r.Meta.Dataset = "a/b"
	r.Meta.Strategy = ""
	assert.Equal(t, "eval-a_b-unknown-20240301T123000Z", FileStem(r))
}

func TestExporter_WriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := NewExporter(dir, nil).WriteJSON(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eval-custom-simple-20240301T123000Z.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"meta", "aggregated", "by_label", "missed"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "failures")

	meta := doc["meta"].(map[string]any)
	assert.Equal(t, []any{"a", "b"}, meta["datapoints"])
	assert.EqualValues(t, 2, meta["limit"])
	assert.Equal(t, "2024-03-01T12:30:00Z", meta["timestamp"])

	byLabel := doc["by_label"].([]any)
	first := byLabel[0].(map[string]any)
	assert.Equal(t, map[string]any{"label": "TOTAL", "f1": 0.5, "recall": 0.5, "precision": 0.5}, first)

	missed := doc["missed"].([]any)
	second := missed[1].(map[string]any)
	assert.Equal(t, map[string]any{"id": "b", "label": "COMPANY", "groundTruth": nil, "predicted": "X"}, second)
}

func TestExporter_WriteXLSX(t *testing.T) {
	path, err := NewExporter(t.TempDir(), nil).WriteXLSX(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetSummary, SheetByLabel, SheetMissed}, f.GetSheetList())

	runID, err := f.GetCellValue(SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)

	rows, err := f.GetRows(SheetByLabel)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Label", "F1", "Recall", "Precision", "TP", "FP", "FN"}, rows[0])
	assert.Equal(t, "TOTAL", rows[1][0])

	missed, err := f.GetRows(SheetMissed)
	require.NoError(t, err)
	require.Len(t, missed, 3)
	assert.Equal(t, "6,00", missed[1][3])
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, sampleReport())
	out := buf.String()

	assert.Contains(t, out, `dataset "custom", strategy "simple", 2 documents (0 failed)`)
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "0.667")
	assert.Contains(t, out, "0.600")
	assert.Contains(t, out, "ALL")
	assert.True(t, strings.HasSuffix(out, "2 missed predictions\n"))
}
