package export

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/receipts-eval/internal/eval"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

// PrintSummary renders the aggregated and per label metrics as a table.
func PrintSummary(w io.Writer, r eval.Report) {
	fmt.Fprintf(w, "dataset %q, strategy %q, %d documents (%d failed), status %s\n",
		r.Meta.Dataset, r.Meta.Strategy, len(r.Meta.Datapoints), len(r.Failures), r.Meta.Status)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Label", "F1", "Recall", "Precision"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, l := range r.ByLabel {
		table.Append(metricRow(string(l.Label), l.Metrics))
	}
	table.SetFooter(metricRow("ALL", r.Aggregated))
	table.Render()

	if len(r.Missed) > 0 {
		fmt.Fprintf(w, "%d missed predictions\n", len(r.Missed))
	}
}

func metricRow(name string, m score.Metrics) []string {
	return []string{name, fmt.Sprintf("%.3f", m.F1), fmt.Sprintf("%.3f", m.Recall), fmt.Sprintf("%.3f", m.Precision)}
}
