package score

import (
	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/compare"
)

// LabelMetrics are the metrics of a single label.
type LabelMetrics struct {
	Label constants.Label `json:"label"`
	Metrics
	Score Score `json:"-"`
}

// Summary is the aggregated score plus the per label breakdown.
type Summary struct {
	Score   Score
	ByLabel []LabelMetrics
	Missed  []MissedEntry
}

// Summarize scores every pair overall and per label, and lists the misses.
func Summarize(pairs []Pair, labels []constants.Label, matcher compare.Matcher) (Summary, error) {
	predictions := make([]Record, len(pairs))
	targets := make([]Record, len(pairs))
	for i, p := range pairs {
		predictions[i], targets[i] = p.Predicted, p.Target
	}

	total, err := Aggregate(predictions, targets, matcher)
	if err != nil {
		return Summary{}, err
	}

	byLabel := make([]LabelMetrics, 0, len(labels))
	for _, label := range labels {
		s, err := AggregateLabel(label, predictions, targets, matcher)
		if err != nil {
			return Summary{}, err
		}
		byLabel = append(byLabel, LabelMetrics{Label: label, Metrics: s.Metrics(), Score: s})
	}

	return Summary{
		Score:   total,
		ByLabel: byLabel,
		Missed:  CollectMissed(pairs, labels, matcher),
	}, nil
}
