package eval

import (
	"time"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/compare"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

// Meta describes the run a report belongs to.
type Meta struct {
	RunID      string              `json:"run_id"`
	Datapoints []string            `json:"datapoints"`
	Dataset    string              `json:"dataset"`
	Split      string              `json:"split"`
	Limit      *int                `json:"limit"`
	Seed       int64               `json:"seed"`
	Strategy   string              `json:"strategy"`
	Model      string              `json:"model,omitempty"`
	Status     constants.RunStatus `json:"status"`
	Timestamp  time.Time           `json:"timestamp"`
}

// Failure is a document left out of the scores.
type Failure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type Report struct {
	Meta       Meta                 `json:"meta"`
	Aggregated score.Metrics        `json:"aggregated"`
	Counts     score.Score          `json:"counts"`
	ByLabel    []score.LabelMetrics `json:"by_label"`
	Missed     []score.MissedEntry  `json:"missed"`
	Failures   []Failure            `json:"failures,omitempty"`
}

// BuildReport scores the successful predictions over every known label.
// meta.Datapoints and meta.Status are filled from predictions.
func BuildReport(meta Meta, predictions []Prediction, matcher compare.Matcher) (Report, error) {
	pairs := make([]score.Pair, 0, len(predictions))
	var failures []Failure
	meta.Datapoints = make([]string, 0, len(predictions))
	for _, p := range predictions {
		meta.Datapoints = append(meta.Datapoints, p.DataPoint.ID)
		if p.Err != nil {
			failures = append(failures, Failure{ID: p.DataPoint.ID, Error: p.Err.Error()})
			continue
		}
		pairs = append(pairs, score.Pair{DocumentID: p.DataPoint.ID, Predicted: p.Predicted, Target: p.Target})
	}

	summary, err := score.Summarize(pairs, constants.AllLabels, matcher)
	if err != nil {
		return Report{}, err
	}

	switch {
	case len(failures) == 0:
		meta.Status = constants.RunStatusCompleted
	case len(pairs) == 0:
		meta.Status = constants.RunStatusFailed
	default:
		meta.Status = constants.RunStatusPartial
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}

	return Report{
		Meta:       meta,
		Aggregated: summary.Score.Metrics(),
		Counts:     summary.Score,
		ByLabel:    summary.ByLabel,
		Missed:     summary.Missed,
		Failures:   failures,
	}, nil
}
