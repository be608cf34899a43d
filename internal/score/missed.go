package score

import (
	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/compare"
)

// MissedEntry describes one pair that was not a true positive.
type MissedEntry struct {
	DocumentID  string          `json:"id"`
	Label       constants.Label `json:"label"`
	GroundTruth *string         `json:"groundTruth"`
	Predicted   *string         `json:"predicted"`
}

// Pair is one document's prediction and ground truth.
type Pair struct {
	DocumentID string
	Predicted  Record
	Target     Record
}

// CollectMissed lists every disagreement across pairs for the given labels,
// absence mismatches included. Entries follow pair order, then label order.
func CollectMissed(pairs []Pair, labels []constants.Label, matcher compare.Matcher) []MissedEntry {
	missed := make([]MissedEntry, 0)
	for _, p := range pairs {
		for _, label := range labels {
			switch Judge(label, p.Predicted, p.Target, matcher) {
			case Ignored, TruePositive:
				continue
			}
			missed = append(missed, MissedEntry{
				DocumentID:  p.DocumentID,
				Label:       label,
				GroundTruth: valueOrNil(p.Target, label),
				Predicted:   valueOrNil(p.Predicted, label),
			})
		}
	}
	return missed
}

func valueOrNil(r Record, label constants.Label) *string {
	if v, ok := r.Value(label); ok {
		return &v
	}
	return nil
}
