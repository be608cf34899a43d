package score

import (
	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/compare"
)

// Score holds outcome counts.
type Score struct {
	TruePositive  int `json:"tp"`
	FalsePositive int `json:"fp"`
	FalseNegative int `json:"fn"`
}

// Add sums two scores. It is commutative and associative so per document
// scores can be reduced in any order.
func (s Score) Add(o Score) Score {
	return Score{
		TruePositive:  s.TruePositive + o.TruePositive,
		FalsePositive: s.FalsePositive + o.FalsePositive,
		FalseNegative: s.FalseNegative + o.FalseNegative,
	}
}

// Outcome is the result of judging one target/prediction pair.
type Outcome int

const (
	Ignored Outcome = iota
	TruePositive
	FalsePositive
	FalseNegative
	// Mismatch is a wrong value: one false positive and one false negative.
	Mismatch
)

// Judge classifies a single pair of values for label.
func Judge(label constants.Label, predicted, target Record, matcher compare.Matcher) Outcome {
	p, hasP := predicted.Value(label)
	t, hasT := target.Value(label)
	switch {
	case !hasP && !hasT:
		return Ignored
	case !hasP:
		return FalseNegative
	case !hasT:
		return FalsePositive
	case matcher(label, p, t):
		return TruePositive
	default:
		return Mismatch
	}
}

func (s Score) record(o Outcome) Score {
	switch o {
	case TruePositive:
		s.TruePositive++
	case FalsePositive:
		s.FalsePositive++
	case FalseNegative:
		s.FalseNegative++
	case Mismatch:
		s.FalsePositive++
		s.FalseNegative++
	}
	return s
}

// ScoreDocument counts outcomes for every label the target carries.
func ScoreDocument(predicted, target Record, matcher compare.Matcher) Score {
	var s Score
	for label := range target {
		s = s.record(Judge(label, predicted, target, matcher))
	}
	return s
}

// Aggregate scores index-paired predictions against targets. The two slices
// must have the same length.
func Aggregate(predictions, targets []Record, matcher compare.Matcher) (Score, error) {
	if len(predictions) != len(targets) {
		return Score{}, common.PreconditionErrorf(
			"predictions and targets must have the same length: %d != %d", len(predictions), len(targets))
	}
	var total Score
	for i := range targets {
		total = total.Add(ScoreDocument(predictions[i], targets[i], matcher))
	}
	return total, nil
}

// AggregateLabel scores a single label by restricting every record to it.
func AggregateLabel(label constants.Label, predictions, targets []Record, matcher compare.Matcher) (Score, error) {
	return Aggregate(only(label, predictions), only(label, targets), matcher)
}

func only(label constants.Label, records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Only(label)
	}
	return out
}
