package score

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/compare"
)

func ptr(s string) *string { return &s }

func rec(kv map[constants.Label]*string) Record { return Record(kv) }

func TestAggregate_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		predicted Record
		target    Record
		want      Score
	}{
		{
			name:      "exact match",
			predicted: rec(map[constants.Label]*string{constants.LabelTotal: ptr("10")}),
			target:    rec(map[constants.Label]*string{constants.LabelTotal: ptr("10")}),
			want:      Score{TruePositive: 1},
		},
		{
			name:      "missing prediction",
			predicted: rec(map[constants.Label]*string{constants.LabelTotal: nil}),
			target:    rec(map[constants.Label]*string{constants.LabelTotal: ptr("10")}),
			want:      Score{FalseNegative: 1},
		},
		{
			name:      "spurious prediction",
			predicted: rec(map[constants.Label]*string{constants.LabelTotal: ptr("10")}),
			target:    rec(map[constants.Label]*string{constants.LabelTotal: nil}),
			want:      Score{FalsePositive: 1},
		},
		{
			name:      "both absent",
			predicted: rec(map[constants.Label]*string{}),
			target:    rec(map[constants.Label]*string{constants.LabelTotal: nil}),
			want:      Score{},
		},
		{
			name:      "empty strings are absent",
			predicted: rec(map[constants.Label]*string{constants.LabelTotal: ptr("")}),
			target:    rec(map[constants.Label]*string{constants.LabelTotal: ptr("")}),
			want:      Score{},
		},
		{
			name:      "wrong value counts twice",
			predicted: rec(map[constants.Label]*string{constants.LabelTotal: ptr("11")}),
			target:    rec(map[constants.Label]*string{constants.LabelTotal: ptr("10")}),
			want:      Score{FalsePositive: 1, FalseNegative: 1},
		},
		{
			name:      "labels missing from the target are not counted",
			predicted: rec(map[constants.Label]*string{constants.LabelDate: ptr("1.1.2020")}),
			target:    rec(map[constants.Label]*string{constants.LabelTotal: ptr("10")}),
			want:      Score{FalseNegative: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate([]Record{tt.predicted}, []Record{tt.target}, compare.Exact)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregate_LengthMismatch(t *testing.T) {
	_, err := Aggregate([]Record{{}}, nil, compare.Exact)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPrecondition))
}

func TestMetrics(t *testing.T) {
	t.Run("perfect", func(t *testing.T) {
		m := Score{TruePositive: 1}.Metrics()
		assert.InDelta(t, 1.0, m.Precision, 1e-9)
		assert.InDelta(t, 1.0, m.Recall, 1e-9)
		assert.InDelta(t, 1.0, m.F1, 1e-9)
	})

	t.Run("only false negatives", func(t *testing.T) {
		m := Score{FalseNegative: 1}.Metrics()
		assert.Equal(t, 0.0, m.Precision)
		assert.Equal(t, 0.0, m.Recall)
		assert.Equal(t, 0.0, m.F1)
	})

	t.Run("all zero is defined", func(t *testing.T) {
		m := Score{}.Metrics()
		assert.Equal(t, Metrics{}, m)
	})

	t.Run("mixed", func(t *testing.T) {
		m := Score{TruePositive: 2, FalsePositive: 1, FalseNegative: 3}.Metrics()
		assert.InDelta(t, 2.0/3.0, m.Precision, 1e-9)
		assert.InDelta(t, 0.4, m.Recall, 1e-9)
		assert.InDelta(t, 0.5, m.F1, 1e-9)
	})
}

func TestScore_AddOrderIndependent(t *testing.T) {
	a := Score{1, 2, 3}
	b := Score{4, 0, 1}
	c := Score{0, 7, 2}
	assert.Equal(t, a.Add(b).Add(c), c.Add(a).Add(b))
	assert.Equal(t, a.Add(b), b.Add(a))
}

func TestAggregateLabel(t *testing.T) {
	predictions := []Record{
		{constants.LabelTotal: ptr("10"), constants.LabelDate: ptr("x")},
		{constants.LabelTotal: ptr("5"), constants.LabelDate: nil},
	}
	targets := []Record{
		{constants.LabelTotal: ptr("10"), constants.LabelDate: ptr("y")},
		{constants.LabelTotal: ptr("6"), constants.LabelDate: ptr("z")},
	}

	total, err := AggregateLabel(constants.LabelTotal, predictions, targets, compare.Exact)
	require.NoError(t, err)
	assert.Equal(t, Score{TruePositive: 1, FalsePositive: 1, FalseNegative: 1}, total)

	date, err := AggregateLabel(constants.LabelDate, predictions, targets, compare.Exact)
	require.NoError(t, err)
	assert.Equal(t, Score{FalsePositive: 1, FalseNegative: 2}, date)

	all, err := Aggregate(predictions, targets, compare.Exact)
	require.NoError(t, err)
	assert.Equal(t, total.Add(date), all)
}

func TestCollectMissed(t *testing.T) {
	pairs := []Pair{
		{
			DocumentID: "a",
			Predicted:  Record{constants.LabelTotal: ptr("10"), constants.LabelDate: nil},
			Target:     Record{constants.LabelTotal: ptr("10"), constants.LabelDate: ptr("1.1.2020")},
		},
		{
			DocumentID: "b",
			Predicted:  Record{constants.LabelTotal: ptr("9"), constants.LabelCompany: ptr("Lidl")},
			Target:     Record{constants.LabelTotal: ptr("10")},
		},
	}

	missed := CollectMissed(pairs, constants.AllLabels, compare.Exact)
	require.Len(t, missed, 3)

	assert.Equal(t, MissedEntry{DocumentID: "a", Label: constants.LabelDate, GroundTruth: ptr("1.1.2020")}, missed[0])
	assert.Equal(t, MissedEntry{DocumentID: "b", Label: constants.LabelTotal, GroundTruth: ptr("10"), Predicted: ptr("9")}, missed[1])
	assert.Equal(t, MissedEntry{DocumentID: "b", Label: constants.LabelCompany, Predicted: ptr("Lidl")}, missed[2])
}

func TestSummarize(t *testing.T) {
	pairs := []Pair{
		{
			DocumentID: "a",
			Predicted:  FromStrings(map[string]*string{"TOTAL": ptr("12,40"), "DATE": ptr("21.02.23")}),
			Target:     FromStrings(map[string]*string{"TOTAL": ptr("12.4"), "DATE": ptr("2023-02-21"), "COMPANY": ptr("Prisma")}),
		},
	}

	s, err := Summarize(pairs, constants.AllLabels, compare.ForLabel)
	require.NoError(t, err)
	assert.Equal(t, Score{TruePositive: 2, FalseNegative: 1}, s.Score)
	require.Len(t, s.ByLabel, 4)
	assert.Equal(t, constants.LabelTotal, s.ByLabel[0].Label)
	assert.InDelta(t, 1.0, s.ByLabel[0].F1, 1e-9)
	assert.Equal(t, 0.0, s.ByLabel[2].Recall)
	require.Len(t, s.Missed, 1)
	assert.Equal(t, constants.LabelCompany, s.Missed[0].Label)
}

func TestRecord(t *testing.T) {
	r := FromStrings(map[string]*string{"TOTAL": ptr("5"), "total": ptr("7"), "VAT_10": ptr("1"), "DATE": nil})
	assert.Len(t, r, len(constants.AllLabels))
	v, ok := r.Value(constants.LabelTotal)
	assert.True(t, ok)
	assert.Equal(t, "5", v)
	_, ok = r.Value(constants.LabelDate)
	assert.False(t, ok)

	r.Set(constants.LabelCompany, "")
	_, ok = r.Value(constants.LabelCompany)
	assert.False(t, ok)

	only := r.Only(constants.LabelTotal)
	assert.Len(t, only, 1)
	assert.Empty(t, Record{}.Only(constants.LabelTotal))
}
