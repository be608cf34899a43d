package score

// epsilon keeps every ratio defined when all counts are zero.
const epsilon = 1e-12

// Metrics are the ratios derived from a Score.
type Metrics struct {
	F1        float64 `json:"f1"`
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
}

func (s Score) Precision() float64 {
	tp := float64(s.TruePositive)
	return tp / (tp + float64(s.FalsePositive) + epsilon)
}

func (s Score) Recall() float64 {
	tp := float64(s.TruePositive)
	return tp / (tp + float64(s.FalseNegative) + epsilon)
}

func (s Score) F1() float64 {
	tp := float64(s.TruePositive)
	return tp / (tp + 0.5*float64(s.FalsePositive+s.FalseNegative) + epsilon)
}

func (s Score) Metrics() Metrics {
	return Metrics{
		F1:        s.F1(),
		Recall:    s.Recall(),
		Precision: s.Precision(),
	}
}
