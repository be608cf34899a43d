package dataset

import "math/rand"

// Sample draws limit data points at random without replacement, in draw
// order. The same seed always yields the same subset. A non-positive limit
// returns points unchanged.
func Sample(points []DataPoint, limit int, seed int64) []DataPoint {
	if limit <= 0 {
		return points
	}
	rng := rand.New(rand.NewSource(seed))
	source := append([]DataPoint(nil), points...)
	target := make([]DataPoint, 0, min(limit, len(source)))
	for len(source) > 0 && len(target) < limit {
		idx := rng.Intn(len(source))
		target = append(target, source[idx])
		source = append(source[:idx], source[idx+1:]...)
	}
	return target
}
