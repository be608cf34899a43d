package dataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func points(n int) []DataPoint {
	out := make([]DataPoint, n)
	for i := range out {
		out[i] = DataPoint{Dataset: "d", Split: "eval", ID: fmt.Sprintf("%03d", i)}
	}
	return out
}

func TestSample(t *testing.T) {
	all := points(50)

	t.Run("no limit", func(t *testing.T) {
		assert.Equal(t, all, Sample(all, 0, 1))
	})

	t.Run("deterministic for a seed", func(t *testing.T) {
		a := Sample(all, 10, 42)
		b := Sample(all, 10, 42)
		assert.Len(t, a, 10)
		assert.Equal(t, a, b)
		assert.Subset(t, all, a)
	})

	t.Run("no duplicates", func(t *testing.T) {
		seen := map[string]bool{}
		for _, p := range Sample(all, 50, 3) {
			assert.False(t, seen[p.ID])
			seen[p.ID] = true
		}
		assert.Len(t, seen, 50)
	})

	t.Run("limit above size", func(t *testing.T) {
		assert.Len(t, Sample(points(3), 10, 1), 3)
	})

	t.Run("input untouched", func(t *testing.T) {
		in := points(5)
		snapshot := append([]DataPoint(nil), in...)
		Sample(in, 2, 9)
		assert.Equal(t, snapshot, in)
	})
}
