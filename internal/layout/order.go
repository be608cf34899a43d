package layout

import "math"

const (
	// sameLineTolerance is the share of the top-most box height within which
	// vertical centers are considered to sit on the same line.
	sameLineTolerance = 0.33
	// overlapTolerance is the share of the previous box that the next box may
	// overlap before it is treated as a new line.
	overlapTolerance = 0.9
)

// SortToReadingOrder returns segments top-to-bottom, left-to-right.
//
// Each step takes the top-most remaining segment, collects every remaining
// segment whose vertical center lies within a third of its height, and emits
// the left-most of those. The line is recomputed on every step.
// Ties are resolved in favour of the segment seen first. The input slice is
// not modified.
func SortToReadingOrder[T Boxed](segments []T) []T {
	pool := make([]int, len(segments))
	for i := range pool {
		pool[i] = i
	}

	result := make([]T, 0, len(segments))
	for len(pool) > 0 {
		at := pick(segments, pool)
		result = append(result, segments[pool[at]])
		pool = append(pool[:at], pool[at+1:]...)
	}
	return result
}

// pick returns the position in pool of the next segment in reading order.
func pick[T Boxed](segments []T, pool []int) int {
	if len(pool) == 0 {
		panic("layout: cannot pick from an empty segment pool")
	}

	top := 0
	_, topY, _, _ := segments[pool[0]].Bounds()
	for i := 1; i < len(pool); i++ {
		if _, y, _, _ := segments[pool[i]].Bounds(); y < topY {
			top, topY = i, y
		}
	}

	_, _, _, topH := segments[pool[top]].Bounds()
	topCenter := topY + 0.5*topH
	limit := topH * sameLineTolerance

	left := -1
	var leftX float64
	for i, idx := range pool {
		x, y, _, h := segments[idx].Bounds()
		if math.Abs(y+0.5*h-topCenter) >= limit {
			continue
		}
		if left < 0 || x < leftX {
			left, leftX = i, x
		}
	}
	// a zero-height top-most box matches nothing, not even itself
	if left < 0 {
		return top
	}
	return left
}

// SplitToLines groups segments already in reading order into visual lines.
// A segment opens a new line when it starts inside the horizontal span of the
// previous segment or sits clearly below it.
func SplitToLines[T Boxed](ordered []T) [][]T {
	lines := make([][]T, 0)
	if len(ordered) == 0 {
		return lines
	}
	lines = append(lines, []T{ordered[0]})

	for i := 1; i < len(ordered); i++ {
		px, py, pw, ph := ordered[i-1].Bounds()
		cx, cy, _, _ := ordered[i].Bounds()

		if cx < px+overlapTolerance*pw || cy > py+overlapTolerance*ph {
			lines = append(lines, []T{ordered[i]})
			continue
		}
		last := len(lines) - 1
		lines[last] = append(lines[last], ordered[i])
	}
	return lines
}

// ReadingLines is SortToReadingOrder followed by SplitToLines.
func ReadingLines[T Boxed](segments []T) [][]T {
	return SplitToLines(SortToReadingOrder(segments))
}
