package compare

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Text matches values within an edit distance of each other after trimming
// and case folding.
//
// The zero value derives the allowed distance from the inputs:
// ceil(0.1 * average rune length of the raw values).
type Text struct {
	maxDistance int
	fixed       bool
}

// TextWithin returns a Text comparator allowing at most maxDistance edits.
func TextWithin(maxDistance int) Text {
	return Text{maxDistance: maxDistance, fixed: true}
}

func (t Text) Compare(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	distance := levenshtein.ComputeDistance(normalizeText(*a), normalizeText(*b))
	return distance <= t.threshold(*a, *b)
}

func (t Text) threshold(a, b string) int {
	if t.fixed {
		return t.maxDistance
	}
	avg := float64(utf8.RuneCountInString(a)+utf8.RuneCountInString(b)) / 2
	return int(math.Ceil(0.1 * avg))
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
