// Package layout rebuilds human reading order from unordered OCR word boxes.
package layout

import "strings"

// Segment is one recognized word with its bounding box.
// Geometry is expressed as fractions of the page dimensions.
type Segment struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
	// Label is set only on annotated segments used for demonstrations.
	Label string `json:"label,omitempty"`
}

// Bounds implements Boxed.
func (s Segment) Bounds() (x, y, width, height float64) {
	return s.X, s.Y, s.Width, s.Height
}

// Boxed is anything that exposes a page-fraction bounding box.
type Boxed interface {
	Bounds() (x, y, width, height float64)
}

// Texts returns the text of every segment in order.
func Texts(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Text
	}
	return out
}

// JoinLines renders line groups as one line of space separated words each.
func JoinLines(lines [][]Segment) string {
	rows := make([]string, len(lines))
	for i, line := range lines {
		rows[i] = strings.Join(Texts(line), " ")
	}
	return strings.Join(rows, "\n")
}
