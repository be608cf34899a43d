// Package score counts prediction outcomes against ground truth and derives
// precision, recall and F1 from them.
package score

import (
	"github.com/joseph-ayodele/receipts-eval/constants"
)

// Record maps labels to an optional value. A label missing from the map, a
// nil value and an empty string are all treated as absent.
type Record map[constants.Label]*string

// NewRecord builds a Record holding every label in labels with no value.
func NewRecord(labels ...constants.Label) Record {
	r := make(Record, len(labels))
	for _, l := range labels {
		r[l] = nil
	}
	return r
}

// Value returns the label's value when it is present and non-empty.
func (r Record) Value(label constants.Label) (string, bool) {
	v, ok := r[label]
	if !ok || v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

// Set stores value under label. An empty value is stored as absent.
func (r Record) Set(label constants.Label, value string) {
	if value == "" {
		r[label] = nil
		return
	}
	r[label] = &value
}

// Only returns a copy restricted to a single label, keeping it only when the
// record carries it.
func (r Record) Only(label constants.Label) Record {
	out := make(Record, 1)
	if v, ok := r[label]; ok {
		out[label] = v
	}
	return out
}

// FromStrings converts a string keyed map at the input boundary. Keys must
// equal a label name; unknown keys are dropped and every known label is
// present in the result.
func FromStrings(m map[string]*string) Record {
	r := NewRecord(constants.AllLabels...)
	for _, label := range constants.AllLabels {
		if v := m[string(label)]; v != nil {
			r.Set(label, *v)
		}
	}
	return r
}
