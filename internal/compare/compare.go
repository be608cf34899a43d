// Package compare decides whether two extracted field values denote the same
// logical value despite formatting and OCR noise.
package compare

// Comparator reports whether two optional values match.
// Two nil values match, exactly one nil never does.
type Comparator interface {
	Compare(a, b *string) bool
}

// Func adapts an ordinary function to Comparator.
type Func func(a, b *string) bool

func (f Func) Compare(a, b *string) bool { return f(a, b) }

// byNormalForm applies the shared nil rules and otherwise compares the
// normalized forms. ok=false is the "unparseable" sentinel, and two sentinels
// compare equal.
func byNormalForm[N comparable](a, b *string, normalize func(string) (N, bool)) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	na, okA := normalize(*a)
	nb, okB := normalize(*b)
	if !okA || !okB {
		return okA == okB
	}
	return na == nb
}
