package compare

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Number matches values whose largest embedded amount is the same number of cents.
type Number struct{}

func (Number) Compare(a, b *string) bool {
	return byNormalForm(a, b, normalizeCents)
}

var amountPattern = regexp.MustCompile(`[0-9]+(?:\s?[,.]\s?[0-9]{1,2})?`)

// NormalizeAmount returns the largest amount found in value. Either a comma or
// a dot is accepted as the decimal separator.
func NormalizeAmount(value string) (decimal.Decimal, bool) {
	var (
		best  decimal.Decimal
		found bool
	)
	for _, candidate := range amountPattern.FindAllString(value, -1) {
		cleaned := strings.ReplaceAll(candidate, " ", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			continue
		}
		if !found || d.GreaterThan(best) {
			best, found = d, true
		}
	}
	return best, found
}

// normalizeCents renders the amount as an integer count of cents.
func normalizeCents(value string) (string, bool) {
	d, ok := NormalizeAmount(value)
	if !ok {
		return "", false
	}
	return d.Shift(2).StringFixed(0), true
}
