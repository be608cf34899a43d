package compare

import (
	"math"
	"unicode/utf8"

	"github.com/joseph-ayodele/receipts-eval/constants"
)

// Matcher decides whether a predicted value matches the target for a label.
type Matcher func(label constants.Label, predicted, target string) bool

// Exact matches byte-identical values only.
func Exact(_ constants.Label, predicted, target string) bool {
	return predicted == target
}

// ForLabel picks the comparator used for each receipt field: dates for DATE,
// amounts for TOTAL and, for anything else, text allowing edits up to a
// fifth of the longer value.
func ForLabel(label constants.Label, predicted, target string) bool {
	switch label {
	case constants.LabelDate:
		return Date{}.Compare(&predicted, &target)
	case constants.LabelTotal:
		return Number{}.Compare(&predicted, &target)
	default:
		longest := max(utf8.RuneCountInString(predicted), utf8.RuneCountInString(target))
		limit := int(math.Ceil(0.2 * float64(longest)))
		return TextWithin(limit).Compare(&predicted, &target)
	}
}

var _ Matcher = ForLabel
var _ Matcher = Exact
