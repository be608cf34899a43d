package constants

import (
	"strings"
)

// Label names a field extracted from a receipt.
type Label string

const (
	LabelTotal   Label = "TOTAL"
	LabelDate    Label = "DATE"
	LabelCompany Label = "COMPANY"
	LabelAddress Label = "ADDRESS"
)

// AllLabels is the fixed label set, in report order.
var AllLabels = []Label{
	LabelTotal,
	LabelDate,
	LabelCompany,
	LabelAddress,
}

// ParseLabel maps a case-insensitive label name onto the known set.
func ParseLabel(input string) (Label, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	for _, l := range AllLabels {
		if normalized == string(l) {
			return l, true
		}
	}
	return "", false
}

func (l Label) String() string {
	return string(l)
}
