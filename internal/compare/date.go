package compare

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Date matches values that normalize to the same calendar day.
type Date struct{}

func (Date) Compare(a, b *string) bool {
	return byNormalForm(a, b, NormalizeDate)
}

// twoDigitYearPivot splits two-digit years: yy >= pivot is 20yy, below is 19yy.
const twoDigitYearPivot = 20

type dateOrder int

const (
	dayMonthYear dateOrder = iota
	yearMonthDay
)

type datePattern struct {
	re    *regexp.Regexp
	order dateOrder
	short bool
}

// datePatterns are tried in order and the first one found anywhere in the
// value wins. The order matters for ambiguous strings.
var datePatterns = []datePattern{
	// 21.02.2023, 21 . 2 . 2023, 15.11 2021
	{re: regexp.MustCompile(`([0-9]{1,2})(?:\s?\.\s?|\s)([0-9]{1,2})(?:\s?\.\s?|\s)([0-9]{4})`), order: dayMonthYear},
	// 2023/02/21
	{re: regexp.MustCompile(`([0-9]{4})\s?/\s?([0-9]{1,2})\s?/\s?([0-9]{1,2})`), order: yearMonthDay},
	// 21/02/2023
	{re: regexp.MustCompile(`([0-9]{1,2})\s?/\s?([0-9]{1,2})\s?/\s?([0-9]{4})`), order: dayMonthYear},
	// 2023-02-21
	{re: regexp.MustCompile(`([0-9]{4})(?:-|\s)([0-9]{2})(?:-|\s)([0-9]{2})`), order: yearMonthDay},
	// 21-2-2023, 21-2 2023
	{re: regexp.MustCompile(`([0-9]{1,2})(?:-|\s)([0-9]{1,2})(?:-|\s)([0-9]{4})`), order: dayMonthYear},
	// 21.02.23
	{re: regexp.MustCompile(`([0-9]{1,2})(?:\s?\.\s?|\s)([0-9]{1,2})(?:\s?\.\s?|\s)([0-9]{2})`), order: dayMonthYear, short: true},
}

// NormalizeDate finds the first known date form inside value and renders it
// as YYYY-MM-DD. Day and month are not range checked.
func NormalizeDate(value string) (string, bool) {
	for _, p := range datePatterns {
		idx := p.re.FindStringSubmatchIndex(value)
		if idx == nil {
			continue
		}
		if !plainSeparator(value[idx[3]:idx[4]]) || !plainSeparator(value[idx[5]:idx[6]]) {
			return "", false
		}
		m := [4]string{"", value[idx[2]:idx[3]], value[idx[4]:idx[5]], value[idx[6]:idx[7]]}
		var year, month, day string
		switch p.order {
		case yearMonthDay:
			year, month, day = m[1], m[2], m[3]
		default:
			day, month, year = m[1], m[2], m[3]
		}
		if p.short {
			yy, err := strconv.Atoi(year)
			if err != nil {
				return "", false
			}
			year = strconv.Itoa(expandTwoDigitYear(yy))
		}
		return fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day)), true
	}
	return "", false
}

// plainSeparator rejects whitespace-only separators other than a single space.
func plainSeparator(sep string) bool {
	return sep == " " || strings.TrimSpace(sep) != ""
}

func expandTwoDigitYear(yy int) int {
	if yy >= twoDigitYearPivot {
		return 2000 + yy
	}
	return 1900 + yy
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
