package ocr

import (
	"regexp"
	"strings"
)

var (
	reMultiSpace = regexp.MustCompile(`\s+`)
	// separator rules such as "-----" or "____"
	reRuleNoise = regexp.MustCompile(`^[_\-=~.*]{3,}$`)
)

// normalizeWord collapses whitespace inside a recognized word and blanks out
// separator rules so they are dropped with the other empty words.
func normalizeWord(s string) string {
	s = strings.TrimSpace(reMultiSpace.ReplaceAllString(s, " "))
	if reRuleNoise.MatchString(s) {
		return ""
	}
	return s
}
