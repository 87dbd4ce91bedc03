package loader

import (
	"regexp"
	"strconv"
	"strings"
)

// countPatterns are tried in order against the review counter label.
var countPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\((\d{1,3}(?:,\d{3})*)\)`), // (1,234)
	regexp.MustCompile(`\((\d+)\)`),                // (1234)
	regexp.MustCompile(`(\d{1,3}(?:,\d{3})+)`),     // 1,234
	regexp.MustCompile(`(\d+)`),                    // 1234
}

// MatchCount returns the digits of the first pattern matching label with
// grouping commas removed, or false when no pattern matches.
func MatchCount(label string) (string, bool) {
	for _, pattern := range countPatterns {
		if m := pattern.FindStringSubmatch(label); m != nil {
			return strings.ReplaceAll(m[1], ",", ""), true
		}
	}
	return "", false
}

// ParseTargetCount parses the expected total from a counter label such as
// "리뷰 (1,234)". Zero means the label could not be parsed.
func ParseTargetCount(label string) int {
	digits, ok := MatchCount(label)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
