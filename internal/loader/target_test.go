package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTargetCount(t *testing.T) {
	testCases := []struct {
		label    string
		expected int
	}{
		{"(1,234)", 1234},
		{"상품리뷰 (1,234)", 1234},
		{"(42)", 42},
		{"(1234)", 1234},
		{"1,234", 1234},
		{"리뷰 12,345,678건", 12345678},
		{"7 items", 7},
		{"리뷰 12345", 12345},
		{"\n\t(0)\n", 0},
		{"리뷰", 0},
		{"", 0},
		{"(99999999999999999999999)", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseTargetCount(tc.label))
		})
	}
}

func TestMatchCount(t *testing.T) {
	digits, ok := MatchCount("리뷰 (2,048)")
	assert.True(t, ok)
	assert.Equal(t, "2048", digits)

	_, ok = MatchCount("no digits here")
	assert.False(t, ok)
}
