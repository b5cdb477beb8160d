package sqlite

import (
	"testing"
)

func TestConvertWebsearchToFTS5(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple term",
			input:    "ramet",
			expected: `"ramet"`,
		},
		{
			name:     "multiple terms",
			input:    "marcel ramet",
			expected: `"marcel" AND "ramet"`,
		},
		{
			name:     "explicit AND",
			input:    "marcel AND ramet",
			expected: `"marcel" AND "ramet"`,
		},
		{
			name:     "explicit OR",
			input:    "paris or lyon",
			expected: `"paris" OR "lyon"`,
		},
		{
			name:     "negation",
			input:    "ramet -jeanne",
			expected: `"ramet" NOT "jeanne"`,
		},
		{
			name:     "AND NOT collapses",
			input:    "ramet AND NOT jeanne",
			expected: `"ramet" NOT "jeanne"`,
		},
		{
			name:     "phrase",
			input:    `"jeanne dubois"`,
			expected: `"jeanne dubois"`,
		},
		{
			name:     "phrase with other term",
			input:    `"jeanne dubois" paris`,
			expected: `"jeanne dubois" AND "paris"`,
		},
		{
			name:     "unterminated phrase",
			input:    `"jeanne dubois`,
			expected: `"jeanne dubois"`,
		},
		{
			name:     "prefix search",
			input:    "ram*",
			expected: `"ram"*`,
		},
		{
			name:     "leading negation dropped",
			input:    "-jeanne",
			expected: "",
		},
		{
			name:     "dangling operators dropped",
			input:    "OR ramet AND",
			expected: `"ramet"`,
		},
		{
			name:     "punctuation is quoted",
			input:    "M. Ramet",
			expected: `"M." AND "Ramet"`,
		},
		{
			name:     "embedded quote escaped",
			input:    `o"brien`,
			expected: `"o" AND "brien"`,
		},
		{
			name:     "complex query",
			input:    `"jeanne dubois" -paris lyon OR marseille`,
			expected: `"jeanne dubois" NOT "paris" AND "lyon" OR "marseille"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertWebsearchToFTS5(tt.input)
			if result != tt.expected {
				t.Errorf("convertWebsearchToFTS5(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
