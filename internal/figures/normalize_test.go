package figures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases",
			input:    "Isaac Newton",
			expected: "isaac newton",
		},
		{
			name:     "trims surrounding whitespace",
			input:    "  Marie Curie  ",
			expected: "marie curie",
		},
		{
			name:     "collapses internal whitespace runs",
			input:    "Wolfgang   Amadeus \t Mozart",
			expected: "wolfgang amadeus mozart",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    " \t\n ",
			expected: "",
		},
		{
			name:     "already canonical",
			input:    "ada lovelace",
			expected: "ada lovelace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Isaac Newton",
		"  MARIE   CURIE ",
		"",
		"x",
		"  \t ",
		"Émilie du Châtelet",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", in)
	}
}
