package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeFold(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: nil,
		},
		{
			name:     "trims whitespace",
			input:    []string{"  maize  ", "beans  ", "  cassava"},
			expected: []string{"maize", "beans", "cassava"},
		},
		{
			name:     "case-insensitive duplicates keep first spelling",
			input:    []string{"Maize", "maize", "MAIZE", "beans"},
			expected: []string{"Maize", "beans"},
		},
		{
			name:     "removes blanks",
			input:    []string{"", "  ", "sorghum"},
			expected: []string{"sorghum"},
		},
		{
			name:     "only blanks",
			input:    []string{"", " ", "\t"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeFold(tt.input))
		})
	}
}
