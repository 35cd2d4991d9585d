// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeFold trims each element, drops blanks and removes duplicates using
// case-insensitive comparison. The first spelling of each value wins and
// order is preserved.
//
// Example:
//
//	DedupeFold([]string{" Maize", "beans", "MAIZE", "", "  "})
//	// Returns: []string{"Maize", "beans"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}
