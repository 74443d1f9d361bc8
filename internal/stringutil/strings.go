// Package stringutil provides common string manipulation utilities.
package stringutil

import "strings"

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ContainsFold reports whether substr is within s, ignoring case.
// An empty substr always matches.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ContainsAnyFold reports whether s contains any of the candidates, ignoring case.
// Empty candidates are skipped; an empty candidate list never matches.
//
// Example:
//
//	ContainsAnyFold("This is such a GEM", []string{"gem", "easy class"}) returns true
func ContainsAnyFold(s string, candidates []string) bool {
	lower := strings.ToLower(s)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// CollapseSpaces trims s and replaces every run of whitespace with a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FirstNonEmpty returns the first argument that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
