// Package courseid canonicalizes course identifiers across sources.
//
// Identifiers look like "SUBJECT NUMBER [SECTION]", e.g. "ANTHRO 97Z 001".
// A trailing three-digit group in 001-099 is a section suffix; 100-999 is an
// ordinary course number ("APMTH 109") and is never stripped.
package courseid

import (
	"strconv"
	"strings"

	"github.com/garyellow/harvard-gems/internal/stringutil"
)

// Department alias pair: both codes name the same subject.
const (
	AliasShort     = "CS"
	AliasCanonical = "COMPSCI"
)

// Normalize returns the canonical base identifier by removing a trailing
// section suffix in 001-099. Whitespace runs collapse to single spaces.
// Normalize is idempotent.
func Normalize(id string) string {
	fields := strings.Fields(id)
	if len(fields) < 2 {
		return strings.Join(fields, " ")
	}
	if IsSectionSuffix(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// IsSectionSuffix reports whether s is exactly three digits in 001-099.
func IsSectionSuffix(s string) bool {
	if len(s) != 3 || !stringutil.IsNumeric(s) {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 99
}

// Compose joins a subject and course number into an identifier.
func Compose(subject, number string) string {
	subject = strings.TrimSpace(subject)
	number = strings.TrimSpace(number)
	switch {
	case subject == "":
		return number
	case number == "":
		return subject
	default:
		return subject + " " + number
	}
}

// Subject returns the leading subject token of an identifier.
func Subject(id string) string {
	fields := strings.Fields(id)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SwapAlias replaces a leading alias subject with its counterpart.
// ok is false when the identifier does not start with either alias.
func SwapAlias(id string) (swapped string, ok bool) {
	fields := strings.Fields(id)
	if len(fields) == 0 {
		return "", false
	}
	switch strings.ToUpper(fields[0]) {
	case AliasShort:
		fields[0] = AliasCanonical
	case AliasCanonical:
		fields[0] = AliasShort
	default:
		return "", false
	}
	return strings.Join(fields, " "), true
}

// Key is the case-folded form used for map lookups.
func Key(id string) string {
	return strings.ToUpper(strings.Join(strings.Fields(id), " "))
}
