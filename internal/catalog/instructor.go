package catalog

import (
	"strings"
)

// InstructorNotListed replaces instructor fields that hold no name.
const InstructorNotListed = "Not listed"

// strayWords are common English words that show up alone in the instructor
// column when description text bleeds into it.
var strayWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "this": {}, "that": {},
	"in": {}, "of": {}, "on": {}, "for": {}, "with": {}, "to": {},
	"is": {}, "are": {}, "will": {}, "we": {}, "our": {}, "how": {},
	"what": {}, "course": {}, "students": {}, "class": {}, "seminar": {},
	"introduction": {}, "tba": {}, "staff": {},
}

// bleedWords are trailing tokens stripped from otherwise valid names.
var bleedWords = map[string]struct{}{
	"this": {}, "the": {}, "in": {}, "students": {}, "course": {},
	"an": {}, "a": {}, "we": {}, "our": {}, "how": {}, "what": {},
}

// CleanInstructors is a best-effort fix for instructor text scraped together
// with the description that follows it. False positives are accepted.
func CleanInstructors(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return InstructorNotListed
	}
	if len(fields) == 1 && isStray(fields[0]) {
		return InstructorNotListed
	}

	for len(fields) > 1 {
		last := strings.ToLower(strings.Trim(fields[len(fields)-1], ".,;:"))
		if _, ok := bleedWords[last]; !ok {
			break
		}
		fields = fields[:len(fields)-1]
	}

	if len(fields) == 1 && isStray(fields[0]) {
		return InstructorNotListed
	}
	return strings.TrimRight(strings.Join(fields, " "), ",;")
}

func isStray(word string) bool {
	_, ok := strayWords[strings.ToLower(strings.Trim(word, ".,;:"))]
	return ok
}
