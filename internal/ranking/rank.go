package ranking

import (
	"slices"
	"strings"

	"github.com/garyellow/harvard-gems/internal/stringutil"
)

// Candidate is anything that can be scored and has a meeting-time text.
type Candidate interface {
	ScoreInput() Input
	MeetingText() string
}

// Preferences are the caller's logistics preferences.
type Preferences struct {
	// PreferredTimes are substrings matched against the meeting text.
	PreferredTimes []string
}

// Result is a scored course. LogisticsFit is informational only; it does not
// affect ordering.
type Result[T any] struct {
	Course       T
	Score        int
	LogisticsFit int
}

// LogisticsFit is 1 when no preference is given or the meeting text contains
// any preferred substring, otherwise 0.
func LogisticsFit(meetingText string, preferred []string) int {
	hasPreference := false
	for _, p := range preferred {
		if strings.TrimSpace(p) != "" {
			hasPreference = true
			break
		}
	}
	if !hasPreference || stringutil.ContainsAnyFold(meetingText, preferred) {
		return 1
	}
	return 0
}

// Rank scores every course and returns them ordered by descending score.
// Equal scores keep their input order.
func Rank[T Candidate](courses []T, prefs Preferences) []Result[T] {
	results := make([]Result[T], 0, len(courses))
	for _, c := range courses {
		results = append(results, Result[T]{
			Course:       c,
			Score:        ComputeScore(c.ScoreInput()),
			LogisticsFit: LogisticsFit(c.MeetingText(), prefs.PreferredTimes),
		})
	}
	SortByScore(results)
	return results
}

// SortByScore stable-sorts results by descending score.
func SortByScore[T any](results []Result[T]) {
	slices.SortStableFunc(results, func(a, b Result[T]) int {
		return b.Score - a.Score
	})
}
