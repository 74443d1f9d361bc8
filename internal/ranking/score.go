// Package ranking scores merged courses on a 0-100 scale and orders them.
package ranking

import (
	"github.com/garyellow/harvard-gems/internal/stringutil"
)

// Score component caps.
const (
	MaxRatingPoints   = 50
	MaxWorkloadPoints = 40
	CommentBonus      = 10
	MaxScore          = 100
)

// Values substituted for missing data when scoring. A missing rating scores
// as 0 stars; a missing workload earns MissingWorkloadPoints, the same as a
// course over 10 hours a week.
const (
	MissingRating         = 0.0
	MissingWorkloadPoints = 0
)

// gemPhrases earn the comment bonus when found in the best comment.
var gemPhrases = []string{"gem", "easy class", "easy course"}

// Input carries the raw, possibly missing, scoring fields.
type Input struct {
	Rating        *float64
	WorkloadHours *float64
	BestComment   string
}

// resolved holds per-component points with missing values already decided.
type resolved struct {
	rating   int
	workload int
	comment  int
}

func (in Input) resolve() resolved {
	r := resolved{
		rating:   RatingPoints(MissingRating),
		workload: MissingWorkloadPoints,
		comment:  CommentPoints(in.BestComment),
	}
	if in.Rating != nil {
		r.rating = RatingPoints(*in.Rating)
	}
	if in.WorkloadHours != nil {
		r.workload = WorkloadPoints(*in.WorkloadHours)
	}
	return r
}

// ComputeScore returns the integer score in [0, 100].
func ComputeScore(in Input) int {
	r := in.resolve()
	return min(max(r.rating+r.workload+r.comment, 0), MaxScore)
}

// RatingPoints bands are inclusive at the lower bound, highest first.
func RatingPoints(rating float64) int {
	switch {
	case rating >= 4.5:
		return 50
	case rating >= 4.0:
		return 40
	case rating >= 3.5:
		return 30
	case rating >= 3.0:
		return 20
	default:
		return 10
	}
}

// WorkloadPoints bands are inclusive at the upper bound, lightest first.
func WorkloadPoints(hours float64) int {
	switch {
	case hours <= 3:
		return 40
	case hours <= 5:
		return 30
	case hours <= 8:
		return 20
	case hours <= 10:
		return 10
	default:
		return 0
	}
}

// CommentPoints returns CommentBonus when the comment calls the course a gem
// or an easy class.
func CommentPoints(comment string) int {
	if stringutil.ContainsAnyFold(comment, gemPhrases) {
		return CommentBonus
	}
	return 0
}
