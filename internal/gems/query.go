package gems

import (
	"math"
	"strings"

	"github.com/garyellow/harvard-gems/internal/catalog"
	"github.com/garyellow/harvard-gems/internal/courseid"
	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/evaluation"
	"github.com/garyellow/harvard-gems/internal/stringutil"
)

// genEdDepartment selects exact GenEd mode in the department filter.
const genEdDepartment = "gened"

// Query configures FindGems. Filters apply while loading evaluations; the
// remaining fields apply to merged courses.
type Query struct {
	Filters evaluation.Filters `json:"filters"`

	MaxHrsPerWeek  *float64 `json:"maxHrsPerWeek,omitempty"`
	NoFinal        bool     `json:"noFinal,omitempty"`
	Department     string   `json:"department,omitempty"`
	CourseCode     string   `json:"courseCode,omitempty"`
	GenEdCategory  string   `json:"genEdCategory,omitempty"`
	PreferredTimes []string `json:"preferredTimes,omitempty"`

	// Limit caps the number of ranked courses returned; 0 means no cap.
	Limit int `json:"limit,omitempty"`
}

// Validate rejects malformed query shapes.
func (q Query) Validate() error {
	if err := q.Filters.Validate(); err != nil {
		return err
	}
	if q.MaxHrsPerWeek != nil {
		v := *q.MaxHrsPerWeek
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return domerrors.NewValidationError("maxHrsPerWeek", "must be a non-negative number")
		}
	}
	if q.Limit < 0 {
		return domerrors.NewValidationError("limit", "must not be negative")
	}
	return nil
}

// Match reports whether a merged course passes every post-merge filter.
func (q Query) Match(c MergedCourse) bool {
	if q.MaxHrsPerWeek != nil && c.WorkloadHours != nil && *c.WorkloadHours > *q.MaxHrsPerWeek {
		return false
	}
	// Unknown exam status counts as no final.
	if q.NoFinal && c.FinalExam != nil && *c.FinalExam {
		return false
	}
	if !matchDepartment(c, q.Department) {
		return false
	}
	if !MatchCourseCode(c.CourseID, q.CourseCode) {
		return false
	}
	if cat := strings.TrimSpace(q.GenEdCategory); cat != "" {
		if c.Subject != catalog.GenEdSubject || c.GenEdCategory == nil || !catalog.SameGenEdCategory(*c.GenEdCategory, cat) {
			return false
		}
	}
	return true
}

func matchDepartment(c MergedCourse, dept string) bool {
	dept = strings.TrimSpace(dept)
	if dept == "" {
		return true
	}
	if strings.EqualFold(dept, genEdDepartment) {
		return c.Subject == catalog.GenEdSubject
	}
	return stringutil.ContainsFold(c.Department, dept) ||
		stringutil.ContainsFold(c.CourseID, dept) ||
		stringutil.ContainsFold(c.Title, dept)
}

// MatchCourseCode reports whether id equals code or is an offering of it
// (code followed by a space). An empty code matches everything.
func MatchCourseCode(id, code string) bool {
	code = courseid.Key(code)
	if code == "" {
		return true
	}
	key := courseid.Key(id)
	return key == code || strings.HasPrefix(key, code+" ")
}

// CourseFilters narrows GetAllAvailableCourses. Term, Subject and Weekdays
// are case-insensitive substrings; CourseCode is exact or offering-prefix.
type CourseFilters struct {
	Term       string `form:"term" json:"term,omitempty"`
	Subject    string `form:"subject" json:"subject,omitempty"`
	Weekdays   string `form:"weekdays" json:"weekdays,omitempty"`
	CourseCode string `form:"courseCode" json:"courseCode,omitempty"`
}

// Match reports whether a catalog entry passes every set filter.
func (f CourseFilters) Match(e catalog.Entry) bool {
	return stringutil.ContainsFold(e.Term, strings.TrimSpace(f.Term)) &&
		stringutil.ContainsFold(e.Subject, strings.TrimSpace(f.Subject)) &&
		stringutil.ContainsFold(e.Meeting.Weekdays, strings.TrimSpace(f.Weekdays)) &&
		MatchCourseCode(e.CourseID, f.CourseCode)
}
