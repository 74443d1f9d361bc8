package gems

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyellow/harvard-gems/internal/catalog"
	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/evaluation"
)

func strPtr(s string) *string { return &s }

func TestQuery_Match(t *testing.T) {
	econ := MergedCourse{CourseID: "ECON 10A", Department: "ECON", Subject: "ECON", Title: "Principles of Economics", WorkloadHours: f64(5)}
	econHeavy := MergedCourse{CourseID: "ECON 1010A", Department: "ECON", Subject: "ECON", Title: "Intermediate Micro", WorkloadHours: f64(9)}
	econUnknown := MergedCourse{CourseID: "ECON 50", Department: "ECON", Subject: "ECON", Title: "Econ Lab"}
	astron := MergedCourse{CourseID: "ASTRON 2", Department: "ASTRON", Subject: "ASTRON", Title: "General Astronomy", WorkloadHours: f64(2)}
	gened := MergedCourse{CourseID: "GENED 1001", Department: "GENED", Subject: "GENED", Title: "Frankenstein", GenEdCategory: strPtr("Aesthetics and Culture")}
	genedOther := MergedCourse{CourseID: "GENED 1002", Department: "GENED", Subject: "GENED", Title: "Justice", GenEdCategory: strPtr("Ethics and Civics")}
	withFinal := MergedCourse{CourseID: "STAT 110", Department: "STAT", Subject: "STAT", FinalExam: boolPtr(true)}
	noFinal := MergedCourse{CourseID: "STAT 104", Department: "STAT", Subject: "STAT", FinalExam: boolPtr(false)}

	tests := []struct {
		name   string
		query  Query
		course MergedCourse
		want   bool
	}{
		{"empty query passes", Query{}, econ, true},
		{"max hours inclusive", Query{MaxHrsPerWeek: f64(5)}, econ, true},
		{"max hours exceeded", Query{MaxHrsPerWeek: f64(5)}, econHeavy, false},
		{"max hours null passes", Query{MaxHrsPerWeek: f64(5)}, econUnknown, true},
		{"conjunction both hold", Query{MaxHrsPerWeek: f64(5), Department: "ECON"}, econ, true},
		{"conjunction department fails", Query{MaxHrsPerWeek: f64(5), Department: "ECON"}, astron, false},
		{"conjunction hours fail", Query{MaxHrsPerWeek: f64(5), Department: "ECON"}, econHeavy, false},
		{"department matches title", Query{Department: "astronomy"}, astron, true},
		{"gened excludes title match", Query{Department: "gened"}, astron, false},
		{"gened exact subject", Query{Department: "GenEd"}, gened, true},
		{"no final rejects final", Query{NoFinal: true}, withFinal, false},
		{"no final accepts false", Query{NoFinal: true}, noFinal, true},
		{"no final accepts unknown", Query{NoFinal: true}, econ, true},
		{"course code exact", Query{CourseCode: "econ 10a"}, econ, true},
		{"course code not a substring", Query{CourseCode: "ECON 10"}, econ, false},
		{"course code offering prefix", Query{CourseCode: "ECON"}, econ, true},
		{"gened category match", Query{GenEdCategory: "aesthetics & culture"}, gened, true},
		{"gened category mismatch", Query{GenEdCategory: "Aesthetics and Culture"}, genedOther, false},
		{"gened category needs gened subject", Query{GenEdCategory: "Aesthetics and Culture"}, MergedCourse{Subject: "ENGLISH", GenEdCategory: strPtr("Aesthetics and Culture")}, false},
		{"gened mode ignores id prefix without catalog subject", Query{Department: "gened"}, MergedCourse{CourseID: "GENED 1004", Department: "GENED", Title: "Understanding Technology"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Match(tt.course))
		})
	}
}

func TestQuery_Validate(t *testing.T) {
	assert.NoError(t, Query{}.Validate())
	assert.True(t, domerrors.IsInvalidInput(Query{MaxHrsPerWeek: f64(-1)}.Validate()))
	assert.True(t, domerrors.IsInvalidInput(Query{Limit: -3}.Validate()))
	assert.True(t, domerrors.IsInvalidInput(Query{Filters: evaluation.Filters{MinRating: f64(9)}}.Validate()))
}

func TestMatchCourseCode(t *testing.T) {
	assert.True(t, MatchCourseCode("CS 50", ""))
	assert.True(t, MatchCourseCode("CS 50", "cs 50"))
	assert.True(t, MatchCourseCode("HIST 12 001", "HIST 12"))
	assert.False(t, MatchCourseCode("HIST 120", "HIST 12"))
}

func TestCourseFilters_Match(t *testing.T) {
	entry := catalog.Entry{
		CourseID: "ECON 10A",
		Subject:  "ECON",
		Term:     "2025-2026",
		Meeting:  catalog.Meeting{Weekdays: "Tue/Thu", Scheduled: true},
	}

	assert.True(t, CourseFilters{}.Match(entry))
	assert.True(t, CourseFilters{Term: "2025", Subject: "econ", Weekdays: "thu", CourseCode: "ECON 10A"}.Match(entry))
	assert.False(t, CourseFilters{Weekdays: "Mon"}.Match(entry))
	assert.False(t, CourseFilters{CourseCode: "ECON 10"}.Match(entry))
}
