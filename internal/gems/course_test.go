package gems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/harvard-gems/internal/assessment"
	"github.com/garyellow/harvard-gems/internal/catalog"
	"github.com/garyellow/harvard-gems/internal/evaluation"
)

func f64(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func TestMerge_Precedence(t *testing.T) {
	rec := evaluation.Record{
		CourseID:        "CS 50 001",
		Title:           "CS50",
		Department:      "CS",
		Rating:          f64(4.2),
		WorkloadHours:   f64(14),
		SentimentScore:  f64(0.7),
		EvaluationLink:  "https://q.example/cs50",
		Description:     "",
		DistributionTag: "Science and Technology in Society",
		Weekdays:        "TR",
		StartTime:       "1:00 PM",
		EndTime:         "2:15 PM",
	}
	entry := &catalog.Entry{
		CourseID:     "CS 50",
		Subject:      "COMPSCI",
		Title:        "Introduction to Computer Science",
		Department:   "Computer Science",
		Term:         "Fall 2025",
		Meeting:      catalog.Meeting{Weekdays: "Mon/Wed", StartTime: "10:30 AM", EndTime: "11:45 AM", Scheduled: true},
		Instructors:  "David Malan",
		Requirements: "None",
		Description:  "Programming",
	}

	got := Merge(rec, entry)

	assert.Equal(t, "CS 50", got.CourseID, "canonical id drops the section")
	assert.Equal(t, "CS50", got.Title, "evaluation title wins")
	assert.Equal(t, "CS", got.Department)
	assert.Equal(t, "COMPSCI", got.Subject)
	assert.Equal(t, "Programming", got.Description, "empty evaluation description falls back to catalog")
	assert.Equal(t, "Mon/Wed", got.Weekdays, "catalog meeting wins")
	assert.Equal(t, "Mon/Wed 10:30 AM-11:45 AM", got.MeetingTime)
	assert.Equal(t, "David Malan", got.Instructors)
	assert.Equal(t, "None", got.Requirements)
	assert.Equal(t, "Science and Technology in Society", got.Distribution)
	require.NotNil(t, got.GenEdCategory)
	assert.Equal(t, "Science and Technology in Society", *got.GenEdCategory)
	assert.Equal(t, 4.2, *got.Rating)
	assert.Equal(t, 14.0, *got.WorkloadHours)
	assert.Equal(t, "https://q.example/cs50", got.EvaluationLink)
	assert.Equal(t, "Fall 2025", got.Term)
	assert.Equal(t, ProvenanceEvaluation, got.Provenance)
	assert.True(t, got.CatalogMatched)
	assert.False(t, got.UsesDefaults)
	assert.Nil(t, got.FinalExam)
}

func TestMerge_DepartmentFallsBackToCatalog(t *testing.T) {
	rec := evaluation.Record{CourseID: "CS 50 001", Rating: f64(4.2)}
	entry := &catalog.Entry{CourseID: "CS 50", Subject: "COMPSCI", Department: "Computer Science"}

	assert.Equal(t, "Computer Science", Merge(rec, entry).Department)
	assert.Equal(t, Unknown, Merge(rec, nil).Department)
}

func TestMerge_Unmatched(t *testing.T) {
	rec := evaluation.Record{
		CourseID:   "PHYS 15A",
		Department: "PHYS",
		Rating:     f64(3.1),
		Weekdays:   "MWF",
		StartTime:  "9:00 AM",
		EndTime:    "9:50 AM",
	}

	got := Merge(rec, nil)

	assert.Equal(t, "PHYS 15A", got.CourseID)
	assert.Equal(t, Unknown, got.Title)
	assert.Empty(t, got.Subject, "subject comes only from the catalog")
	assert.Equal(t, "Mon/Wed/Fri 9:00 AM-9:50 AM", got.MeetingTime, "evaluation meeting used without catalog")
	assert.Empty(t, got.Instructors)
	assert.Nil(t, got.GenEdCategory)
	assert.False(t, got.CatalogMatched)
}

func TestMerge_CatalogWithoutMeetingKeepsEvaluationMeeting(t *testing.T) {
	rec := evaluation.Record{CourseID: "HIST 12", Weekdays: "MW", StartTime: "3:00 PM", EndTime: "4:15 PM"}
	entry := &catalog.Entry{CourseID: "HIST 12", Subject: "HIST"}

	got := Merge(rec, entry)
	assert.Equal(t, "Mon/Wed 3:00 PM-4:15 PM", got.MeetingTime)
}

func TestMerge_NoMeetingAnywhere(t *testing.T) {
	got := Merge(evaluation.Record{CourseID: "HIST 12"}, nil)
	assert.Equal(t, catalog.NoMeetingText, got.MeetingTime)
	assert.Empty(t, got.Weekdays)
}

func TestFromCatalog(t *testing.T) {
	entry := catalog.Entry{
		CourseID:     "GENED 1001 001",
		Subject:      "GENED",
		Title:        "Frankenstein",
		Distribution: "Aesthetics and Culture",
		Meeting:      catalog.Meeting{Weekdays: "Fri", Scheduled: true},
	}

	got := FromCatalog(entry)

	assert.Equal(t, "GENED 1001", got.CourseID)
	assert.Equal(t, DefaultRating, *got.Rating)
	assert.Equal(t, DefaultWorkloadHours, *got.WorkloadHours)
	assert.Equal(t, DefaultSentimentScore, *got.SentimentScore)
	assert.True(t, got.UsesDefaults)
	assert.Equal(t, ProvenanceCatalogFallback, got.Provenance)
	require.NotNil(t, got.GenEdCategory)
	assert.Equal(t, "Aesthetics and Culture", *got.GenEdCategory)
	assert.Equal(t, "Fri", got.MeetingTime)
}

func TestWithSignal(t *testing.T) {
	c := MergedCourse{CourseID: "CS 50"}.WithSignal(assessment.Signal{
		AssessmentLightness: f64(0.3),
		FinalExam:           boolPtr(true),
	})
	assert.Equal(t, 0.3, *c.AssessmentLightness)
	assert.True(t, *c.FinalExam)
}
