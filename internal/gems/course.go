package gems

import (
	"github.com/garyellow/harvard-gems/internal/assessment"
	"github.com/garyellow/harvard-gems/internal/catalog"
	"github.com/garyellow/harvard-gems/internal/courseid"
	"github.com/garyellow/harvard-gems/internal/evaluation"
	"github.com/garyellow/harvard-gems/internal/ranking"
	"github.com/garyellow/harvard-gems/internal/stringutil"
)

// Unknown fills title and department when neither source has one.
const Unknown = "Unknown"

// Synthetic values used in fallback mode, when no evaluation data exists.
const (
	DefaultRating         = 4.0
	DefaultWorkloadHours  = 6.0
	DefaultSentimentScore = 0.5
)

// Provenance says where a course's quality signal came from.
type Provenance string

const (
	// ProvenanceEvaluation means rating and workload are real evaluation data.
	ProvenanceEvaluation Provenance = "evaluation"
	// ProvenanceCatalogFallback means the course was built from the catalog
	// alone and carries synthetic default rating and workload.
	ProvenanceCatalogFallback Provenance = "catalog_fallback"
)

// MergedCourse is one course assembled from every source.
type MergedCourse struct {
	CourseID   string `json:"courseId"`
	Title      string `json:"title"`
	Department string `json:"department"`
	Subject    string `json:"subject"` // catalog subject; empty without a catalog match
	Term       string `json:"term,omitempty"`
	Credits    string `json:"credits,omitempty"`

	Rating         *float64 `json:"rating"`
	WorkloadHours  *float64 `json:"workloadHours"`
	Recommendation *float64 `json:"recommendation"`
	SentimentScore *float64 `json:"sentimentScore"`
	GemProbability *float64 `json:"gemProbability"`
	BestComment    string   `json:"bestComment,omitempty"`
	ResponseCount  *int     `json:"responseCount"`
	EvaluationLink string   `json:"evaluationLink,omitempty"`

	Weekdays     string `json:"weekdays"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	MeetingTime  string `json:"meetingTime"`
	Instructors  string `json:"instructors,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	Distribution string `json:"distribution,omitempty"`
	Description  string `json:"description,omitempty"`

	AssessmentLightness *float64 `json:"assessmentLightness"`
	FinalExam           *bool    `json:"finalExam"`
	GenEdCategory       *string  `json:"genEdCategory"`

	Provenance     Provenance `json:"provenance"`
	CatalogMatched bool       `json:"catalogMatched"`
	UsesDefaults   bool       `json:"usesDefaults"`
}

// ScoreInput implements ranking.Candidate.
func (c MergedCourse) ScoreInput() ranking.Input {
	return ranking.Input{
		Rating:        c.Rating,
		WorkloadHours: c.WorkloadHours,
		BestComment:   c.BestComment,
	}
}

// MeetingText implements ranking.Candidate.
func (c MergedCourse) MeetingText() string {
	return c.MeetingTime
}

// Merge combines an evaluation record with its catalog entry (nil when
// unmatched). Precedence by field:
//
//	meeting, instructors, requirements, distribution  catalog, then evaluation
//	rating, workload, sentiment, link, comment, ...   evaluation only
//	title, department, description                    evaluation, catalog, Unknown/""
//	term, credits                                     catalog only
//
// The result's CourseID is the normalized evaluation id so that sections of
// one course collapse together.
func Merge(rec evaluation.Record, entry *catalog.Entry) MergedCourse {
	var cat catalog.Entry
	if entry != nil {
		cat = *entry
	}

	meeting := catalog.ParseMeeting(rec.Weekdays, rec.StartTime, rec.EndTime)
	if entry != nil && cat.Meeting.Scheduled {
		meeting = cat.Meeting
	}

	id := courseid.Normalize(rec.CourseID)
	distribution := stringutil.FirstNonEmpty(cat.Distribution, rec.DistributionTag)

	return MergedCourse{
		CourseID:   id,
		Title:      stringutil.FirstNonEmpty(rec.Title, cat.Title, Unknown),
		Department: stringutil.FirstNonEmpty(rec.Department, cat.Department, Unknown),
		Subject:    cat.Subject,
		Term:       cat.Term,
		Credits:    cat.Credits,

		Rating:         rec.Rating,
		WorkloadHours:  rec.WorkloadHours,
		Recommendation: rec.Recommendation,
		SentimentScore: rec.SentimentScore,
		GemProbability: rec.GemProbability,
		BestComment:    rec.BestComment,
		ResponseCount:  rec.ResponseCount,
		EvaluationLink: rec.EvaluationLink,

		Weekdays:     meeting.Weekdays,
		StartTime:    meeting.StartTime,
		EndTime:      meeting.EndTime,
		MeetingTime:  meeting.Text(),
		Instructors:  cat.Instructors,
		Requirements: cat.Requirements,
		Distribution: distribution,
		Description:  stringutil.FirstNonEmpty(rec.Description, cat.Description),

		GenEdCategory: genEdCategory(distribution),

		Provenance:     ProvenanceEvaluation,
		CatalogMatched: entry != nil,
	}
}

// FromCatalog builds a fallback course with synthetic quality values.
func FromCatalog(entry catalog.Entry) MergedCourse {
	rating, workload, sentiment := DefaultRating, DefaultWorkloadHours, DefaultSentimentScore
	id := courseid.Normalize(entry.CourseID)

	return MergedCourse{
		CourseID:   id,
		Title:      stringutil.FirstNonEmpty(entry.Title, Unknown),
		Department: stringutil.FirstNonEmpty(entry.Department, entry.Subject, Unknown),
		Subject:    entry.Subject,
		Term:       entry.Term,
		Credits:    entry.Credits,

		Rating:         &rating,
		WorkloadHours:  &workload,
		SentimentScore: &sentiment,

		Weekdays:     entry.Meeting.Weekdays,
		StartTime:    entry.Meeting.StartTime,
		EndTime:      entry.Meeting.EndTime,
		MeetingTime:  entry.Meeting.Text(),
		Instructors:  entry.Instructors,
		Requirements: entry.Requirements,
		Distribution: entry.Distribution,
		Description:  entry.Description,

		GenEdCategory: genEdCategory(entry.Distribution),

		Provenance:     ProvenanceCatalogFallback,
		CatalogMatched: true,
		UsesDefaults:   true,
	}
}

// WithSignal attaches assessment signals.
func (c MergedCourse) WithSignal(sig assessment.Signal) MergedCourse {
	c.AssessmentLightness = sig.AssessmentLightness
	c.FinalExam = sig.FinalExam
	return c
}

func genEdCategory(distribution string) *string {
	if c := catalog.DeriveGenEdCategory(distribution); c != "" {
		return &c
	}
	return nil
}
