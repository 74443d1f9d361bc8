// Package evaluation loads historical Q-Report evaluation summaries and
// filters them in memory.
package evaluation

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/garyellow/harvard-gems/internal/courseid"
	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/record"
	"github.com/garyellow/harvard-gems/internal/stringutil"
)

const sourceName = "evaluation"

// Record is one historical evaluation summary. Nil numeric fields mean the
// source had no usable value.
type Record struct {
	CourseID        string   `json:"courseId"`
	Title           string   `json:"title"`
	Department      string   `json:"department"` // source department column; empty when absent
	Rating          *float64 `json:"rating"`
	WorkloadHours   *float64 `json:"workloadHours"`
	Recommendation  *float64 `json:"recommendation"`
	SentimentScore  *float64 `json:"sentimentScore"`
	GemProbability  *float64 `json:"gemProbability"`
	BestComment     string   `json:"bestComment,omitempty"`
	ResponseCount   *int     `json:"responseCount"`
	EvaluationLink  string   `json:"evaluationLink,omitempty"`
	Description     string   `json:"description,omitempty"`
	DistributionTag string   `json:"distributionTag,omitempty"`
	Weekdays        string   `json:"weekdays,omitempty"`
	StartTime       string   `json:"startTime,omitempty"`
	EndTime         string   `json:"endTime,omitempty"`
}

// Filters narrows Query results. All set filters must hold. Threshold
// filters reject records whose field is nil.
type Filters struct {
	Department        string   `json:"department,omitempty"`
	Keyword           string   `json:"titleSearch,omitempty"`
	MinRating         *float64 `json:"minRating,omitempty"`
	MaxWorkload       *float64 `json:"maxHrsPerWeek,omitempty"`
	MinGemProbability *float64 `json:"minGemProbability,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.Department) == "" &&
		strings.TrimSpace(f.Keyword) == "" &&
		f.MinRating == nil && f.MaxWorkload == nil && f.MinGemProbability == nil
}

// Validate rejects malformed thresholds.
func (f Filters) Validate() error {
	checks := []struct {
		field string
		value *float64
	}{
		{"minRating", f.MinRating},
		{"maxHrsPerWeek", f.MaxWorkload},
		{"minGemProbability", f.MinGemProbability},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if math.IsNaN(*c.value) || math.IsInf(*c.value, 0) || *c.value < 0 {
			return domerrors.NewValidationError(c.field, "must be a non-negative number")
		}
	}
	if f.MinRating != nil && *f.MinRating > 5 {
		return domerrors.NewValidationError("minRating", "must be between 0 and 5")
	}
	return nil
}

// Match reports whether r satisfies every set filter.
func (f Filters) Match(r Record) bool {
	if d := strings.TrimSpace(f.Department); d != "" {
		if !stringutil.ContainsFold(r.Department, d) &&
			!stringutil.ContainsFold(courseid.Subject(r.CourseID), d) &&
			!stringutil.ContainsFold(r.Title, d) {
			return false
		}
	}
	if k := strings.TrimSpace(f.Keyword); k != "" {
		if !stringutil.ContainsFold(r.Title, k) && !stringutil.ContainsFold(r.Description, k) {
			return false
		}
	}
	if f.MinRating != nil && (r.Rating == nil || *r.Rating < *f.MinRating) {
		return false
	}
	if f.MaxWorkload != nil && (r.WorkloadHours == nil || *r.WorkloadHours > *f.MaxWorkload) {
		return false
	}
	if f.MinGemProbability != nil && (r.GemProbability == nil || *r.GemProbability < *f.MinGemProbability) {
		return false
	}
	return true
}

// Store holds evaluation records in memory, loaded once on first access.
type Store struct {
	path    string
	log     *logger.Logger
	metrics *metrics.Metrics

	once    sync.Once
	records []Record
	stats   record.LoadStats
}

// NewStore creates a store backed by the file at path. metrics may be nil.
func NewStore(path string, log *logger.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{
		path:    path,
		log:     log.WithModule("evaluation"),
		metrics: m,
	}
}

// NewStoreFromRecords creates an already-loaded store. Records without a
// course id are dropped.
func NewStoreFromRecords(records []Record, log *logger.Logger) *Store {
	s := NewStore("", log, nil)
	s.once.Do(func() {
		s.stats.Source = sourceName
		for _, r := range records {
			if strings.TrimSpace(r.CourseID) == "" {
				s.stats.Dropped++
				continue
			}
			s.records = append(s.records, r)
		}
		s.stats.Loaded = len(s.records)
	})
	return s
}

// Warm loads the source if it has not been loaded yet.
func (s *Store) Warm() record.LoadStats {
	s.once.Do(s.load)
	return s.stats
}

// Stats returns the outcome of the load, loading first if needed.
func (s *Store) Stats() record.LoadStats {
	return s.Warm()
}

// LoadAll returns a copy of every record. A missing file yields an empty slice.
func (s *Store) LoadAll() []Record {
	s.once.Do(s.load)
	return slices.Clone(s.records)
}

// Query returns the records matching f. Only a malformed filter is an error.
func (s *Store) Query(f Filters) ([]Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s.once.Do(s.load)

	var out []Record
	for _, r := range s.records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) load() {
	table, stats := record.LoadTable(s.path, sourceName, s.log)
	s.stats = stats
	if table != nil {
		s.records = s.parse(table)
	}
	s.stats.Loaded = len(s.records)

	if s.metrics != nil {
		s.metrics.RecordSourceLoad(sourceName, s.stats.Status(), s.stats.Duration.Seconds())
		s.metrics.SetSourceRecords(sourceName, len(s.records))
		s.metrics.RecordRowsSkipped(sourceName, s.stats.Skipped)
	}

	s.log.WithFields(map[string]any{
		"loaded":  s.stats.Loaded,
		"skipped": s.stats.Skipped,
		"dropped": s.stats.Dropped,
		"ms":      s.stats.Duration.Milliseconds(),
	}).Info("Evaluations loaded")
}

type columns struct {
	code, title, department, rating, workload, recommend, sentiment string
	gemProb, comment, respondents, link                             string
	description, gened, weekdays, start, end                        string
}

func resolveColumns(t *record.Table) columns {
	return columns{
		code:        t.Column("course code", "course id", "code"),
		title:       t.Column("course title", "title"),
		department:  t.Column("department", "dept"),
		rating:      t.Column("course rating", "overall rating", "rating"),
		workload:    t.Column("workload"),
		recommend:   t.Column("recommend"),
		sentiment:   t.Column("sentiment"),
		gemProb:     t.Column("gem prob", "probability"),
		comment:     t.Column("comment"),
		respondents: t.Column("respondent", "response"),
		link:        t.Column("link", "url"),
		description: t.Column("description"),
		gened:       t.Column("gen ed", "gened", "distribution"),
		weekdays:    t.Column("weekday", "days"),
		start:       t.Column("start"),
		end:         t.Column("end time"),
	}
}

func (s *Store) parse(t *record.Table) []Record {
	cols := resolveColumns(t)
	if cols.code == "" {
		s.log.WithField("header", t.Header).Warn("Evaluation source has no course code column")
		s.stats.Dropped += len(t.Rows)
		return nil
	}

	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := stringutil.CollapseSpaces(row.Get(cols.code))
		if id == "" {
			s.stats.Dropped++
			continue
		}

		rating := parseNumber(row.Get(cols.rating))
		if rating != nil && (*rating < 0 || *rating > 5) {
			rating = nil
		}
		workload := parseNumber(row.Get(cols.workload))
		if workload != nil && *workload < 0 {
			workload = nil
		}

		records = append(records, Record{
			CourseID:        id,
			Title:           row.Get(cols.title),
			Department:      row.Get(cols.department),
			Rating:          rating,
			WorkloadHours:   workload,
			Recommendation:  parseNumber(row.Get(cols.recommend)),
			SentimentScore:  parseNumber(row.Get(cols.sentiment)),
			GemProbability:  parseNumber(row.Get(cols.gemProb)),
			BestComment:     row.Get(cols.comment),
			ResponseCount:   parseCount(row.Get(cols.respondents)),
			EvaluationLink:  row.Get(cols.link),
			Description:     row.Get(cols.description),
			DistributionTag: row.Get(cols.gened),
			Weekdays:        row.Get(cols.weekdays),
			StartTime:       row.Get(cols.start),
			EndTime:         row.Get(cols.end),
		})
	}
	return records
}

// parseNumber returns nil for blanks and placeholders like "N/A".
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseCount(s string) *int {
	v := parseNumber(strings.ReplaceAll(s, ",", ""))
	if v == nil || *v < 0 {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}
