// Package gems joins evaluation, catalog and assessment data into ranked
// course recommendations.
//
// The engine never fails on data quality: missing files, malformed rows and
// unmatched identifiers degrade to smaller or synthetic results. The only
// errors it returns are invalid query shapes.
package gems

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/harvard-gems/internal/assessment"
	"github.com/garyellow/harvard-gems/internal/catalog"
	"github.com/garyellow/harvard-gems/internal/courseid"
	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/evaluation"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/ranking"
	"github.com/garyellow/harvard-gems/internal/sliceutil"
)

// EvaluationSource provides evaluation records.
type EvaluationSource interface {
	LoadAll() []evaluation.Record
	Query(evaluation.Filters) ([]evaluation.Record, error)
}

// CatalogSource provides catalog entries and lookups.
type CatalogSource interface {
	LoadAll() []catalog.Entry
	GetByID(id string) (catalog.Entry, bool)
	Exists(id string) bool
	SearchRanked(query string, limit int) []catalog.Entry
}

// SignalSource provides assessment signals.
type SignalSource interface {
	Get(id string) (assessment.Signal, bool)
}

// RankedCourse is a merged course with its score.
type RankedCourse struct {
	MergedCourse
	Score        int `json:"score"`
	LogisticsFit int `json:"logisticsFit"`
}

// Result is the outcome of FindGems.
type Result struct {
	Courses []RankedCourse `json:"courses"`
	// Fallback is true when no evaluation data exists and every course
	// carries synthetic default values.
	Fallback bool `json:"fallback"`
	// Matched is the number of courses that passed filters before Limit.
	Matched int `json:"matched"`
}

// Engine merges, filters and ranks courses.
type Engine struct {
	evaluations EvaluationSource
	catalog     CatalogSource
	signals     SignalSource
	log         *logger.Logger
	metrics     *metrics.Metrics
}

// NewEngine creates an engine. signals and m may be nil.
func NewEngine(evals EvaluationSource, cat CatalogSource, signals SignalSource, log *logger.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		evaluations: evals,
		catalog:     cat,
		signals:     signals,
		log:         log.WithModule("gems"),
		metrics:     m,
	}
}

type loaded struct {
	records     []evaluation.Record
	sourceEmpty bool
	entries     []catalog.Entry
}

// FindGems returns ranked courses for q. The only error is an invalid query
// (errors.Is(err, ErrInvalidInput)) or a canceled ctx.
func (e *Engine) FindGems(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	data, err := e.load(ctx, q.Filters)
	if err != nil {
		return nil, err
	}

	merged, fallback := e.merge(data)
	if fallback && e.metrics != nil {
		e.metrics.RecordFallbackMode()
	}

	filtered := sliceutil.Filter(merged, q.Match)
	ranked := ranking.Rank(filtered, ranking.Preferences{PreferredTimes: q.PreferredTimes})

	courses := make([]RankedCourse, len(ranked))
	for i, r := range ranked {
		courses[i] = RankedCourse{MergedCourse: r.Course, Score: r.Score, LogisticsFit: r.LogisticsFit}
	}
	matched := len(courses)
	if q.Limit > 0 && len(courses) > q.Limit {
		courses = courses[:q.Limit]
	}

	e.log.WithFields(map[string]any{
		"evaluations": len(data.records),
		"catalog":     len(data.entries),
		"merged":      len(merged),
		"filtered":    len(filtered),
		"fallback":    fallback,
	}).Debug("FindGems stages")

	if e.metrics != nil {
		e.metrics.RecordQuery("find_gems", time.Since(start).Seconds(), len(courses))
	}

	return &Result{Courses: courses, Fallback: fallback, Matched: matched}, nil
}

// load reads evaluations (pre-filtered) and the catalog concurrently.
func (e *Engine) load(ctx context.Context, filters evaluation.Filters) (*loaded, error) {
	if err := ctx.Err(); err != nil {
		return nil, domerrors.WithOp("gems/find_gems", err, "request canceled")
	}

	data := &loaded{}
	var g errgroup.Group

	g.Go(func() error {
		all := e.evaluations.LoadAll()
		data.sourceEmpty = len(all) == 0
		if filters.IsZero() {
			data.records = all
			return nil
		}
		records, err := e.evaluations.Query(filters)
		if err != nil {
			return err
		}
		data.records = records
		return nil
	})
	g.Go(func() error {
		data.entries = e.catalog.LoadAll()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// merge joins records to the catalog and collapses duplicates. The second
// return value reports fallback mode.
func (e *Engine) merge(data *loaded) ([]MergedCourse, bool) {
	entries := DedupCatalog(data.entries)

	var merged []MergedCourse
	fallback := data.sourceEmpty && len(entries) > 0

	if fallback {
		e.log.WithField("catalog", len(entries)).
			Warn("No evaluation data, serving catalog with default values")
		merged = make([]MergedCourse, 0, len(entries))
		for _, entry := range entries {
			merged = append(merged, FromCatalog(entry))
		}
	} else {
		lookup := newCatalogLookup(entries)
		merged = make([]MergedCourse, 0, len(data.records))
		unmatched := 0
		for _, rec := range data.records {
			entry := lookup.find(rec.CourseID)
			if entry == nil {
				unmatched++
			}
			merged = append(merged, Merge(rec, entry))
		}
		if unmatched > 0 {
			e.log.WithField("unmatched", unmatched).Debug("Evaluation records without catalog match")
		}
	}

	if e.signals != nil {
		for i := range merged {
			if sig, ok := e.signals.Get(merged[i].CourseID); ok {
				merged[i] = merged[i].WithSignal(sig)
			}
		}
	}

	return DedupMerged(merged), fallback
}

// DedupCatalog keeps one entry per literal course id, preferring the more
// recent term (see catalog.MoreRecent).
func DedupCatalog(entries []catalog.Entry) []catalog.Entry {
	return sliceutil.DeduplicateBy(entries, func(e catalog.Entry) string {
		return courseid.Key(e.CourseID)
	}, catalog.MoreRecent)
}

// DedupMerged keeps the first course for each canonical id.
func DedupMerged(courses []MergedCourse) []MergedCourse {
	return sliceutil.Deduplicate(courses, func(c MergedCourse) string {
		return courseid.Key(c.CourseID)
	})
}

// catalogLookup resolves evaluation ids against catalog ids, literal and
// normalized.
type catalogLookup map[string]*catalog.Entry

func newCatalogLookup(entries []catalog.Entry) catalogLookup {
	lookup := make(catalogLookup, len(entries)*2)
	for i := range entries {
		entry := &entries[i]
		lookup[courseid.Key(entry.CourseID)] = entry
	}
	for i := range entries {
		entry := &entries[i]
		norm := courseid.Key(courseid.Normalize(entry.CourseID))
		if _, ok := lookup[norm]; !ok {
			lookup[norm] = entry
		}
	}
	return lookup
}

// find tries the literal id, the normalized id, then the alias of the
// normalized id. Returns nil when nothing matches.
func (l catalogLookup) find(id string) *catalog.Entry {
	if entry, ok := l[courseid.Key(id)]; ok {
		return entry
	}
	norm := courseid.Normalize(id)
	if entry, ok := l[courseid.Key(norm)]; ok {
		return entry
	}
	if swapped, ok := courseid.SwapAlias(norm); ok {
		if entry, ok := l[courseid.Key(swapped)]; ok {
			return entry
		}
	}
	return nil
}

// QueryEvaluations returns evaluation records matching f.
func (e *Engine) QueryEvaluations(f evaluation.Filters) ([]evaluation.Record, error) {
	start := time.Now()
	records, err := e.evaluations.Query(f)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordQuery("evaluations", time.Since(start).Seconds(), len(records))
	}
	return records, nil
}

// GetAllAvailableCourses lists deduplicated catalog entries matching f.
func (e *Engine) GetAllAvailableCourses(f CourseFilters) []catalog.Entry {
	start := time.Now()
	courses := sliceutil.Filter(DedupCatalog(e.catalog.LoadAll()), f.Match)
	if e.metrics != nil {
		e.metrics.RecordQuery("list_courses", time.Since(start).Seconds(), len(courses))
	}
	return courses
}

// CourseExists reports whether the catalog knows id.
func (e *Engine) CourseExists(id string) bool {
	return e.catalog.Exists(id)
}

// GetCourseDetails returns the catalog entry for id.
func (e *Engine) GetCourseDetails(id string) (catalog.Entry, bool) {
	return e.catalog.GetByID(id)
}

// SearchCourses returns catalog entries ranked by relevance to query.
func (e *Engine) SearchCourses(query string, limit int) []catalog.Entry {
	start := time.Now()
	courses := e.catalog.SearchRanked(query, limit)
	if e.metrics != nil {
		e.metrics.RecordQuery("search", time.Since(start).Seconds(), len(courses))
	}
	return courses
}
