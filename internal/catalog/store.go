package catalog

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/garyellow/harvard-gems/internal/courseid"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/record"
	"github.com/garyellow/harvard-gems/internal/stringutil"
)

const sourceName = "catalog"

// frontMatterMarkers identify title/table-of-contents rows scraped from the
// catalog document header.
var frontMatterMarkers = []string{
	"table of contents",
	"course catalog",
	"courses of instruction",
	"contents page",
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Store holds the catalog in memory. The file is read once, on the first
// call to any accessor; Warm forces that load at startup.
type Store struct {
	path    string
	log     *logger.Logger
	metrics *metrics.Metrics

	once    sync.Once
	entries []Entry
	byKey   map[string]int
	index   *searchIndex
	stats   record.LoadStats
}

// NewStore creates a catalog store backed by the file at path.
// metrics may be nil.
func NewStore(path string, log *logger.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{
		path:    path,
		log:     log.WithModule("catalog"),
		metrics: m,
	}
}

// NewStoreFromEntries creates an already-loaded store. Entries with an empty
// CourseID are dropped.
func NewStoreFromEntries(entries []Entry, log *logger.Logger) *Store {
	s := NewStore("", log, nil)
	s.once.Do(func() {
		kept := make([]Entry, 0, len(entries))
		for _, e := range entries {
			if strings.TrimSpace(e.CourseID) == "" {
				s.stats.Dropped++
				continue
			}
			kept = append(kept, e)
		}
		s.stats.Source = sourceName
		s.stats.Loaded = len(kept)
		s.install(kept)
	})
	return s
}

// Warm loads the catalog if it has not been loaded yet.
func (s *Store) Warm() record.LoadStats {
	s.once.Do(s.load)
	return s.stats
}

// Stats returns the outcome of the load, loading first if needed.
func (s *Store) Stats() record.LoadStats {
	return s.Warm()
}

// LoadAll returns a copy of every catalog entry in file order.
// A missing or unreadable file yields an empty slice.
func (s *Store) LoadAll() []Entry {
	s.once.Do(s.load)
	return slices.Clone(s.entries)
}

func (s *Store) load() {
	table, stats := record.LoadTable(s.path, sourceName, s.log)
	s.stats = stats

	var entries []Entry
	if table != nil {
		entries = s.parse(table)
	}
	s.stats.Loaded = len(entries)
	s.install(entries)

	if s.metrics != nil {
		s.metrics.RecordSourceLoad(sourceName, s.stats.Status(), s.stats.Duration.Seconds())
		s.metrics.SetSourceRecords(sourceName, len(entries))
		s.metrics.RecordRowsSkipped(sourceName, s.stats.Skipped)
	}

	s.log.WithFields(map[string]any{
		"loaded":  s.stats.Loaded,
		"skipped": s.stats.Skipped,
		"dropped": s.stats.Dropped,
		"ms":      s.stats.Duration.Milliseconds(),
	}).Info("Catalog loaded")
}

func (s *Store) install(entries []Entry) {
	s.entries = entries
	s.byKey = make(map[string]int, len(entries))
	for i, e := range entries {
		key := courseid.Key(e.CourseID)
		if cur, ok := s.byKey[key]; !ok || MoreRecent(e, entries[cur]) {
			s.byKey[key] = i
		}
	}

	idx, err := newSearchIndex(entries)
	if err != nil {
		s.log.WithError(err).Warn("Search index unavailable, ranked search falls back to substring")
	}
	s.index = idx
}

type columns struct {
	department, subject, number, title, id, term, credits string
	weekdays, start, end                                  string
	instructors, distribution, requirements, description  string
}

func resolveColumns(t *record.Table) columns {
	return columns{
		department:   t.Column("department", "dept"),
		subject:      t.Column("subject"),
		number:       t.Column("course number", "catalog number", "number"),
		title:        t.Column("title"),
		id:           t.Column("course id", "courseid", "course code"),
		term:         t.Column("term", "semester"),
		credits:      t.Column("credit", "units"),
		weekdays:     t.Column("weekday", "days", "meeting"),
		start:        t.Column("start"),
		end:          t.Column("end time", "end"),
		instructors:  t.Column("instructor", "faculty"),
		distribution: t.Column("distribution", "gen ed", "gened"),
		requirements: t.Column("requirement", "prereq"),
		description:  t.Column("description"),
	}
}

func (s *Store) parse(t *record.Table) []Entry {
	cols := resolveColumns(t)
	entries := make([]Entry, 0, len(t.Rows))

	for _, row := range t.Rows {
		e := entryFromRow(row, cols)
		if e.CourseID == "" || isFrontMatter(e) {
			s.stats.Dropped++
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func entryFromRow(row record.Row, c columns) Entry {
	subject := row.Get(c.subject)
	number := row.Get(c.number)
	id := stringutil.CollapseSpaces(row.Get(c.id))
	if id == "" {
		id = courseid.Compose(subject, number)
	}
	if subject == "" {
		subject = courseid.Subject(id)
	}
	if number == "" && subject != "" {
		number = strings.TrimSpace(strings.TrimPrefix(id, subject))
	}

	return Entry{
		CourseID:     id,
		Subject:      subject,
		CourseNumber: number,
		Title:        row.Get(c.title),
		Department:   row.Get(c.department),
		Term:         row.Get(c.term),
		Credits:      row.Get(c.credits),
		Meeting:      ParseMeeting(row.Get(c.weekdays), row.Get(c.start), row.Get(c.end)),
		Instructors:  CleanInstructors(row.Get(c.instructors)),
		Distribution: row.Get(c.distribution),
		Requirements: row.Get(c.requirements),
		Description:  row.Get(c.description),
	}
}

func isFrontMatter(e Entry) bool {
	if strings.EqualFold(e.Subject, "subject") || strings.EqualFold(e.CourseID, "course id") {
		return true
	}
	return stringutil.ContainsAnyFold(e.Title, frontMatterMarkers) ||
		stringutil.ContainsAnyFold(e.CourseID, frontMatterMarkers)
}

// TermYear returns the latest four-digit year mentioned in a term string,
// or 0 when there is none. "2024-2025" yields 2025.
func TermYear(term string) int {
	best := 0
	for _, m := range yearPattern.FindAllString(term, -1) {
		if y, err := strconv.Atoi(m); err == nil && y > best {
			best = y
		}
	}
	return best
}

// MoreRecent reports whether candidate should replace current when both share
// a course id: a later academic year wins, and any term beats an empty one.
// Ties keep current.
func MoreRecent(candidate, current Entry) bool {
	candTerm := strings.TrimSpace(candidate.Term)
	curTerm := strings.TrimSpace(current.Term)
	if curTerm == "" {
		return candTerm != ""
	}
	if candTerm == "" {
		return false
	}
	return TermYear(candTerm) > TermYear(curTerm)
}

// GetByID finds an entry by exact id, then by offering prefix (id followed by
// a space), then with the CS/COMPSCI alias swapped.
func (s *Store) GetByID(id string) (Entry, bool) {
	s.once.Do(s.load)

	key := courseid.Key(id)
	if key == "" {
		return Entry{}, false
	}
	if e, ok := s.lookup(key); ok {
		return e, true
	}
	if swapped, ok := courseid.SwapAlias(key); ok {
		return s.lookup(swapped)
	}
	return Entry{}, false
}

func (s *Store) lookup(key string) (Entry, bool) {
	if i, ok := s.byKey[key]; ok {
		return s.entries[i], true
	}
	prefix := key + " "
	for _, e := range s.entries {
		if strings.HasPrefix(courseid.Key(e.CourseID), prefix) {
			return e, true
		}
	}
	return Entry{}, false
}

// Exists reports whether GetByID would find the id.
func (s *Store) Exists(id string) bool {
	_, ok := s.GetByID(id)
	return ok
}

// Search matches keyword against id, title, description and instructors.
func (s *Store) Search(keyword string) []Entry {
	keyword = strings.TrimSpace(keyword)
	return s.filter(func(e Entry) bool {
		return stringutil.ContainsFold(e.CourseID, keyword) ||
			stringutil.ContainsFold(e.Title, keyword) ||
			stringutil.ContainsFold(e.Description, keyword) ||
			stringutil.ContainsFold(e.Instructors, keyword)
	})
}

// ByWeekdays matches pattern against the meeting weekdays ("Mon/Wed").
func (s *Store) ByWeekdays(pattern string) []Entry {
	return s.filter(func(e Entry) bool {
		return stringutil.ContainsFold(e.Meeting.Weekdays, pattern)
	})
}

// ByTerm matches term as a substring of the entry's term.
func (s *Store) ByTerm(term string) []Entry {
	return s.filter(func(e Entry) bool {
		return stringutil.ContainsFold(e.Term, term)
	})
}

// BySubject matches subject as a substring of the entry's subject.
func (s *Store) BySubject(subject string) []Entry {
	return s.filter(func(e Entry) bool {
		return stringutil.ContainsFold(e.Subject, subject)
	})
}

func (s *Store) filter(keep func(Entry) bool) []Entry {
	s.once.Do(s.load)
	var out []Entry
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
