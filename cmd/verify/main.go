// Package main provides a data-consistency check for the three sources.
// It exits non-zero when the catalog is empty.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/garyellow/harvard-gems/internal/assessment"
	"github.com/garyellow/harvard-gems/internal/catalog"
	"github.com/garyellow/harvard-gems/internal/config"
	"github.com/garyellow/harvard-gems/internal/courseid"
	"github.com/garyellow/harvard-gems/internal/evaluation"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/record"
)

var listFlag = flag.Int("list", 20, "Maximum unmatched/duplicate ids to print (0 = all)")

// report is the outcome of one verification run.
type report struct {
	sources    []record.LoadStats
	unmatched  []string // evaluation ids with no catalog entry
	duplicates []string // catalog ids that occur more than once
	catalogOK  bool
}

func main() {
	flag.Parse()

	cfg, err := config.LoadForMode(config.ToolMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	evals := evaluation.NewStore(cfg.EvaluationPath(), log, nil)
	cat := catalog.NewStore(cfg.CatalogPath(), log, nil)
	signals := assessment.NewProvider(cfg.AssessmentPath(), log, nil)

	r := verify(evals, cat, signals)
	printReport(os.Stdout, r, *listFlag)

	if !r.catalogOK {
		os.Exit(1)
	}
}

func verify(evals *evaluation.Store, cat *catalog.Store, signals *assessment.Provider) report {
	r := report{
		sources: []record.LoadStats{evals.Warm(), cat.Warm(), signals.Warm()},
	}
	r.catalogOK = r.sources[1].Loaded > 0

	for _, rec := range evals.LoadAll() {
		if _, ok := cat.GetByID(courseid.Normalize(rec.CourseID)); !ok {
			r.unmatched = append(r.unmatched, rec.CourseID)
		}
	}

	seen := make(map[string]int)
	for _, e := range cat.LoadAll() {
		seen[courseid.Key(e.CourseID)]++
	}
	for id, n := range seen {
		if n > 1 {
			r.duplicates = append(r.duplicates, id)
		}
	}
	slices.Sort(r.duplicates)
	return r
}

func printReport(w io.Writer, r report, limit int) {
	_, _ = fmt.Fprintln(w, "🔍 Course Gems - Source Verification")
	_, _ = fmt.Fprintln(w, "====================================")

	for _, s := range r.sources {
		status := "✅"
		switch s.Status() {
		case "missing":
			status = "⚠️ "
		case "error":
			status = "❌"
		}
		_, _ = fmt.Fprintf(w, "%s %-10s loaded=%d skipped=%d dropped=%d (%s)\n",
			status, s.Source, s.Loaded, s.Skipped, s.Dropped, s.Status())
	}

	printIDs(w, "Unmatched evaluation ids", r.unmatched, limit)
	printIDs(w, "Duplicate catalog ids", r.duplicates, limit)

	if r.catalogOK {
		_, _ = fmt.Fprintln(w, "\n📈 Catalog OK")
	} else {
		_, _ = fmt.Fprintln(w, "\n❌ Catalog is empty")
	}
}

func printIDs(w io.Writer, title string, ids []string, limit int) {
	_, _ = fmt.Fprintf(w, "\n%s: %d\n", title, len(ids))
	shown := ids
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, id := range shown {
		_, _ = fmt.Fprintf(w, "  - %s\n", id)
	}
	if len(shown) < len(ids) {
		_, _ = fmt.Fprintf(w, "  ... and %d more\n", len(ids)-len(shown))
	}
}
