// Package warmup loads the data sources in the background at startup and
// tracks service readiness while they load.
package warmup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/record"
)

// Source is a load-once data source.
type Source interface {
	Warm() record.LoadStats
}

// Options configures a warmup run.
type Options struct {
	// Sync runs before any source loads, typically pulling files from R2.
	Sync    func(ctx context.Context)
	Sources []Source
	Metrics *metrics.Metrics
}

// Report summarizes a warmup run.
type Report struct {
	Sources  []record.LoadStats
	Duration time.Duration
}

// Loaded returns the total record count across sources.
func (r *Report) Loaded() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Loaded
	}
	return total
}

// Run syncs and then loads every source concurrently. Source failures are
// recorded in the report rather than returned; only cancellation is an error.
func Run(ctx context.Context, log *logger.Logger, opts Options) (*Report, error) {
	start := time.Now()
	report := &Report{Sources: make([]record.LoadStats, len(opts.Sources))}

	if opts.Sync != nil {
		syncStart := time.Now()
		opts.Sync(ctx)
		recordTask(opts.Metrics, "sync", "success")
		log.WithField("duration", time.Since(syncStart)).Debug("Source sync finished")
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("warmup canceled: %w", err)
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	for i, src := range opts.Sources {
		g.Go(func() error {
			stats := src.Warm()
			mu.Lock()
			report.Sources[i] = stats
			mu.Unlock()

			recordTask(opts.Metrics, stats.Source, stats.Status())
			entry := log.WithFields(map[string]any{
				"source":  stats.Source,
				"loaded":  stats.Loaded,
				"skipped": stats.Skipped,
				"dropped": stats.Dropped,
			})
			switch stats.Status() {
			case "success":
				entry.Info("Source loaded")
			default:
				entry.WithField("status", stats.Status()).Warn("Source unavailable, continuing without it")
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	if opts.Metrics != nil {
		opts.Metrics.RecordWarmupDuration(report.Duration.Seconds())
	}
	log.WithFields(map[string]any{
		"duration": report.Duration,
		"records":  report.Loaded(),
	}).Info("Warmup complete")
	return report, nil
}

// RunInBackground runs warmup on its own goroutine and marks readiness when
// it finishes. The returned channel closes after readiness is marked.
// Canceling ctx aborts a pending sync; readiness is still marked.
func RunInBackground(ctx context.Context, log *logger.Logger, readiness *ReadinessState, opts Options) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in background warmup")
				readiness.MarkReady(nil)
			}
		}()

		report, err := Run(ctx, log, opts)
		if err != nil {
			log.WithError(err).Warn("Background warmup finished with errors")
		}
		readiness.MarkReady(report.Sources)
	}()
	return done
}

func recordTask(m *metrics.Metrics, task, status string) {
	if m != nil {
		m.RecordWarmupTask(task, status)
	}
}
