// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/harvard-gems/internal/api"
	"github.com/garyellow/harvard-gems/internal/assessment"
	"github.com/garyellow/harvard-gems/internal/buildinfo"
	"github.com/garyellow/harvard-gems/internal/catalog"
	"github.com/garyellow/harvard-gems/internal/config"
	"github.com/garyellow/harvard-gems/internal/datasync"
	"github.com/garyellow/harvard-gems/internal/evaluation"
	"github.com/garyellow/harvard-gems/internal/gems"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/r2client"
	"github.com/garyellow/harvard-gems/internal/ratelimit"
	"github.com/garyellow/harvard-gems/internal/sentry"
	"github.com/garyellow/harvard-gems/internal/warmup"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	evaluations    *evaluation.Store
	catalog        *catalog.Store
	signals        *assessment.Provider
	engine         *gems.Engine
	syncer         *datasync.Syncer // nil when R2 is disabled
	clientLimiter  *ratelimit.KeyedLimiter
	readinessState *warmup.ReadinessState
	sourcesWait    time.Duration
	router         *gin.Engine
	server         *http.Server
	wg             sync.WaitGroup
}

// Initialize creates and initializes a new application with all dependencies.
// Sources are not read here; they load in the background once Run starts, and
// API requests wait for that load.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "harvard-gems")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Default logger so package-level slog calls pick up request context values.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.String()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.Info("Sentry error tracking enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	evaluations := evaluation.NewStore(cfg.EvaluationPath(), log, m)
	cat := catalog.NewStore(cfg.CatalogPath(), log, m)
	signals := assessment.NewProvider(cfg.AssessmentPath(), log, m)
	engine := gems.NewEngine(evaluations, cat, signals, log, m)

	var syncer *datasync.Syncer
	if cfg.R2Enabled {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2Endpoint(),
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
		})
		if err != nil {
			return nil, fmt.Errorf("r2: %w", err)
		}
		syncer = datasync.NewSyncer(client, cfg.R2SourcePrefix, cfg.DataDir, config.SourceSyncTimeout, log, m)
		log.WithField("bucket", cfg.R2BucketName).WithField("prefix", cfg.R2SourcePrefix).Info("R2 source sync enabled")
	}

	clientLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "client",
		Burst:         cfg.ClientRateBurst,
		RefillRate:    cfg.ClientRateRefill,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	app := &Application{
		cfg:            cfg,
		logger:         log,
		metrics:        m,
		registry:       registry,
		evaluations:    evaluations,
		catalog:        cat,
		signals:        signals,
		engine:         engine,
		syncer:         syncer,
		clientLimiter:  clientLimiter,
		readinessState: warmup.NewReadinessState(cfg.WarmupGracePeriod),
		sourcesWait:    config.SourcesLoadWait,
	}

	gin.SetMode(gin.ReleaseMode)
	app.router = app.buildRouter()

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// buildRouter wires middleware, operational endpoints and the API.
func (a *Application) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentryMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))
	router.Use(metricsMiddleware(a.metrics))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsPassword != "", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	api.NewHandler(a.engine, a.cfg.MaxCoursesPerResponse, a.logger, a.metrics).
		Register(router,
			rateLimitMiddleware(a.clientLimiter),
			sourcesLoadedMiddleware(a.readinessState.Done(), a.sourcesWait))

	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// readinessCheck returns 503 until the initial warmup finishes or the grace
// period elapses. The body reports per-source load stats and whether the
// engine is running in catalog-fallback mode.
func (a *Application) readinessCheck(c *gin.Context) {
	status := a.readinessState.Status()
	if !status.Ready {
		a.logger.WithField("elapsed_seconds", status.ElapsedSeconds).
			WithField("grace_seconds", status.GraceSeconds).
			Debug("Readiness check: sources loading")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": status.Reason,
			"progress": gin.H{
				"elapsed_seconds": status.ElapsedSeconds,
				"grace_seconds":   status.GraceSeconds,
			},
		})
		return
	}

	counts := make(map[string]int, len(status.Sources))
	evaluations, catalogEntries := 0, 0
	for _, s := range status.Sources {
		counts[s.Source] = s.Loaded
		switch s.Source {
		case "evaluation":
			evaluations = s.Loaded
		case "catalog":
			catalogEntries = s.Loaded
		}
	}

	body := gin.H{
		"status":   "ready",
		"sources":  counts,
		"fallback": status.Sources != nil && evaluations == 0 && catalogEntries > 0,
	}
	if status.Reason != "" {
		body["reason"] = status.Reason
	}
	c.JSON(http.StatusOK, body)
}

// warmupOptions describes the startup warmup: optional R2 sync, then the
// three sources.
func (a *Application) warmupOptions() warmup.Options {
	opts := warmup.Options{
		Sources: []warmup.Source{a.evaluations, a.catalog, a.signals},
		Metrics: a.metrics,
	}
	if a.syncer != nil {
		// Absolute source paths live outside the data dir and are not synced.
		var names []string
		for _, name := range []string{a.cfg.EvaluationFile, a.cfg.CatalogFile, a.cfg.AssessmentFile} {
			if !filepath.IsAbs(name) {
				names = append(names, name)
			}
		}
		opts.Sync = func(ctx context.Context) {
			failed := 0
			for _, res := range a.syncer.SyncAll(ctx, names...) {
				if res.Outcome == datasync.OutcomeError {
					failed++
				}
			}
			if failed > 0 {
				a.logger.Warnf("Source sync: %d of %d files failed, using local copies", failed, len(names))
			}
		}
	}
	return opts
}

// Run starts the HTTP server and background warmup, then blocks until
// SIGINT/SIGTERM.
//
// Shutdown order: cancel the context so a pending R2 sync aborts, wait for
// background jobs, then stop the HTTP server and release resources.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	done := warmup.RunInBackground(ctx, a.logger, a.readinessState, a.warmupOptions())
	a.wg.Go(func() {
		<-done
		a.logger.Info("Service marked as ready after initial warmup")
	})
}

func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown stops the HTTP server, then the rate limiter, then flushes
// Sentry and the remote log handler.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.clientLimiter.Stop()

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", err)
	}
	return nil
}
