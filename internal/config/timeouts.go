// Package config provides centralized timeout constants for the application.
//
// The JSON API answers from in-memory collections, so request timeouts are
// short; the only slow path is the optional R2 source sync at startup.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the HTTP server read timeout. Query bodies are small JSON objects.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the HTTP server write timeout.
	// Ranking the full catalog is in-memory work well below this bound.
	HTTPWrite = 30 * time.Second

	// HTTPIdle is the HTTP server idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second

	// ReadinessCheckTimeout bounds the /readyz handler.
	ReadinessCheckTimeout = 3 * time.Second
)

// Lifecycle timeouts
const (
	// ShutdownGrace is the default time allowed for in-flight requests to finish.
	ShutdownGrace = 30 * time.Second

	// WarmupGracePeriod is how long /readyz waits for the initial source load
	// before reporting ready anyway (loads stay idempotent, so late requests
	// simply share the in-flight load).
	WarmupGracePeriod = 2 * time.Minute

	// SourcesLoadWait is how long an API request waits for the startup
	// warmup before it is answered with 503.
	SourcesLoadWait = 15 * time.Second

	// SourceSyncTimeout bounds the whole R2 source sync at startup.
	SourceSyncTimeout = 90 * time.Second

	// RateLimiterCleanupInterval is how often idle per-client buckets are evicted.
	RateLimiterCleanupInterval = 5 * time.Minute
)
