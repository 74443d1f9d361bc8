// Package sentry initializes the Sentry SDK against Better Stack's
// Sentry-compatible error ingestion and filters out client errors.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	domerrors "github.com/garyellow/harvard-gems/internal/errors"
)

// Config holds Sentry configuration for Better Stack integration.
type Config struct {
	// Token is the Better Stack Errors application token.
	Token string

	// Host is the Better Stack Errors ingesting host (e.g., "errors.betterstack.com").
	Host string

	Environment string
	Release     string

	// SampleRate controls error sampling (0.0-1.0, default 1.0).
	SampleRate float64

	Debug bool
}

// Enabled reports whether a token is configured.
func (c Config) Enabled() bool {
	return c.Token != ""
}

// DSN builds https://$TOKEN@$HOST/1. The project id is required by the
// SDK and ignored by Better Stack.
func (c Config) DSN() string {
	return fmt.Sprintf("https://%s@%s/1", c.Token, c.Host)
}

// Initialize sets up the Sentry SDK. An empty token disables Sentry.
func Initialize(cfg Config) error {
	if !cfg.Enabled() {
		return nil
	}
	if cfg.Host == "" {
		return errors.New("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN(),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
		BeforeSend:       beforeSend,
	})
}

// beforeSend drops events whose original error is a client mistake.
func beforeSend(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if hint != nil && hint.OriginalException != nil && !ShouldReport(hint.OriginalException) {
		return nil
	}
	return event
}

// ShouldReport reports whether err indicates a server-side fault.
// Validation failures, unknown ids and rate limiting are expected traffic.
func ShouldReport(err error) bool {
	switch {
	case err == nil:
		return false
	case domerrors.IsInvalidInput(err),
		domerrors.IsNotFound(err),
		domerrors.IsRateLimitExceeded(err),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// Flush waits for buffered events to be sent.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if a Sentry client is bound to the current hub.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureExceptionWithContext captures err on the request-scoped hub when present.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	if !ShouldReport(err) {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
