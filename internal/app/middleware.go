package app

import (
	"math"
	"net/http"
	"strconv"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyellow/harvard-gems/internal/ctxutil"
	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/ratelimit"
)

// requestIDHeader is echoed on every response.
const requestIDHeader = "X-Request-Id"

// sentryMiddleware attaches a request-scoped Sentry hub and reports panics.
// Repanic hands the panic back to gin.Recovery for the 500 response.
func sentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// requestIDMiddleware propagates an inbound request id or generates one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = c.GetHeader("X-Correlation-Id")
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests with status-based log levels:
// 5xx=Error, 4xx=Warn, 404=Debug, 3xx/2xx=Debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		entry := log.WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("client_ip", c.ClientIP())

		if requestID, ok := ctxutil.GetRequestID(c.Request.Context()); ok {
			entry = entry.WithRequestID(requestID)
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status == http.StatusNotFound:
			entry.Debug("HTTP request not found")
		case status >= 400:
			entry.Warn("HTTP request rejected")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}

// metricsMiddleware counts requests by route template and status class.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, c.Writer.Status())
	}
}

// sourcesLoadedMiddleware holds API requests until the startup warmup has
// loaded every source, so no request reads a file the R2 sync is about to
// replace. Requests still waiting after wait get 503.
func sourcesLoadedMiddleware(loaded <-chan struct{}, wait time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		select {
		case <-loaded:
			c.Next()
			return
		default:
		}

		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-loaded:
			c.Next()
		case <-timer.C:
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "sources loading"})
		case <-c.Request.Context().Done():
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "request canceled"})
		}
	}
}

// rateLimitMiddleware applies a per-client-IP token bucket and answers 429
// with Retry-After when the bucket is empty.
func rateLimitMiddleware(limiter *ratelimit.KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if limiter.Allow(key) {
			c.Next()
			return
		}

		retry := int(math.Ceil(limiter.RetryAfter(key).Seconds()))
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       domerrors.ErrRateLimitExceeded.Error(),
			"retry_after": retry,
		})
	}
}
