package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/garyellow/harvard-gems/internal/metrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := newWithClock(3, 1, clock.Now)

	for i := range 3 {
		assert.True(t, l.Allow(), "request %d within burst", i)
	}
	assert.False(t, l.Allow())
	assert.Equal(t, time.Second, l.RetryAfter())

	clock.Advance(500 * time.Millisecond)
	assert.False(t, l.Allow())
	assert.Equal(t, 500*time.Millisecond, l.RetryAfter())

	clock.Advance(500 * time.Millisecond)
	assert.True(t, l.Allow())
}

func TestLimiter_CapsAtBurst(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := newWithClock(2, 10, clock.Now)

	clock.Advance(time.Hour)
	assert.InDelta(t, 2.0, l.Available(), 1e-9)
	assert.True(t, l.IsFull())

	l.Allow()
	assert.False(t, l.IsFull())
	assert.Zero(t, l.RetryAfter())
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(100, 0.0001)

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for range 200 {
		wg.Go(func() {
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}

func TestKeyedLimiter_IsolatesKeys(t *testing.T) {
	kl := NewKeyedLimiter(KeyedConfig{Name: "client", Burst: 2, RefillRate: 0.001, CleanupPeriod: time.Hour})
	defer kl.Stop()

	assert.True(t, kl.Allow("10.0.0.1"))
	assert.True(t, kl.Allow("10.0.0.1"))
	assert.False(t, kl.Allow("10.0.0.1"))
	assert.Positive(t, kl.RetryAfter("10.0.0.1"))

	assert.True(t, kl.Allow("10.0.0.2"))
	assert.Equal(t, 2, kl.ActiveCount())
	assert.Zero(t, kl.RetryAfter("unknown"))
}

func TestKeyedLimiter_EmptyKeyAlwaysAllowed(t *testing.T) {
	kl := NewKeyedLimiter(KeyedConfig{Burst: 1, RefillRate: 0.001})
	defer kl.Stop()

	for range 5 {
		assert.True(t, kl.Allow(""))
	}
	assert.Zero(t, kl.ActiveCount())
}

func TestKeyedLimiter_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	kl := NewKeyedLimiter(KeyedConfig{Name: "client", Burst: 1, RefillRate: 1000, Metrics: m, CleanupPeriod: time.Hour})
	defer kl.Stop()

	kl.Allow("a")

	time.Sleep(5 * time.Millisecond)
	kl.evictIdle()
	assert.Zero(t, kl.ActiveCount(), "refilled bucket is evicted")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RateLimiterClients))
}

func TestKeyedLimiter_DropCounted(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	kl := NewKeyedLimiter(KeyedConfig{Name: "client", Burst: 1, RefillRate: 0.001, Metrics: m, CleanupPeriod: time.Hour})
	defer kl.Stop()

	kl.Allow("a")
	kl.Allow("a")
	kl.Allow("a")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues("client")))
	kl.evictIdle()
	assert.Equal(t, 1, kl.ActiveCount(), "drained bucket is kept")
}

func TestKeyedLimiter_StopIdempotent(t *testing.T) {
	kl := NewKeyedLimiter(KeyedConfig{Burst: 1, RefillRate: 1})
	kl.Stop()
	kl.Stop()
}
