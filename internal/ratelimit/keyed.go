package ratelimit

import (
	"sync"
	"time"

	"github.com/garyellow/harvard-gems/internal/metrics"
)

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	// Name labels drops in metrics (e.g. "client").
	Name string

	Burst      float64 // Maximum tokens per key
	RefillRate float64 // Tokens refilled per second

	// CleanupPeriod is how often idle keys are evicted.
	CleanupPeriod time.Duration

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// KeyedLimiter keeps one token bucket per key (client IP for the API) and
// evicts buckets that have refilled completely.
type KeyedLimiter struct {
	mu       sync.RWMutex
	buckets  map[string]*Limiter
	config   KeyedConfig
	onDrop   func()
	onUpdate func(count int)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKeyedLimiter creates the limiter and starts its cleanup goroutine.
// Call Stop when done.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	kl := &KeyedLimiter{
		buckets: make(map[string]*Limiter),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}

	if cfg.Metrics != nil {
		kl.onDrop = func() {
			cfg.Metrics.RecordRateLimiterDrop(cfg.Name)
		}
		kl.onUpdate = cfg.Metrics.SetRateLimiterClients
	}

	go kl.cleanupLoop()

	return kl
}

// Allow takes a token from key's bucket. An empty key is always allowed.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	if kl.bucket(key).Allow() {
		return true
	}
	if kl.onDrop != nil {
		kl.onDrop()
	}
	return false
}

// RetryAfter reports how long key must wait for its next token.
func (kl *KeyedLimiter) RetryAfter(key string) time.Duration {
	kl.mu.RLock()
	b, ok := kl.buckets[key]
	kl.mu.RUnlock()
	if !ok {
		return 0
	}
	return b.RetryAfter()
}

func (kl *KeyedLimiter) bucket(key string) *Limiter {
	kl.mu.RLock()
	b, ok := kl.buckets[key]
	kl.mu.RUnlock()
	if ok {
		return b
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	// Double-check after acquiring write lock
	if b, ok = kl.buckets[key]; ok {
		return b
	}
	b = New(kl.config.Burst, kl.config.RefillRate)
	kl.buckets[key] = b
	return b
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.buckets)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.evictIdle()
		}
	}
}

func (kl *KeyedLimiter) evictIdle() {
	kl.mu.Lock()
	for key, b := range kl.buckets {
		if b.IsFull() {
			delete(kl.buckets, key)
		}
	}
	count := len(kl.buckets)
	kl.mu.Unlock()

	if kl.onUpdate != nil {
		kl.onUpdate(count)
	}
}

// Stop ends the cleanup goroutine. Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() { close(kl.stopCh) })
}
