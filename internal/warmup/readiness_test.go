package warmup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/garyellow/harvard-gems/internal/record"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestReadinessState_Initial(t *testing.T) {
	t.Parallel()
	state := NewReadinessState(10 * time.Minute)

	assert.False(t, state.IsReady())
	assert.False(t, state.WarmupCompleted())

	status := state.Status()
	assert.False(t, status.Ready)
	assert.Equal(t, "sources loading", status.Reason)
	assert.Equal(t, 600, status.GraceSeconds)
}

func TestReadinessState_MarkReady(t *testing.T) {
	t.Parallel()
	state := NewReadinessState(10 * time.Minute)

	stats := []record.LoadStats{{Source: "catalog", Loaded: 3}}
	state.MarkReady(stats)
	stats[0].Loaded = 99

	assert.True(t, state.IsReady())
	assert.True(t, state.WarmupCompleted())

	status := state.Status()
	assert.True(t, status.Ready)
	assert.Empty(t, status.Reason)
	if assert.Len(t, status.Sources, 1) {
		assert.Equal(t, 3, status.Sources[0].Loaded)
	}
}

func TestReadinessState_Done(t *testing.T) {
	t.Parallel()
	clock := &stepClock{now: time.Unix(0, 0)}
	state := newReadinessStateWithClock(time.Minute, clock.Now)

	clock.Advance(2 * time.Minute)
	assert.True(t, state.IsReady())
	select {
	case <-state.Done():
		t.Fatal("grace period must not close Done")
	default:
	}

	state.MarkReady(nil)
	state.MarkReady(nil)
	select {
	case <-state.Done():
	default:
		t.Fatal("Done not closed after MarkReady")
	}
}

func TestReadinessState_GraceElapsed(t *testing.T) {
	t.Parallel()
	clock := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	state := newReadinessStateWithClock(2*time.Minute, clock.Now)

	assert.False(t, state.IsReady())

	clock.Advance(2 * time.Minute)

	assert.True(t, state.IsReady())
	assert.False(t, state.WarmupCompleted())

	status := state.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, "grace period elapsed (sources may still be loading)", status.Reason)
	assert.Equal(t, 120, status.ElapsedSeconds)
}

func TestReadinessState_Concurrent(t *testing.T) {
	t.Parallel()
	state := NewReadinessState(10 * time.Minute)

	const goroutines = 50
	var wg sync.WaitGroup
	for range goroutines {
		wg.Go(func() {
			for range 100 {
				_ = state.IsReady()
				_ = state.Status()
			}
		})
		wg.Go(func() {
			state.MarkReady([]record.LoadStats{{Source: "evaluation"}})
		})
	}
	wg.Wait()

	assert.True(t, state.IsReady())
}
