package warmup

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyellow/harvard-gems/internal/record"
)

// ReadinessState tracks whether the initial source warmup has finished.
// The service reports ready once warmup completes or the grace period
// elapses, whichever comes first. startTime and grace are immutable.
type ReadinessState struct {
	ready     atomic.Bool
	startTime time.Time
	grace     time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	sources []record.LoadStats

	done     chan struct{}
	doneOnce sync.Once
}

// ReadinessStatus is the /readyz response body.
type ReadinessStatus struct {
	Ready          bool               `json:"ready"`
	Reason         string             `json:"reason,omitempty"`
	ElapsedSeconds int                `json:"elapsed_seconds,omitempty"`
	GraceSeconds   int                `json:"grace_seconds,omitempty"`
	Sources        []record.LoadStats `json:"sources,omitempty"`
}

// NewReadinessState starts the grace period now.
func NewReadinessState(grace time.Duration) *ReadinessState {
	return newReadinessStateWithClock(grace, time.Now)
}

func newReadinessStateWithClock(grace time.Duration, now func() time.Time) *ReadinessState {
	return &ReadinessState{
		startTime: now(),
		grace:     grace,
		now:       now,
		done:      make(chan struct{}),
	}
}

// IsReady reports whether traffic should be accepted.
func (s *ReadinessState) IsReady() bool {
	if s.ready.Load() {
		return true
	}
	return s.now().Sub(s.startTime) >= s.grace
}

// MarkReady records warmup completion along with the per-source stats.
func (s *ReadinessState) MarkReady(sources []record.LoadStats) {
	s.mu.Lock()
	s.sources = slices.Clone(sources)
	s.mu.Unlock()
	s.ready.Store(true)
	s.doneOnce.Do(func() { close(s.done) })
}

// Done is closed once warmup completes. The grace period does not close it.
func (s *ReadinessState) Done() <-chan struct{} {
	return s.done
}

// WarmupCompleted differs from IsReady in ignoring the grace period.
func (s *ReadinessState) WarmupCompleted() bool {
	return s.ready.Load()
}

// Status returns the current readiness status.
func (s *ReadinessState) Status() ReadinessStatus {
	elapsed := s.now().Sub(s.startTime)
	isReady := s.IsReady()

	s.mu.RLock()
	sources := slices.Clone(s.sources)
	s.mu.RUnlock()

	status := ReadinessStatus{
		Ready:          isReady,
		ElapsedSeconds: int(elapsed.Seconds()),
		GraceSeconds:   int(s.grace.Seconds()),
		Sources:        sources,
	}

	switch {
	case !isReady:
		status.Reason = "sources loading"
	case !s.WarmupCompleted():
		status.Reason = "grace period elapsed (sources may still be loading)"
	}
	return status
}
