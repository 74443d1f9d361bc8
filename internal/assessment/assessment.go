// Package assessment provides optional per-course assessment signals
// (how light the assessment load is, whether there is a final exam) read
// from a JSON side cache.
package assessment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/garyellow/harvard-gems/internal/courseid"
	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/record"
)

const sourceName = "assessment"

// Signal is the assessment data for one course. Nil fields are unknown.
type Signal struct {
	AssessmentLightness *float64 `json:"assessmentLightness"`
	FinalExam           *bool    `json:"finalExam"`
}

// UnmarshalJSON accepts numbers or numeric strings for assessmentLightness
// and booleans or "yes"/"no" strings for finalExam. Unrecognized values
// decode as unknown.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var raw struct {
		AssessmentLightness json.RawMessage `json:"assessmentLightness"`
		FinalExam           json.RawMessage `json:"finalExam"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.AssessmentLightness = decodeNumber(raw.AssessmentLightness)
	s.FinalExam = decodeFlag(raw.FinalExam)
	return nil
}

func decodeNumber(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		return &x
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return &f
		}
	}
	return nil
}

func decodeFlag(raw json.RawMessage) *bool {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	yes, no := true, false
	switch x := v.(type) {
	case bool:
		return &x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "yes", "y", "true":
			return &yes
		case "no", "n", "false", "none":
			return &no
		}
	}
	return nil
}

// Provider serves signals keyed by course id, loaded once on first access.
type Provider struct {
	path    string
	log     *logger.Logger
	metrics *metrics.Metrics

	once    sync.Once
	signals map[string]Signal
	stats   record.LoadStats
}

// NewProvider creates a provider backed by the JSON file at path.
// metrics may be nil.
func NewProvider(path string, log *logger.Logger, m *metrics.Metrics) *Provider {
	if log == nil {
		log = logger.Discard()
	}
	return &Provider{
		path:    path,
		log:     log.WithModule("assessment"),
		metrics: m,
	}
}

// NewProviderFromSignals creates an already-loaded provider.
func NewProviderFromSignals(signals map[string]Signal, log *logger.Logger) *Provider {
	p := NewProvider("", log, nil)
	p.once.Do(func() {
		dropped := p.install(signals)
		p.stats = record.LoadStats{Source: sourceName, Loaded: len(p.signals), Dropped: dropped}
	})
	return p
}

// Warm loads the cache if it has not been loaded yet.
func (p *Provider) Warm() record.LoadStats {
	p.once.Do(p.load)
	return p.stats
}

// Stats returns the outcome of the load, loading first if needed.
func (p *Provider) Stats() record.LoadStats {
	return p.Warm()
}

// Get returns the signal for id, trying the literal id, the normalized id,
// then the CS/COMPSCI alias. An unknown id yields a zero Signal and false.
func (p *Provider) Get(id string) (Signal, bool) {
	p.once.Do(p.load)

	candidates := []string{courseid.Key(id), courseid.Key(courseid.Normalize(id))}
	if swapped, ok := courseid.SwapAlias(courseid.Normalize(id)); ok {
		candidates = append(candidates, courseid.Key(swapped))
	}
	for _, key := range candidates {
		if sig, ok := p.signals[key]; ok {
			return sig, true
		}
	}
	return Signal{}, false
}

// Len returns the number of courses with signals.
func (p *Provider) Len() int {
	p.once.Do(p.load)
	return len(p.signals)
}

func (p *Provider) load() {
	start := time.Now()
	p.stats = record.LoadStats{Source: sourceName, Path: p.path}

	signals, err := readCache(p.path)
	p.stats.Duration = time.Since(start)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		p.stats.Missing = true
		p.log.WithField("path", p.path).Warn("Assessment cache not found, continuing without signals")
	case err != nil:
		srcErr := domerrors.NewSourceError(sourceName, p.path, fmt.Errorf("%w: %w", domerrors.ErrSourceUnavailable, err))
		p.stats.Error = srcErr.Error()
		p.log.WithError(srcErr).Warn("Assessment cache unreadable, continuing without signals")
	}

	p.stats.Dropped = p.install(signals)
	p.stats.Loaded = len(p.signals)

	if p.metrics != nil {
		p.metrics.RecordSourceLoad(sourceName, p.stats.Status(), p.stats.Duration.Seconds())
		p.metrics.SetSourceRecords(sourceName, len(p.signals))
	}
	p.log.WithField("loaded", p.stats.Loaded).Info("Assessment signals loaded")
}

// install indexes signals by course key. Ids are visited in sorted order so
// that when several ids share a key the first one in that order wins. It
// returns the number of ids dropped as blank or colliding.
func (p *Provider) install(signals map[string]Signal) int {
	p.signals = make(map[string]Signal, len(signals))
	dropped := 0
	for _, id := range slices.Sorted(maps.Keys(signals)) {
		key := courseid.Key(id)
		if key == "" {
			dropped++
			continue
		}
		if _, dup := p.signals[key]; dup {
			dropped++
			p.log.WithField("course_id", id).WithField("key", key).
				Warn("Duplicate assessment signal, keeping the first")
			continue
		}
		p.signals[key] = signals[id]
	}
	return dropped
}

func readCache(path string) (map[string]Signal, error) {
	if path == "" {
		return nil, fs.ErrNotExist
	}
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from configuration
	if err != nil {
		return nil, err
	}
	var signals map[string]Signal
	if err := json.Unmarshal(data, &signals); err != nil {
		return nil, fmt.Errorf("decode assessment cache: %w", err)
	}
	return signals, nil
}
