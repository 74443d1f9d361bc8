package assessment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cacheJSON = `{
  "CS 50": {"assessmentLightness": 0.2, "finalExam": true},
  "ECON 10A": {"assessmentLightness": "0.7", "finalExam": "no"},
  "COMPSCI 124": {"assessmentLightness": 0.4, "finalExam": "Yes"},
  "HIST 12": {"finalExam": "unclear"}
}`

func writeCache(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assessment_cache.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestProvider_Get(t *testing.T) {
	p := NewProvider(writeCache(t, cacheJSON), nil, nil)
	require.Equal(t, 4, p.Len())

	tests := []struct {
		name          string
		id            string
		wantOK        bool
		wantLightness *float64
		wantFinal     *bool
	}{
		{"exact", "CS 50", true, f64(0.2), boolPtr(true)},
		{"case-insensitive", "econ 10a", true, f64(0.7), boolPtr(false)},
		{"section suffix", "CS 50 001", true, f64(0.2), boolPtr(true)},
		{"alias", "CS 124", true, f64(0.4), boolPtr(true)},
		{"unknown flag text", "HIST 12", true, nil, nil},
		{"missing course", "PHYS 15", false, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := p.Get(tt.id)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLightness, sig.AssessmentLightness)
			assert.Equal(t, tt.wantFinal, sig.FinalExam)
		})
	}
}

func TestProvider_MissingFile(t *testing.T) {
	p := NewProvider(filepath.Join(t.TempDir(), "none.json"), nil, nil)

	_, ok := p.Get("CS 50")
	assert.False(t, ok)
	assert.True(t, p.Stats().Missing)
	assert.Equal(t, 0, p.Len())
}

func TestProvider_CorruptFile(t *testing.T) {
	p := NewProvider(writeCache(t, "{not json"), nil, nil)

	assert.Equal(t, 0, p.Len())
	assert.Equal(t, "error", p.Stats().Status())
}

func TestProvider_CaseVariantIDsKeepFirstSorted(t *testing.T) {
	cache := `{
  "cs 50": {"assessmentLightness": 0.1},
  "CS 50": {"assessmentLightness": 0.9},
  "CS  50": {"assessmentLightness": 0.5},
  "": {"assessmentLightness": 0.3}
}`
	for range 5 {
		p := NewProvider(writeCache(t, cache), nil, nil)

		sig, ok := p.Get("CS 50")
		require.True(t, ok)
		assert.InDelta(t, 0.5, *sig.AssessmentLightness, 1e-9, `"CS  50" sorts first`)
		assert.Equal(t, 1, p.Len())
		assert.Equal(t, 3, p.Stats().Dropped)
	}
}

func TestNewProviderFromSignals(t *testing.T) {
	p := NewProviderFromSignals(map[string]Signal{"cs 50": {FinalExam: boolPtr(false)}}, nil)

	sig, ok := p.Get("CS 50")
	require.True(t, ok)
	assert.False(t, *sig.FinalExam)
}

func f64(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }
