package datasync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/r2client"
)

type object struct {
	data []byte
	etag string
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]object
	headErr   error
	downloads atomic.Int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]object)}
}

func (f *fakeStore) put(key string, data []byte, etag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = object{data: data, etag: etag}
}

func (f *fakeStore) HeadObject(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return "", f.headErr
	}
	obj, ok := f.objects[key]
	if !ok {
		return "", r2client.ErrNotFound
	}
	return obj.etag, nil
}

func (f *fakeStore) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	f.downloads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return nil, "", r2client.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.etag, nil
}

func (f *fakeStore) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.put(key, data, "etag-"+key)
	return "etag-" + key, nil
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(data)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func TestSync_PlainObject(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.put("sources/qreport.csv", []byte("Course ID\nECON 10A\n"), "v1")
	dir := t.TempDir()

	s := NewSyncer(store, "sources/", dir, 0, nil, nil)
	res := s.Sync(context.Background(), "qreport.csv")

	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, "sources/qreport.csv", res.Key)

	got, err := os.ReadFile(filepath.Join(dir, "qreport.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Course ID\nECON 10A\n", string(got))
}

func TestSync_PrefersCompressedObject(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.put("sources/catalog.csv", []byte("stale"), "plain")
	store.put("sources/catalog.csv.zst", compress(t, []byte("fresh")), "zst")
	dir := t.TempDir()

	s := NewSyncer(store, "sources/", dir, 0, nil, nil)
	res := s.Sync(context.Background(), "catalog.csv")

	require.NoError(t, res.Err)
	assert.Equal(t, "sources/catalog.csv.zst", res.Key)
	got, err := os.ReadFile(filepath.Join(dir, "catalog.csv"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))
}

func TestSync_UnchangedETagSkipsDownload(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.put("qreport.csv", []byte("a"), "v1")
	dir := t.TempDir()
	s := NewSyncer(store, "", dir, 0, nil, nil)

	require.Equal(t, OutcomeUpdated, s.Sync(context.Background(), "qreport.csv").Outcome)
	require.Equal(t, int32(1), store.downloads.Load())

	assert.Equal(t, OutcomeUnchanged, s.Sync(context.Background(), "qreport.csv").Outcome)
	assert.Equal(t, int32(1), store.downloads.Load())

	store.put("qreport.csv", []byte("b"), "v2")
	assert.Equal(t, OutcomeUpdated, s.Sync(context.Background(), "qreport.csv").Outcome)
	got, err := os.ReadFile(filepath.Join(dir, "qreport.csv"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}

func TestSync_MissingObjectKeepsLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	local := filepath.Join(dir, "assessment_cache.json")
	require.NoError(t, os.WriteFile(local, []byte("{}"), 0o644))

	s := NewSyncer(newFakeStore(), "sources/", dir, 0, nil, nil)
	res := s.Sync(context.Background(), "assessment_cache.json")

	assert.Equal(t, OutcomeMissing, res.Outcome)
	assert.NoError(t, res.Err)
	got, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))
}

func TestSync_ErrorKeepsLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	local := filepath.Join(dir, "qreport.csv")
	require.NoError(t, os.WriteFile(local, []byte("local"), 0o644))

	store := newFakeStore()
	store.headErr = errors.New("connection reset")
	m := metrics.New(prometheus.NewRegistry())

	s := NewSyncer(store, "", dir, 0, nil, m)
	res := s.Sync(context.Background(), "qreport.csv")

	assert.Equal(t, OutcomeError, res.Outcome)
	require.Error(t, res.Err)
	assert.True(t, domerrors.IsSourceUnavailable(res.Err))
	assert.Contains(t, res.Err.Error(), "connection reset")
	got, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "local", string(got))
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceSyncTotal.WithLabelValues("qreport.csv", OutcomeError)), 0)
}

func TestSync_CorruptCompressedObjectLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.put("catalog.csv.zst", []byte("not zstd"), "bad")
	dir := t.TempDir()

	s := NewSyncer(store, "", dir, 0, nil, nil)
	res := s.Sync(context.Background(), "catalog.csv")
	assert.Equal(t, OutcomeError, res.Outcome)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSyncAll_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.put("catalog.csv", []byte("x"), "v1")
	s := NewSyncer(store, "", t.TempDir(), 0, nil, nil)

	results := s.SyncAll(context.Background(), "qreport.csv", "catalog.csv")
	require.Len(t, results, 2)
	assert.Equal(t, OutcomeMissing, results[0].Outcome)
	assert.Equal(t, OutcomeUpdated, results[1].Outcome)
}

func TestPublisher_RoundTripThroughSync(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "qreport.csv")
	require.NoError(t, os.WriteFile(src, []byte("Course ID,Rating\nECON 10A,4.5\n"), 0o644))

	store := newFakeStore()
	p := NewPublisher(store, "sources/", true, nil)
	p.tempDir = t.TempDir()

	res, err := p.Publish(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "sources/qreport.csv.zst", res.Key)
	assert.Positive(t, res.Size)

	dstDir := t.TempDir()
	s := NewSyncer(store, "sources/", dstDir, 0, nil, nil)
	require.Equal(t, OutcomeUpdated, s.Sync(context.Background(), "qreport.csv").Outcome)

	got, err := os.ReadFile(filepath.Join(dstDir, "qreport.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Course ID,Rating\nECON 10A,4.5\n", string(got))
}

func TestPublisher_Uncompressed(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "assessment_cache.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"ECON 10A":{}}`), 0o644))

	store := newFakeStore()
	res, err := NewPublisher(store, "", false, nil).Publish(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "assessment_cache.json", res.Key)
	assert.Equal(t, "etag-assessment_cache.json", res.ETag)
}

func TestPublisher_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewPublisher(newFakeStore(), "", false, nil).Publish(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}
