// Package datasync mirrors source files between the data directory and
// an R2 bucket. Sync pulls newer objects down before the loaders read them;
// Publish pushes local files up for other instances.
package datasync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/metrics"
	"github.com/garyellow/harvard-gems/internal/r2client"
)

// Sync outcomes, also used as metric labels.
const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeMissing   = "missing"
	OutcomeError     = "error"
)

// etagSuffix names the sidecar file that remembers the last synced ETag.
const etagSuffix = ".etag"

// ObjectStore is the subset of r2client.Client used for pulling.
type ObjectStore interface {
	HeadObject(ctx context.Context, key string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Result describes one file's sync.
type Result struct {
	File    string
	Key     string
	Outcome string
	ETag    string
	Err     error
}

// Syncer pulls source files from R2 into a local directory.
type Syncer struct {
	store   ObjectStore
	prefix  string
	dataDir string
	timeout time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewSyncer creates a Syncer. A zero timeout disables the per-file deadline.
func NewSyncer(store ObjectStore, prefix, dataDir string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Syncer {
	if log == nil {
		log = logger.Discard()
	}
	return &Syncer{
		store:   store,
		prefix:  prefix,
		dataDir: dataDir,
		timeout: timeout,
		log:     log.WithModule("datasync"),
		metrics: m,
	}
}

// SyncAll syncs each named file in order. Failures are logged and reported
// in the results; they never abort the remaining files.
func (s *Syncer) SyncAll(ctx context.Context, names ...string) []Result {
	results := make([]Result, 0, len(names))
	for _, name := range names {
		results = append(results, s.Sync(ctx, name))
	}
	return results
}

// Sync fetches name from the bucket when its ETag differs from the last
// synced copy. Concurrent calls for the same name share one fetch.
func (s *Syncer) Sync(ctx context.Context, name string) Result {
	v, _, _ := s.group.Do(name, func() (any, error) {
		return s.syncOne(ctx, name), nil
	})
	res := v.(Result)

	if s.metrics != nil {
		s.metrics.RecordSourceSync(name, res.Outcome)
	}
	switch res.Outcome {
	case OutcomeError:
		s.log.WithError(res.Err).WithField("file", name).Warn("Source sync failed, using local copy")
	case OutcomeMissing:
		s.log.WithField("file", name).Debug("Source not present in bucket")
	case OutcomeUpdated:
		s.log.WithFields(map[string]any{"file": name, "key": res.Key, "etag": res.ETag}).Info("Source synced")
	}
	return res
}

func (s *Syncer) syncOne(ctx context.Context, name string) Result {
	res := Result{File: name}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	key, etag, err := s.locate(ctx, name)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			res.Outcome = OutcomeMissing
			return res
		}
		res.Outcome = OutcomeError
		res.Err = domerrors.WithOp("datasync/sync", fmt.Errorf("%w: %w", domerrors.ErrSourceUnavailable, err), "locate "+name)
		return res
	}
	res.Key, res.ETag = key, etag

	dst := filepath.Join(s.dataDir, name)
	if etag != "" && etag == s.localETag(dst) && fileExists(dst) {
		res.Outcome = OutcomeUnchanged
		return res
	}

	if err := s.fetch(ctx, key, dst); err != nil {
		res.Outcome = OutcomeError
		res.Err = domerrors.WithOp("datasync/sync", fmt.Errorf("%w: %w", domerrors.ErrSourceUnavailable, err), "fetch "+key)
		return res
	}
	if err := os.WriteFile(dst+etagSuffix, []byte(etag), 0o644); err != nil {
		s.log.WithError(err).WithField("file", name).Warn("Failed to record source etag")
	}
	res.Outcome = OutcomeUpdated
	return res
}

// locate prefers the compressed object when both exist.
func (s *Syncer) locate(ctx context.Context, name string) (string, string, error) {
	compressed := s.prefix + name + r2client.CompressedSuffix
	etag, err := s.store.HeadObject(ctx, compressed)
	if err == nil {
		return compressed, etag, nil
	}
	if !errors.Is(err, r2client.ErrNotFound) {
		return "", "", err
	}

	plain := s.prefix + name
	etag, err = s.store.HeadObject(ctx, plain)
	if err != nil {
		return "", "", err
	}
	return plain, etag, nil
}

// fetch downloads key into a temp file beside dst and renames it into place.
func (s *Syncer) fetch(ctx context.Context, key, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	body, _, err := s.store.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("download %q: %w", key, err)
	}
	defer body.Close()

	tmp := fmt.Sprintf("%s.tmp-%d", dst, time.Now().UnixNano())
	if strings.HasSuffix(key, r2client.CompressedSuffix) {
		err = r2client.DecompressStream(body, tmp)
	} else {
		err = writeStream(body, tmp)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("install %q: %w", dst, err)
	}
	return nil
}

func (s *Syncer) localETag(dst string) string {
	data, err := os.ReadFile(dst + etagSuffix)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeStream(r io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	return f.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
