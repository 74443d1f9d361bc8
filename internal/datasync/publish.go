package datasync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/r2client"
)

// Uploader is the subset of r2client.Client used for publishing.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// PublishResult describes one uploaded file.
type PublishResult struct {
	File string
	Key  string
	ETag string
	Size int64
}

// Publisher uploads local source files to R2.
type Publisher struct {
	uploader Uploader
	prefix   string
	compress bool
	tempDir  string
	log      *logger.Logger
}

// NewPublisher creates a Publisher. With compress set, files are uploaded
// as zstd objects under <prefix><name>.zst.
func NewPublisher(uploader Uploader, prefix string, compress bool, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Discard()
	}
	return &Publisher{
		uploader: uploader,
		prefix:   prefix,
		compress: compress,
		tempDir:  os.TempDir(),
		log:      log.WithModule("publish"),
	}
}

// Publish uploads the file at path under its base name.
func (p *Publisher) Publish(ctx context.Context, path string) (PublishResult, error) {
	name := filepath.Base(path)
	res := PublishResult{File: name, Key: p.prefix + name}

	src := path
	contentType := "text/csv"
	if filepath.Ext(name) == ".json" {
		contentType = "application/json"
	}

	if p.compress {
		tmp, err := os.CreateTemp(p.tempDir, name+"-*"+r2client.CompressedSuffix)
		if err != nil {
			return res, fmt.Errorf("publish %s: temp file: %w", name, err)
		}
		tmpPath := tmp.Name()
		_ = tmp.Close()
		defer os.Remove(tmpPath)

		if err := r2client.CompressFile(path, tmpPath); err != nil {
			return res, fmt.Errorf("publish %s: %w", name, err)
		}
		src = tmpPath
		res.Key += r2client.CompressedSuffix
		contentType = "application/zstd"
	}

	f, err := os.Open(src)
	if err != nil {
		return res, fmt.Errorf("publish %s: open: %w", name, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		res.Size = info.Size()
	}

	etag, err := p.uploader.Upload(ctx, res.Key, f, contentType)
	if err != nil {
		return res, fmt.Errorf("publish %s: %w", name, err)
	}
	res.ETag = etag

	p.log.WithFields(map[string]any{"file": name, "key": res.Key, "bytes": res.Size}).Info("Source published")
	return res, nil
}
