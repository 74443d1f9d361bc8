package record

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	domerrors "github.com/garyellow/harvard-gems/internal/errors"
	"github.com/garyellow/harvard-gems/internal/logger"
)

// LoadTable parses a source file and never fails: a missing or unreadable
// file is logged at Warn and reported through LoadStats with a nil table.
func LoadTable(path, source string, log *logger.Logger) (*Table, LoadStats) {
	if log == nil {
		log = logger.Discard()
	}
	start := time.Now()
	stats := LoadStats{Source: source, Path: path}

	table, err := ParseFile(path, log)
	stats.Duration = time.Since(start)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		stats.Missing = true
		log.WithField("source", source).
			WithField("path", path).
			Warn("Source file not found, continuing with empty set")
		return nil, stats
	case err != nil:
		srcErr := domerrors.NewSourceError(source, path, fmt.Errorf("%w: %w", domerrors.ErrSourceUnavailable, err))
		stats.Error = srcErr.Error()
		log.WithError(srcErr).Warn("Source file unreadable, continuing with empty set")
		return nil, stats
	}

	stats.Skipped = table.Skipped
	return table, stats
}
