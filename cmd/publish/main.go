// Package main uploads local source files to R2 so server instances can
// sync them at startup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyellow/harvard-gems/internal/config"
	"github.com/garyellow/harvard-gems/internal/datasync"
	"github.com/garyellow/harvard-gems/internal/logger"
	"github.com/garyellow/harvard-gems/internal/r2client"
)

var (
	rawFlag     = flag.Bool("raw", false, "Upload files uncompressed instead of zstd")
	dryRunFlag  = flag.Bool("dry-run", false, "List the files that would be uploaded and exit")
	skipMissing = flag.Bool("skip-missing", true, "Skip source files that do not exist locally")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadForMode(config.PublishMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Shutdown(context.Background()) }()

	paths, err := sourcePaths(cfg, flag.Args(), *skipMissing)
	if err != nil {
		log.WithError(err).Error("Source files unavailable")
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Println("⏭️  No source files to publish")
		return
	}

	if *dryRunFlag {
		for _, p := range paths {
			fmt.Printf("would publish %s\n", p)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2Endpoint(),
		AccessKeyID: cfg.R2AccessKeyID,
		SecretKey:   cfg.R2SecretAccessKey,
		BucketName:  cfg.R2BucketName,
	})
	if err != nil {
		log.WithError(err).Error("R2 client creation failed")
		os.Exit(1)
	}

	publisher := datasync.NewPublisher(client, cfg.R2SourcePrefix, !*rawFlag, log)
	log.Infof("Publishing %d source files to bucket %s", len(paths), cfg.R2BucketName)
	failed := 0
	for _, p := range paths {
		res, err := publisher.Publish(ctx, p)
		if err != nil {
			log.WithError(err).WithField("path", p).Error("Publish failed")
			failed++
			continue
		}
		fmt.Printf("✅ %s -> %s (%d bytes, etag %s)\n", res.File, res.Key, res.Size, res.ETag)
	}

	if failed > 0 {
		fmt.Printf("❌ %d of %d files failed\n", failed, len(paths))
		os.Exit(1)
	}
}

// sourcePaths returns args when given, otherwise the three configured
// source files. Missing files are skipped or reported per skipMissing.
func sourcePaths(cfg *config.Config, args []string, skipMissing bool) ([]string, error) {
	candidates := args
	if len(candidates) == 0 {
		candidates = []string{cfg.EvaluationPath(), cfg.CatalogPath(), cfg.AssessmentPath()}
	}

	paths := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			if skipMissing && os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
