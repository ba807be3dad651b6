package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/ArionMiles/txextract/pkg/archive"
)

// watchCommand processes statements dropped into a directory until interrupted.
func watchCommand(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	common := registerCommon(fs)
	dir := fs.String("dir", "", "directory to watch (default $WATCH_DIR)")
	schedule := fs.String("schedule", "", "cron schedule (default $WATCH_SCHEDULE or @every 1m)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *dir != "" {
		cfg.Watch.Dir = *dir
	}
	if *schedule != "" {
		cfg.Watch.Schedule = *schedule
	}
	if cfg.Watch.Dir == "" {
		return errors.New("WATCH_DIR (or -dir) is required")
	}

	r, newWriter, err := pipeline(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Watch.ArchiveBucket != "" {
		gcs, err := archive.NewGCS(ctx, cfg.Watch.ArchiveBucket, logger.With("component", "archive"))
		if err != nil {
			return err
		}
		defer gcs.Close()
		r.SetArchiver(gcs)
	}

	if err := r.Watch(ctx, cfg.Watch.Dir, cfg.Watch.Schedule, cfg.Institution, newWriter); err != nil {
		return fmt.Errorf("watching %s: %w", cfg.Watch.Dir, err)
	}

	logger.Info("txextract stopped")
	return nil
}
