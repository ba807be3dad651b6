package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/archive"
	"github.com/ArionMiles/txextract/pkg/parser"
)

// Subdirectories of the watched directory that finished files are moved to.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// WriterFactory creates a fresh writer for each scan. Writers finish when
// their input closes, so one cannot be reused across scans.
type WriterFactory func() (api.Writer, error)

var statementExts = map[string]bool{
	".pdf": true, ".txt": true, ".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// Watch scans dir on schedule and processes new statements until ctx is
// canceled. Each scan is one batch; an overlapping scan is skipped.
func (r *Runner) Watch(ctx context.Context, dir, schedule, institution string, newWriter WriterFactory) error {
	if _, err := r.cfg.Registry.GetInstitution(institution); err != nil {
		return err
	}
	for _, sub := range []string{ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("creating %s directory: %w", sub, err)
		}
	}

	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(r.logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)

	_, err := c.AddFunc(schedule, func() {
		if _, err := r.Scan(ctx, dir, institution, newWriter); err != nil {
			r.logger.Error("scan failed", "dir", dir, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	c.Start()
	r.logger.Info("watching for statements",
		"dir", dir,
		"schedule", schedule,
		"institution", institution,
	)

	<-ctx.Done()

	r.logger.Info("watcher stopping")
	<-c.Stop().Done()
	return nil
}

// Scan processes every statement currently in dir as one batch and moves each
// file to the processed or failed subdirectory. When the writer fails no file
// is moved, so the next scan retries them. Processed files are archived first
// when an Archiver is configured; an archive failure is reported but does not
// keep the file from moving.
func (r *Runner) Scan(ctx context.Context, dir, institution string, newWriter WriterFactory) (Summary, error) {
	files, err := pendingFiles(dir)
	if err != nil {
		return Summary{}, err
	}
	if len(files) == 0 {
		return Summary{}, nil
	}

	w, err := newWriter()
	if err != nil {
		return Summary{}, fmt.Errorf("creating writer: %w", err)
	}

	summary, err := r.ProcessFiles(ctx, files, institution, w)
	if err != nil {
		return summary, err
	}

	failed := make(map[string]bool, len(summary.Failures))
	for _, f := range summary.Failures {
		failed[f.Path] = true
	}

	var moveErrs []error
	now := time.Now()
	for _, path := range files {
		sub := ProcessedDir
		if failed[path] {
			sub = FailedDir
		} else if r.cfg.Archiver != nil {
			key := archive.Key(parser.CanonicalID(institution), path, now)
			if err := r.cfg.Archiver.Archive(ctx, path, key); err != nil {
				r.logger.Warn("failed to archive statement", "file", path, "error", err)
				moveErrs = append(moveErrs, fmt.Errorf("archiving %s: %w", path, err))
			}
		}
		if err := os.Rename(path, filepath.Join(dir, sub, filepath.Base(path))); err != nil {
			moveErrs = append(moveErrs, fmt.Errorf("moving %s: %w", path, err))
		}
	}

	r.logger.Info("scan completed",
		"dir", dir,
		"processed", summary.Processed,
		"failed", summary.Failed,
		"rows", summary.Rows,
	)

	return summary, errors.Join(moveErrs...)
}

// pendingFiles lists statement files directly under dir, sorted by name.
func pendingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if statementExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
