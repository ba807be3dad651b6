// Command ocrdump runs OCR over statement files and dumps the recognized text
// to .txt files. This utility is used to collect statement samples for unit
// testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ArionMiles/txextract/internal/plugins"
	"github.com/ArionMiles/txextract/pkg/config"
	"github.com/ArionMiles/txextract/pkg/logging"
	"github.com/ArionMiles/txextract/pkg/ocr"
)

const defaultDumpDir = "testdata/dump"

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	institution := flag.String("institution", "", "institution id, selects the OCR languages (default $TXEXTRACT_INSTITUTION)")
	out := flag.String("out", defaultDumpDir, "directory the .txt files are written to")
	force := flag.Bool("force", false, "overwrite existing dumps")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ocrdump [flags] files...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load("")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *institution != "" {
		cfg.Institution = *institution
	}

	languages := ocr.DefaultLanguages
	if cfg.Institution != "" {
		p, err := plugins.Default().GetInstitution(cfg.Institution)
		if err != nil {
			logger.Error("unknown institution", "institution", cfg.Institution, "error", err)
			os.Exit(1)
		}
		languages = p.OCRLanguages()
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		logger.Error("failed to create dump directory", "error", err)
		os.Exit(1)
	}

	ocrCfg := cfg.OCRFor(languages)
	dumped := 0
	for _, path := range flag.Args() {
		if err := dumpFile(context.Background(), path, *out, *force, ocrCfg, logger); err != nil {
			logger.Warn("failed to dump file", "file", path, "error", err)
			continue
		}
		dumped++
	}

	logger.Info("ocr dump complete", "total_dumped", dumped, "directory", *out)
}

func dumpFile(ctx context.Context, path, dir string, force bool, cfg ocr.Config, logger *slog.Logger) error {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	target := filepath.Join(dir, sanitizeFilename(base)+".txt")

	if !force {
		if _, err := os.Stat(target); err == nil {
			logger.Debug("file already exists, skipping", "file", target)
			return nil
		}
	}

	extractor, err := ocr.ForPath(path, cfg, logger)
	if err != nil {
		return err
	}

	text, err := extractor.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text recognized")
	}

	if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	logger.Info("dumped statement", "source", path, "file", target, "bytes", len(text))
	return nil
}

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\s]`)
	underscores = regexp.MustCompile(`_+`)
)

func sanitizeFilename(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	name = underscores.ReplaceAllString(name, "_")

	name = strings.Trim(name, "_")
	if len(name) > 200 {
		name = name[:200]
	}
	if name == "" {
		name = "statement"
	}
	return name
}
