// Package ocr turns statement documents into raw text.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ArionMiles/txextract/pkg/api"
)

const (
	// DefaultDPI is the render resolution for PDF pages.
	DefaultDPI = 300
	// DefaultWorkers is the number of pages recognized concurrently.
	DefaultWorkers = 4
	// DefaultLanguages is used when the institution does not name any.
	DefaultLanguages = "eng"
)

// ErrUnsupportedFile is returned by ForPath for extensions it cannot read.
var ErrUnsupportedFile = errors.New("only PDF, image and text files are supported")

// Engine names accepted by ForPath.
const (
	EngineTesseract = "tesseract"
	EngineText      = "text"
)

// Config holds OCR configuration.
type Config struct {
	// Engine is EngineTesseract (default) or EngineText. With EngineText every
	// input must already be a .txt file.
	Engine       string
	TesseractBin string
	PdftoppmBin  string
	DPI          int
	Workers      int
	// Languages is passed to tesseract's -l flag, e.g. "eng+por".
	Languages string
}

// DefaultConfig returns the default OCR configuration.
func DefaultConfig() Config {
	return Config{
		Engine:       EngineTesseract,
		TesseractBin: "tesseract",
		PdftoppmBin:  "pdftoppm",
		DPI:          DefaultDPI,
		Workers:      DefaultWorkers,
		Languages:    DefaultLanguages,
	}
}

// TextFile reads statements that were already converted to text.
type TextFile struct{}

// Extract returns the file contents.
func (TextFile) Extract(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	return string(b), nil
}

// Tesseract renders PDFs with pdftoppm and recognizes each page with tesseract.
type Tesseract struct {
	cfg    Config
	logger *slog.Logger
}

// NewTesseract creates a tesseract extractor. Zero fields in cfg take defaults.
func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.TesseractBin == "" {
		cfg.TesseractBin = def.TesseractBin
	}
	if cfg.PdftoppmBin == "" {
		cfg.PdftoppmBin = def.PdftoppmBin
	}
	if cfg.DPI <= 0 {
		cfg.DPI = def.DPI
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Languages == "" {
		cfg.Languages = def.Languages
	}
	return &Tesseract{cfg: cfg, logger: logger}
}

// Extract returns the recognized text of every page, joined in page order.
func (t *Tesseract) Extract(ctx context.Context, path string) (string, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return t.recognize(ctx, path)
	}

	dir, err := os.MkdirTemp("", "txextract-pages-")
	if err != nil {
		return "", fmt.Errorf("creating page directory: %w", err)
	}
	defer os.RemoveAll(dir)

	pages, err := t.render(ctx, path, dir)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("rendering %s: no pages produced", path)
	}

	t.logger.Debug("rendered pdf", "path", path, "pages", len(pages), "dpi", t.cfg.DPI)

	texts := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Workers)
	for i, page := range pages {
		g.Go(func() error {
			text, err := t.recognize(gctx, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return strings.Join(texts, "\n"), nil
}

// render writes one grayscale PNG per page into dir and returns them in page order.
func (t *Tesseract) render(ctx context.Context, pdf, dir string) ([]string, error) {
	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, t.cfg.PdftoppmBin,
		"-r", strconv.Itoa(t.cfg.DPI),
		"-gray",
		"-png",
		pdf,
		prefix,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running %s: %w: %s", t.cfg.PdftoppmBin, err, strings.TrimSpace(stderr.String()))
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	sort.Slice(pages, func(i, j int) bool { return pageNumber(pages[i]) < pageNumber(pages[j]) })
	return pages, nil
}

func (t *Tesseract) recognize(ctx context.Context, image string) (string, error) {
	cmd := exec.CommandContext(ctx, t.cfg.TesseractBin,
		image, "stdout",
		"--oem", "3",
		"--psm", "6",
		"-l", t.cfg.Languages,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w: %s", t.cfg.TesseractBin, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// pageNumber extracts N from ".../page-N.png".
func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	idx := strings.LastIndex(base, "-")
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

// ForPath selects an extractor by file extension.
func ForPath(path string, cfg Config, logger *slog.Logger) (api.Extractor, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		return TextFile{}, nil
	case ".pdf", ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		if cfg.Engine == EngineText {
			return nil, fmt.Errorf("%s: %w (ocr engine is %q)", path, ErrUnsupportedFile, EngineText)
		}
		return NewTesseract(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFile)
	}
}

// Available reports whether the binaries cfg needs are on PATH.
func Available(cfg Config) error {
	for _, bin := range []string{cfg.TesseractBin, cfg.PdftoppmBin} {
		if bin == "" {
			continue
		}
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found: %w", bin, err)
		}
	}
	return nil
}
