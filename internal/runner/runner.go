// Package runner drives statement files through OCR, the parser and a writer.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ArionMiles/txextract/internal/metrics"
	"github.com/ArionMiles/txextract/internal/plugins"
	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/archive"
	"github.com/ArionMiles/txextract/pkg/catalog"
	"github.com/ArionMiles/txextract/pkg/logging"
	"github.com/ArionMiles/txextract/pkg/money"
	"github.com/ArionMiles/txextract/pkg/ocr"
	"github.com/ArionMiles/txextract/pkg/parser"
)

// DefaultConcurrency is the number of files extracted at the same time.
const DefaultConcurrency = 2

// Config holds the runner's collaborators.
type Config struct {
	Registry *plugins.Registry
	Catalog  *catalog.Catalog
	// OCR is the extraction configuration. Languages are taken from the
	// institution plugin.
	OCR ocr.Config
	// Metrics is optional.
	Metrics *metrics.Metrics
	// PushgatewayURL receives the counters after each batch when set.
	PushgatewayURL string
	// Concurrency bounds how many files are extracted at once.
	Concurrency int
	// Archiver, when set, receives a copy of each statement Scan processed.
	Archiver archive.Archiver
}

// Runner processes batches of statement files.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a new runner.
func New(cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Runner{cfg: cfg, logger: logger}
}

// SetArchiver sets where Scan copies processed statements.
func (r *Runner) SetArchiver(a archive.Archiver) {
	r.cfg.Archiver = a
}

// FileError is a statement that could not be processed.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Summary describes one batch.
type Summary struct {
	Institution string
	Currency    string
	Processed   int
	Failed      int
	Rows        int
	// Totals sums amounts per category across processed statements.
	Totals   map[string]decimal.Decimal
	Failures []FileError
}

// Err joins the per-file failures, or returns nil when every file succeeded.
func (s Summary) Err() error {
	if len(s.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(s.Failures))
	for i, f := range s.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// TotalLines renders the per-category totals sorted by category.
func (s Summary) TotalLines() []string {
	categories := make([]string, 0, len(s.Totals))
	for c := range s.Totals {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	lines := make([]string, 0, len(categories))
	for _, c := range categories {
		lines = append(lines, fmt.Sprintf("%s: %s", c, money.Format(s.Totals[c], s.Currency)))
	}
	return lines
}

type parsed struct {
	path        string
	statementID string
	rows        []api.OutputRow
	err         error
}

// ProcessFiles parses every file as a statement of institution and streams the
// rows to w. Files are parsed concurrently and each statement's rows are sent,
// in input order, as soon as that statement is parsed. A failing statement is
// logged and counted, and the batch moves on. The returned error is reserved
// for an unknown institution and writer failures; statements whose rows could
// not be handed to the writer are not counted as processed.
func (r *Runner) ProcessFiles(ctx context.Context, files []string, institution string, w api.Writer) (Summary, error) {
	plugin, err := r.cfg.Registry.GetInstitution(institution)
	if err != nil {
		return Summary{}, err
	}
	inst := plugin.NewInstitution()
	ocrCfg := r.cfg.OCR
	ocrCfg.Languages = plugin.OCRLanguages()

	summary := Summary{
		Institution: inst.Name(),
		Currency:    inst.Currency(),
		Totals:      make(map[string]decimal.Decimal),
	}

	logger := r.logger.With(logging.KeyInstitution, plugin.ID())
	p := parser.New(inst, r.cfg.Catalog, logger)

	// wctx is canceled when the writer returns so a failed writer cannot
	// leave send blocked.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records := make(chan *api.Record, 100)
	writerDone := make(chan error, 1)
	go func() {
		err := w.Write(wctx, records)
		cancel()
		writerDone <- err
	}()

	results := r.parseAll(ctx, files, p, ocrCfg, logger)

	var sendErr error
	for _, ready := range results {
		res := <-ready
		slogger := logging.Statement(logger, res.statementID, res.path)
		if res.err != nil {
			attrs := []any{"kind", api.KindOf(res.err).String(), "error", res.err}
			var perr *api.Error
			if errors.As(res.err, &perr) && perr.Kind == api.KindReconciliationMismatch {
				attrs = append(attrs, "computed", perr.Computed, "expected", perr.Expected)
			}
			slogger.Error("statement failed", attrs...)
			summary.Failed++
			summary.Failures = append(summary.Failures, FileError{Path: res.path, Err: res.err})
			if r.cfg.Metrics != nil {
				r.cfg.Metrics.Failed(inst.Name(), res.err)
			}
			continue
		}

		if sendErr == nil {
			sendErr = send(wctx, records, res)
		}
		if sendErr != nil {
			slogger.Warn("statement not written", "error", sendErr)
			continue
		}

		summary.Processed++
		summary.Rows += len(res.rows)
		for _, row := range res.rows {
			summary.Totals[row.Category] = summary.Totals[row.Category].Add(row.Amount)
		}
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.Parsed(inst.Name(), len(res.rows))
		}
		slogger.Info("statement parsed", "rows", len(res.rows))
	}
	close(records)

	writeErr := <-writerDone
	r.push(ctx)

	if writeErr != nil {
		return summary, fmt.Errorf("writing records: %w", writeErr)
	}
	if sendErr != nil {
		return summary, sendErr
	}
	return summary, nil
}

// parseAll starts extracting and parsing files, at most Concurrency at a time,
// and returns one channel per file in input order. Each channel receives that
// file's result once.
func (r *Runner) parseAll(ctx context.Context, files []string, p *parser.Parser, ocrCfg ocr.Config, logger *slog.Logger) []<-chan parsed {
	results := make([]<-chan parsed, len(files))
	ready := make([]chan parsed, len(files))
	for i := range files {
		ready[i] = make(chan parsed, 1)
		results[i] = ready[i]
	}

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	go func() {
		for i, path := range files {
			g.Go(func() error {
				res := parsed{path: path, statementID: uuid.NewString()}
				res.rows, res.err = r.parseFile(ctx, path, p, ocrCfg, logging.Statement(logger, res.statementID, path))
				ready[i] <- res
				return nil
			})
		}
	}()

	return results
}

func (r *Runner) parseFile(ctx context.Context, path string, p *parser.Parser, ocrCfg ocr.Config, logger *slog.Logger) ([]api.OutputRow, error) {
	extractor, err := ocr.ForPath(path, ocrCfg, logger)
	if err != nil {
		return nil, err
	}

	raw, err := extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	logger.Debug("extracted text", "bytes", len(raw))

	return p.Parse(raw)
}

func send(ctx context.Context, records chan<- *api.Record, res parsed) error {
	for i, row := range res.rows {
		rec := &api.Record{StatementID: res.statementID, Seq: i + 1, Row: row}
		select {
		case records <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Runner) push(ctx context.Context) {
	if r.cfg.Metrics == nil || r.cfg.PushgatewayURL == "" {
		return
	}
	if err := r.cfg.Metrics.Push(ctx, r.cfg.PushgatewayURL); err != nil {
		r.logger.Warn("failed to push metrics", "error", err)
	}
}
