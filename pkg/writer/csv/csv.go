// Package csv implements a Writer that appends output rows to a CSV file.
package csv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/writer/buffered"
)

// row is the on-disk layout. Header names follow api.Columns.
type row struct {
	Year        int    `csv:"year"`
	Month       int    `csv:"month"`
	Day         int    `csv:"day"`
	Bank        string `csv:"bank"`
	Category    string `csv:"category"`
	Subcategory string `csv:"subcategory"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
}

func toRow(r *api.Record) *row {
	return &row{
		Year:        r.Row.Year,
		Month:       r.Row.Month,
		Day:         r.Row.Day,
		Bank:        r.Row.Institution,
		Category:    r.Row.Category,
		Subcategory: r.Row.Subcategory,
		Description: r.Row.Description,
		Amount:      r.Row.Amount.StringFixed(2),
	}
}

// Writer writes records to a CSV file with buffered batching.
type Writer struct {
	filePath  string
	file      *os.File
	hasHeader bool
	mu        sync.Mutex
	buffered  *buffered.Writer
	logger    *slog.Logger
}

// Config holds configuration for the CSV writer.
type Config struct {
	// FilePath is the path to the CSV output file.
	FilePath string
	// BatchSize is the number of records to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
}

// New creates a new CSV writer. Rows are appended to an existing file; a
// header is written first when the file is empty.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		if closeErr := file.Close(); closeErr != nil {
			return nil, fmt.Errorf("stat csv file: %w (close error: %w)", err, closeErr)
		}
		return nil, fmt.Errorf("stat csv file: %w", err)
	}

	w := &Writer{
		filePath:  cfg.FilePath,
		file:      file,
		hasHeader: stat.Size() > 0,
		logger:    logger,
	}

	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "csv_buffer"))

	logger.Info("csv writer initialized", "file", cfg.FilePath)
	return w, nil
}

// Write consumes records from the input channel and writes them to CSV.
// The file is closed when Write returns.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Record) error {
	err := w.buffered.Write(ctx, in)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (w *Writer) flushBatch(records []*api.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows := make([]*row, 0, len(records))
	for _, r := range records {
		rows = append(rows, toRow(r))
	}

	marshal := gocsv.MarshalWithoutHeaders
	if !w.hasHeader {
		marshal = gocsv.Marshal
	}
	if err := marshal(&rows, w.file); err != nil {
		return fmt.Errorf("writing csv records: %w", err)
	}
	w.hasHeader = true

	w.logger.Debug("wrote records to csv", "count", len(records))
	return nil
}

// Close closes the CSV file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}

	w.logger.Info("csv writer closed", "file", w.filePath)
	return nil
}
