// Package xlsx implements a Writer that exports output rows to an Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/writer/buffered"
)

// DefaultSheet is the worksheet rows are written to.
const DefaultSheet = "Transactions"

// Config holds configuration for the Excel writer.
type Config struct {
	// FilePath is the workbook path. An existing workbook is appended to.
	FilePath string
	// Sheet is the worksheet name. Defaults to DefaultSheet.
	Sheet string
	// BatchSize is the number of records to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
}

// Writer writes records into a worksheet and saves the workbook when the
// input closes.
type Writer struct {
	filePath string
	sheet    string
	file     *excelize.File
	nextRow  int
	mu       sync.Mutex
	buffered *buffered.Writer
	logger   *slog.Logger
}

// New opens or creates the workbook and prepares the worksheet.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Sheet == "" {
		cfg.Sheet = DefaultSheet
	}

	f, err := open(cfg.FilePath, cfg.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(cfg.Sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("reading sheet %q: %w", cfg.Sheet, err)
	}

	w := &Writer{
		filePath: cfg.FilePath,
		sheet:    cfg.Sheet,
		file:     f,
		nextRow:  len(rows) + 1,
		logger:   logger,
	}

	if len(rows) == 0 {
		header := make([]any, len(api.Columns))
		for i, c := range api.Columns {
			header[i] = c
		}
		if err := f.SetSheetRow(cfg.Sheet, "A1", &header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("writing header: %w", err)
		}
		w.nextRow = 2
	}

	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "xlsx_buffer"))

	logger.Info("xlsx writer initialized", "file", cfg.FilePath, "sheet", cfg.Sheet, "existing_rows", w.nextRow-2)
	return w, nil
}

func open(path, sheet string) (*excelize.File, error) {
	if _, err := os.Stat(path); err == nil {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening workbook: %w", err)
		}
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			if _, err := f.NewSheet(sheet); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("creating sheet %q: %w", sheet, err)
			}
		}
		return f, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat workbook: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("naming sheet %q: %w", sheet, err)
	}
	return f, nil
}

// Write consumes records from the input channel, then saves and closes the
// workbook.
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

	for _, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, w.nextRow)
		if err != nil {
			return err
		}
		values := []any{
			r.Row.Year,
			r.Row.Month,
			r.Row.Day,
			r.Row.Institution,
			r.Row.Category,
			r.Row.Subcategory,
			r.Row.Description,
			r.Row.Amount.InexactFloat64(),
		}
		if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", w.nextRow, err)
		}
		w.nextRow++
	}

	w.logger.Debug("wrote records to xlsx", "count", len(records))
	return nil
}

// Close saves and closes the workbook.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.SaveAs(w.filePath); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("saving workbook: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing workbook: %w", err)
	}

	w.logger.Info("xlsx writer closed", "file", w.filePath, "rows", w.nextRow-2)
	return nil
}
