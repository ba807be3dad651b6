// Package bigquery provides a BigQuery writer for output rows.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/writer/buffered"
)

// Default names.
const (
	DefaultDataset = "finance"
	DefaultTable   = "statement_rows"
)

// Row is the BigQuery schema of a record.
type Row struct {
	StatementID string     `bigquery:"statement_id"`
	Seq         int64      `bigquery:"seq"`
	Date        civil.Date `bigquery:"txn_date"`
	Institution string     `bigquery:"institution"`
	Category    string     `bigquery:"category"`
	Subcategory string     `bigquery:"subcategory"`
	Description string     `bigquery:"description"`
	Amount      *big.Rat   `bigquery:"amount"`
	InsertedAt  time.Time  `bigquery:"inserted_at"`
}

// Inserter streams rows into a table. *bigquery.Inserter implements it.
type Inserter interface {
	Put(ctx context.Context, src any) error
}

// Config holds the BigQuery writer configuration.
type Config struct {
	ProjectID string
	Dataset   string
	Table     string
	// CreateTable creates the table, partitioned by txn_date, when missing.
	CreateTable bool
	// BatchSize is the number of records to buffer before writing.
	BatchSize int
	// FlushInterval is the time between automatic flushes.
	FlushInterval time.Duration
}

// Writer streams records into a BigQuery table.
type Writer struct {
	inserter Inserter
	table    string
	close    func() error
	logger   *slog.Logger
	buffered *buffered.Writer
}

var schema = func() bigquery.Schema {
	s, err := bigquery.InferSchema(Row{})
	if err != nil {
		panic(err)
	}
	return s
}()

// New creates a client with Application Default Credentials and returns a
// writer for cfg's table.
func New(cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("project id is required")
	}
	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	table := client.Dataset(cfg.Dataset).Table(cfg.Table)
	if cfg.CreateTable {
		if err := ensureTable(ctx, table, logger); err != nil {
			_ = client.Close()
			return nil, err
		}
	}

	w := NewWithInserter(table.Inserter(), cfg, logger)
	w.table = table.FullyQualifiedName()
	w.close = client.Close
	return w, nil
}

func ensureTable(ctx context.Context, table *bigquery.Table, logger *slog.Logger) error {
	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("reading table metadata: %w", err)
	}

	err = table.Create(ctx, &bigquery.TableMetadata{
		Schema:           schema,
		TimePartitioning: &bigquery.TimePartitioning{Field: "txn_date"},
	})
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	logger.Info("created bigquery table", "table", table.FullyQualifiedName())
	return nil
}

// NewWithInserter returns a writer over an existing inserter.
func NewWithInserter(inserter Inserter, cfg Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		inserter: inserter,
		table:    cfg.Table,
		logger:   logger,
	}
	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "bigquery_buffer"))
	return w
}

// Write consumes records and streams them in batches. The client is closed
// when Write returns.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Record) error {
	defer func() {
		if w.close == nil {
			return
		}
		if err := w.close(); err != nil {
			w.logger.Warn("failed to close bigquery client", "error", err)
		}
	}()
	return w.buffered.Write(ctx, in)
}

func (w *Writer) flushBatch(records []*api.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return w.writeBatch(ctx, records)
}

// writeBatch streams records. Each row carries an insert id derived from
// (statement_id, seq) so BigQuery drops retried duplicates.
func (w *Writer) writeBatch(ctx context.Context, records []*api.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	savers := make([]*bigquery.StructSaver, 0, len(records))
	for _, r := range records {
		savers = append(savers, &bigquery.StructSaver{
			Schema:   schema,
			InsertID: fmt.Sprintf("%s-%d", r.StatementID, r.Seq),
			Struct:   toRow(r, now),
		})
	}

	if err := w.inserter.Put(ctx, savers); err != nil {
		var multi bigquery.PutMultiError
		if errors.As(err, &multi) && len(multi) > 0 {
			return fmt.Errorf("inserting into %s: %d row(s) rejected, first: %w", w.table, len(multi), &multi[0])
		}
		return fmt.Errorf("inserting into %s: %w", w.table, err)
	}

	w.logger.Info("wrote record batch", "count", len(records), "table", w.table)
	return nil
}

func toRow(r *api.Record, now time.Time) Row {
	return Row{
		StatementID: r.StatementID,
		Seq:         int64(r.Seq),
		Date:        civil.Date{Year: r.Row.Year, Month: time.Month(r.Row.Month), Day: r.Row.Day},
		Institution: r.Row.Institution,
		Category:    r.Row.Category,
		Subcategory: r.Row.Subcategory,
		Description: r.Row.Description,
		Amount:      r.Row.Amount.Rat(),
		InsertedAt:  now,
	}
}
