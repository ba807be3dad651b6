// Package postgres provides a PostgreSQL writer for output rows.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/writer/buffered"
)

//go:embed migrations/*.sql
var migrations embed.FS

const upsertSQL = `
	INSERT INTO statement_rows (
		statement_id, seq, txn_date, institution, category, subcategory, description, amount
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (statement_id, seq) DO UPDATE SET
		txn_date = EXCLUDED.txn_date,
		institution = EXCLUDED.institution,
		category = EXCLUDED.category,
		subcategory = EXCLUDED.subcategory,
		description = EXCLUDED.description,
		amount = EXCLUDED.amount,
		updated_at = NOW()
`

// Config holds the PostgreSQL writer configuration.
type Config struct {
	// URL is a full connection string. When set, the discrete fields are ignored.
	URL string

	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// BatchSize is the number of records to buffer before writing.
	BatchSize int
	// FlushInterval is the time between automatic flushes.
	FlushInterval time.Duration

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

func (c Config) connString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// pool is the subset of *pgxpool.Pool the writer uses.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Writer writes records to a PostgreSQL database.
type Writer struct {
	pool     pool
	logger   *slog.Logger
	buffered *buffered.Writer
}

// New connects, applies the embedded migrations and returns a writer.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	p, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"port", poolConfig.ConnConfig.Port,
		"database", poolConfig.ConnConfig.Database,
	)

	if err := migrate(ctx, p, logger); err != nil {
		p.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return newWriter(p, cfg, logger), nil
}

func newWriter(p pool, cfg Config, logger *slog.Logger) *Writer {
	w := &Writer{
		pool:   p,
		logger: logger,
	}
	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "postgres_buffer"))
	return w
}

// migrate applies pending migrations with goose. Applied versions are tracked
// in goose's version table, so reconnecting is a no-op.
func migrate(ctx context.Context, p *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(p)
	defer db.Close()

	dir, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, dir)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Write consumes records from the channel and upserts them in batches. The
// pool is closed when Write returns.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Record) error {
	defer w.Close()
	return w.buffered.Write(ctx, in)
}

func (w *Writer) flushBatch(records []*api.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.writeBatch(ctx, records); err != nil {
		return err
	}

	w.logger.Info("wrote record batch", "count", len(records))
	return nil
}

// writeBatch upserts a batch inside one transaction. Rows are keyed on
// (statement_id, seq), so replaying a statement updates it in place.
func (w *Writer) writeBatch(ctx context.Context, records []*api.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, r := range records {
		date := time.Date(r.Row.Year, time.Month(r.Row.Month), r.Row.Day, 0, 0, 0, 0, time.UTC)
		batch.Queue(upsertSQL,
			r.StatementID,
			r.Seq,
			date,
			r.Row.Institution,
			r.Row.Category,
			r.Row.Subcategory,
			r.Row.Description,
			r.Row.Amount,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("upserting record %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Close closes the database connection pool.
func (w *Writer) Close() {
	if w.pool != nil {
		w.pool.Close()
		w.logger.Info("closed PostgreSQL connection pool")
	}
}
