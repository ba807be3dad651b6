// Package mongo provides a MongoDB writer for output rows.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/writer/buffered"
)

// Default names.
const (
	DefaultDatabase   = "txextract"
	DefaultCollection = "statement_rows"
	SyncLogCollection = "sync_log"
)

// Collection is the subset of *mongo.Collection the writer uses.
type Collection interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel,
		opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
	InsertOne(ctx context.Context, document any,
		opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// CollectionProvider hands out collections by name.
type CollectionProvider interface {
	Collection(name string) Collection
}

type database struct {
	db *mongo.Database
}

func (d database) Collection(name string) Collection {
	return d.db.Collection(name)
}

// Document is the stored form of a record.
type Document struct {
	StatementID string               `bson:"statement_id"`
	Seq         int                  `bson:"seq"`
	Date        time.Time            `bson:"date"`
	Institution string               `bson:"institution"`
	Category    string               `bson:"category"`
	Subcategory string               `bson:"subcategory"`
	Description string               `bson:"description"`
	Amount      primitive.Decimal128 `bson:"amount"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

// SyncLog records one flushed batch.
type SyncLog struct {
	Collection   string    `bson:"collection"`
	StatementIDs []string  `bson:"statement_ids"`
	Records      int64     `bson:"records"`
	SyncedAt     time.Time `bson:"synced_at"`
}

// Config holds the MongoDB writer configuration.
type Config struct {
	URI        string
	Database   string
	Collection string
	// BatchSize is the number of records to buffer before writing.
	BatchSize int
	// FlushInterval is the time between automatic flushes.
	FlushInterval time.Duration
}

// Writer upserts records into a MongoDB collection.
type Writer struct {
	provider   CollectionProvider
	collection string
	disconnect func(context.Context) error
	logger     *slog.Logger
	buffered   *buffered.Writer
}

// New connects to MongoDB and returns a writer.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB", "database", cfg.Database)

	w := NewWithProvider(database{db: client.Database(cfg.Database)}, cfg, logger)
	w.disconnect = client.Disconnect
	return w, nil
}

// NewWithProvider returns a writer over an existing provider.
func NewWithProvider(provider CollectionProvider, cfg Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	w := &Writer{
		provider:   provider,
		collection: cfg.Collection,
		logger:     logger,
	}
	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "mongo_buffer"))
	return w
}

// Write consumes records and upserts them in batches. The client is
// disconnected when Write returns.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Record) error {
	defer w.close()
	return w.buffered.Write(ctx, in)
}

func (w *Writer) close() {
	if w.disconnect == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.disconnect(ctx); err != nil {
		w.logger.Warn("failed to disconnect from MongoDB", "error", err)
	}
}

func (w *Writer) flushBatch(records []*api.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return w.writeBatch(ctx, records)
}

// writeBatch upserts records keyed on (statement_id, seq) and appends a sync
// log entry.
func (w *Writer) writeBatch(ctx context.Context, records []*api.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(records))
	var statements []string
	seen := make(map[string]bool)
	for _, r := range records {
		doc, err := toDocument(r, now)
		if err != nil {
			return err
		}
		filter := bson.M{"statement_id": r.StatementID, "seq": r.Seq}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))

		if !seen[r.StatementID] {
			seen[r.StatementID] = true
			statements = append(statements, r.StatementID)
		}
	}

	if _, err := w.provider.Collection(w.collection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("bulk upserting into %s: %w", w.collection, err)
	}

	_, err := w.provider.Collection(SyncLogCollection).InsertOne(ctx, SyncLog{
		Collection:   w.collection,
		StatementIDs: statements,
		Records:      int64(len(records)),
		SyncedAt:     now,
	})
	if err != nil {
		return fmt.Errorf("inserting sync log: %w", err)
	}

	w.logger.Info("wrote record batch", "count", len(records), "collection", w.collection)
	return nil
}

func toDocument(r *api.Record, now time.Time) (Document, error) {
	amount, err := primitive.ParseDecimal128(r.Row.Amount.StringFixed(2))
	if err != nil {
		return Document{}, fmt.Errorf("record %d: amount %s: %w", r.Seq, r.Row.Amount, err)
	}
	return Document{
		StatementID: r.StatementID,
		Seq:         r.Seq,
		Date:        time.Date(r.Row.Year, time.Month(r.Row.Month), r.Row.Day, 0, 0, 0, 0, time.UTC),
		Institution: r.Row.Institution,
		Category:    r.Row.Category,
		Subcategory: r.Row.Subcategory,
		Description: r.Row.Description,
		Amount:      amount,
		UpdatedAt:   now,
	}, nil
}
