package mongo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArionMiles/txextract/pkg/api"
)

type fakeCollection struct {
	mu        sync.Mutex
	models    []mongo.WriteModel
	ordered   *bool
	inserted  []any
	bulkErr   error
	insertErr error
}

func (f *fakeCollection) BulkWrite(_ context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	f.models = append(f.models, models...)
	for _, o := range opts {
		if o.Ordered != nil {
			f.ordered = o.Ordered
		}
	}
	return &mongo.BulkWriteResult{UpsertedCount: int64(len(models))}, nil
}

func (f *fakeCollection) InsertOne(_ context.Context, document any, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, document)
	return &mongo.InsertOneResult{}, nil
}

type fakeProvider map[string]*fakeCollection

func (p fakeProvider) Collection(name string) Collection {
	c, ok := p[name]
	if !ok {
		c = &fakeCollection{}
		p[name] = c
	}
	return c
}

func record(statement string, seq int, amount string) *api.Record {
	return &api.Record{
		StatementID: statement,
		Seq:         seq,
		Row: api.OutputRow{
			Year: 2024, Month: 3, Day: seq,
			Institution: "Itaú",
			Category:    "Receitas",
			Subcategory: "Salário",
			Description: "REMUNERACAO/SALARIO",
			Amount:      decimal.RequireFromString(amount),
		},
	}
}

func TestWrite(t *testing.T) {
	provider := fakeProvider{}
	w := NewWithProvider(provider, Config{BatchSize: 10, FlushInterval: time.Second}, nil)

	in := make(chan *api.Record, 3)
	in <- record("a", 1, "8500")
	in <- record("a", 2, "-50.5")
	in <- record("b", 1, "1")
	close(in)

	if err := w.Write(context.Background(), in); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows := provider[DefaultCollection]
	if rows == nil || len(rows.models) != 3 {
		t.Fatalf("got %v models, want 3", rows)
	}
	if rows.ordered == nil || *rows.ordered {
		t.Error("bulk write should be unordered")
	}

	model, ok := rows.models[1].(*mongo.UpdateOneModel)
	if !ok {
		t.Fatalf("model type: got %T, want *mongo.UpdateOneModel", rows.models[1])
	}
	if model.Upsert == nil || !*model.Upsert {
		t.Error("model should upsert")
	}
	filter := model.Filter.(bson.M)
	if filter["statement_id"] != "a" || filter["seq"] != 2 {
		t.Errorf("filter: got %v", filter)
	}
	doc := model.Update.(bson.M)["$set"].(Document)
	if doc.Amount.String() != "-50.50" {
		t.Errorf("amount: got %s, want -50.50", doc.Amount.String())
	}
	if got := doc.Date.Format("2006-01-02"); got != "2024-03-02" {
		t.Errorf("date: got %s, want 2024-03-02", got)
	}

	logs := provider[SyncLogCollection]
	if logs == nil || len(logs.inserted) != 1 {
		t.Fatalf("got %v sync logs, want 1", logs)
	}
	entry := logs.inserted[0].(SyncLog)
	if entry.Records != 3 || strings.Join(entry.StatementIDs, ",") != "a,b" {
		t.Errorf("sync log: got %+v", entry)
	}
}

func TestWriteBatch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider fakeProvider
		want     string
	}{
		{
			name:     "bulk write",
			provider: fakeProvider{DefaultCollection: {bulkErr: errors.New("not primary")}},
			want:     "bulk upserting into statement_rows",
		},
		{
			name:     "sync log",
			provider: fakeProvider{SyncLogCollection: {insertErr: errors.New("timeout")}},
			want:     "inserting sync log",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWithProvider(tc.provider, Config{}, nil)
			err := w.writeBatch(context.Background(), []*api.Record{record("a", 1, "1")})
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestWriteBatch_Empty(t *testing.T) {
	provider := fakeProvider{}
	if err := NewWithProvider(provider, Config{}, nil).writeBatch(context.Background(), nil); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if len(provider) != 0 {
		t.Errorf("empty batch touched collections: %v", provider)
	}
}

func TestNew_ConnectionFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for server selection")
	}
	_, err := New(Config{URI: "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=500&connectTimeoutMS=500"}, nil)
	if err == nil {
		t.Error("expected error when no server is listening")
	}
}
