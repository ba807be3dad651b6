package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ArionMiles/txextract/pkg/api"
)

func send(recs ...*api.Record) <-chan *api.Record {
	ch := make(chan *api.Record, len(recs))
	for _, r := range recs {
		ch <- r
	}
	close(ch)
	return ch
}

func record(desc, amount string) *api.Record {
	return &api.Record{Row: api.OutputRow{
		Year: 2024, Month: 3, Day: 5,
		Institution: "Itaú",
		Category:    api.Unclassified,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
	}}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.xlsx")

	w, err := New(Config{FilePath: path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Write(context.Background(), send(record("GROCERY STORE", "-50"), record("PIX", "20.5"))); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Reopening appends below the existing rows.
	w, err = New(Config{FilePath: path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Write(context.Background(), send(record("TARIFA", "-5"))); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(DefaultSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4: %v", len(rows), rows)
	}
	if rows[0][0] != "year" || rows[0][7] != "amount" {
		t.Errorf("header: got %v", rows[0])
	}
	if rows[1][6] != "GROCERY STORE" || rows[1][7] != "-50" {
		t.Errorf("row 1: got %v", rows[1])
	}
	if rows[3][6] != "TARIFA" {
		t.Errorf("row 3: got %v", rows[3])
	}
	if rows[1][4] != api.Unclassified {
		t.Errorf("category: got %q, want %q", rows[1][4], api.Unclassified)
	}
}
