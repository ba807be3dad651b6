package itau_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/parser"
	"github.com/ArionMiles/txextract/pkg/parser/itau"
)

type fakeTxn struct {
	day         int
	description string
	cents       int64
}

// formatBRL renders cents as "-1.234,56".
func formatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var groups []string
	for len(whole) > 3 {
		groups = append([]string{whole[len(whole)-3:]}, groups...)
		whole = whole[:len(whole)-3]
	}
	groups = append([]string{whole}, groups...)
	return fmt.Sprintf("%s%s,%02d", sign, strings.Join(groups, "."), cents%100)
}

func fakeDescription(f *gofakeit.Faker) string {
	words := []string{"COMPRA"}
	count := f.IntRange(1, 3)
	for i := 0; i < count; i++ {
		w := strings.Map(func(r rune) rune {
			if r >= 'A' && r <= 'Z' {
				return r
			}
			return -1
		}, strings.ToUpper(f.Word()))
		if w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

func fakeStatement(f *gofakeit.Faker, n int) (string, int64, []fakeTxn) {
	opening := int64(f.IntRange(0, 2_000_000))
	balance := opening

	txns := make([]fakeTxn, n)
	for i := range txns {
		cents := int64(f.IntRange(1, 150_000_00))
		if f.Bool() {
			cents = -cents
		}
		balance += cents
		txns[i] = fakeTxn{day: f.IntRange(2, 28), description: fakeDescription(f), cents: cents}
	}

	var b strings.Builder
	b.WriteString("EXTRATO CONTA CORRENTE\n")
	fmt.Fprintf(&b, "01/03/2024 %s %s\n", itau.OpeningLabel, formatBRL(opening))
	for _, tx := range txns {
		fmt.Fprintf(&b, "%02d/03/2024 %s %s\n", tx.day, tx.description, formatBRL(tx.cents))
	}
	fmt.Fprintf(&b, "31/03/2024 %s %s\n", itau.ClosingLabel, formatBRL(balance))
	b.WriteString("Central de atendimento 4004 4828\n")
	return b.String(), opening, txns
}

func TestFormatBRL(t *testing.T) {
	tests := map[int64]string{
		0:         "0,00",
		5:         "0,05",
		-123456:   "-1.234,56",
		123456789: "1.234.567,89",
		100000:    "1.000,00",
	}
	for in, want := range tests {
		if got := formatBRL(in); got != want {
			t.Errorf("formatBRL(%d): got %q, want %q", in, got, want)
		}
	}
}

func TestParse_GeneratedStatements(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			f := gofakeit.New(seed)
			n := f.IntRange(1, 40)
			raw, opening, txns := fakeStatement(f, n)

			rows, err := parser.New(itau.New(), defaultCatalog(t), nil).Parse(raw)
			if err != nil {
				t.Fatalf("Parse: %v\n%s", err, raw)
			}
			if len(rows) != n+2 {
				t.Fatalf("got %d rows, want %d", len(rows), n+2)
			}

			if got := rows[0].Amount.Shift(2).IntPart(); got != opening {
				t.Errorf("opening: got %d cents, want %d", got, opening)
			}
			for i, tx := range txns {
				row := rows[i+1]
				if row.Description != tx.description {
					t.Errorf("row %d description: got %q, want %q", i+1, row.Description, tx.description)
				}
				if got := row.Amount.Shift(2).IntPart(); got != tx.cents {
					t.Errorf("row %d amount: got %d cents, want %d", i+1, got, tx.cents)
				}
				if row.Day != tx.day || row.Month != 3 || row.Year != 2024 {
					t.Errorf("row %d date: got %d/%d/%d", i+1, row.Day, row.Month, row.Year)
				}
				if row.Category != api.Unclassified {
					t.Errorf("row %d category: got %q, want %q", i+1, row.Category, api.Unclassified)
				}
			}
		})
	}
}

func TestParse_GeneratedMismatch(t *testing.T) {
	f := gofakeit.New(42)
	raw, _, txns := fakeStatement(f, 10)

	// Drop one transaction line so the closing balance no longer adds up.
	line := fmt.Sprintf("%02d/03/2024 %s %s\n", txns[3].day, txns[3].description, formatBRL(txns[3].cents))
	tampered := strings.Replace(raw, line, "", 1)
	if tampered == raw {
		t.Fatal("transaction line not found")
	}

	_, err := parser.New(itau.New(), defaultCatalog(t), nil).Parse(tampered)
	if api.KindOf(err) != api.KindReconciliationMismatch {
		t.Errorf("got %v, want a reconciliation mismatch", err)
	}
}
