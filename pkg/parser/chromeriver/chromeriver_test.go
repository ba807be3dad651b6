package chromeriver

import (
	"errors"
	"testing"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/parser"
)

func TestNormalize(t *testing.T) {
	report := New()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "wrapped row keeps last amount",
			raw:  "01/15/2024 Lodging Marriott Downtown\n1,234.56\n99.00",
			want: "01/15/2024 Lodging Marriott Downtown 99.00",
		},
		{
			name: "cut after report total",
			raw: "Expense Report\n\n01/10/2024 Meals 12.50\n01/11/2024 Lodging 45.00\n" +
				"01/12/2024 Taxi 7.25\nReport Total 64.75\nApproved by Finance\n01/20/2024 Meals 5.00",
			want: "Expense Report\n\n01/10/2024 Meals 12.50\n\n01/11/2024 Lodging 45.00\n\n" +
				"01/12/2024 Taxi 7.25\n\nReport Total 64.75",
		},
		{
			name: "dated expense naming a total merchant does not cut",
			raw:  "01/10/2024 Meals Total Wine & More 12.50\n\n01/11/2024 Lodging Hilton 45.00\n\nReport Total 57.50",
			want: "01/10/2024 Meals Total Wine & More 12.50\n\n01/11/2024 Lodging Hilton 45.00\n\nReport Total 57.50",
		},
		{
			name: "subtotal does not cut",
			raw:  "Subtotal 10.00\n\n01/12/2024 Meals 10.00",
			want: "Subtotal 10.00\n\n01/12/2024 Meals 10.00",
		},
		{
			name: "blank runs collapse",
			raw:  "Employee: J. Doe\n\n\n\nCost Center 42\n\n",
			want: "Employee: J. Doe\n\nCost Center 42",
		},
		{
			name: "total keeps thousands-free amount",
			raw:  "01/10/2024 Airfare 1,234.56\nTOTAL: $1,234.56",
			want: "01/10/2024 Airfare 1234.56\n\nTOTAL: $1234.56",
		},
		{
			name: "whitespace collapsed",
			raw:  "  01/10/2024\t  Meals    12.50  ",
			want: "01/10/2024 Meals 12.50",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := report.Normalize(tc.raw)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}

			if again := report.Normalize(got); again != got {
				t.Errorf("not idempotent: got %q, want %q", again, got)
			}
		})
	}
}

func TestRecognize(t *testing.T) {
	report := New()

	normalized := "Expense Report\n\n" +
		"01/10/2024 Meals Client dinner 12.50 25.00\n\n" +
		"01/11/2024 GROUND   TRANSPORTATION airport 30.00\n\n" +
		"01/12/2024 Car Rental Hertz 80.00\n\n" +
		"01/13/2024 Training 10.00\n\n" +
		"01/14/2024 Snacks 5.00\n\n" +
		"Report Total 122.50"

	pc := &parser.Context{}
	txns, err := report.Recognize(normalized, pc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		description string
		amount      string
		day         int
	}{
		{"Meals", "12.50", 10},
		{"Ground Transportation", "30.00", 11},
		{"Car Rental", "80.00", 12},
	}

	if len(txns) != len(want) {
		t.Fatalf("got %d transactions, want %d: %+v", len(txns), len(want), txns)
	}
	for i, w := range want {
		if txns[i].Description != w.description {
			t.Errorf("txn %d description: got %q, want %q", i, txns[i].Description, w.description)
		}
		if got := txns[i].Amount.StringFixed(2); got != w.amount {
			t.Errorf("txn %d amount: got %s, want %s", i, got, w.amount)
		}
		if txns[i].Date.Month() != 1 || txns[i].Date.Day() != w.day {
			t.Errorf("txn %d date: got %v, want January %d", i, txns[i].Date, w.day)
		}
	}

	if pc.DeclaredTotal == nil {
		t.Fatal("declared total not captured")
	}
	if got := pc.DeclaredTotal.StringFixed(2); got != "122.50" {
		t.Errorf("declared total: got %s, want 122.50", got)
	}
	if pc.Skipped != 3 {
		t.Errorf("skipped: got %d, want 3", pc.Skipped)
	}
}

func TestRecognize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		normalized string
	}{
		{name: "impossible date", normalized: "13/45/2024 Meals 1.00"},
		{name: "total without amount", normalized: "Report Total"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Recognize(tc.normalized, &parser.Context{})
			if !errors.Is(err, api.ErrStructuralExtraction) {
				t.Errorf("got %v, want structural extraction failure", err)
			}
		})
	}
}

func TestRecognize_FirstTotalWins(t *testing.T) {
	pc := &parser.Context{}
	if _, err := New().Recognize("Total 10.00\nReport Total 20.00", pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pc.DeclaredTotal.StringFixed(2); got != "10.00" {
		t.Errorf("got %s, want 10.00", got)
	}
}

func TestLabelPattern_LongestFirst(t *testing.T) {
	re := labelPattern([]string{"Car", "Car Rental"})
	if got := re.FindString("01/10/2024 car rental 10.00"); got != "car rental" {
		t.Errorf("got %q, want %q", got, "car rental")
	}
}
