package itau

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/parser"
)

func TestRecognize(t *testing.T) {
	bank := New()
	normalized := "01/03/2024 SALDO INICIAL 1000,00\n" +
		"ITAU EXTRATO MENSAL\n" +
		"05/03/2024 PIX TRANSF FELIPE -150,00 850,00\n" +
		"06/03/2024 ESTORNO +20,00\n" +
		"31/03/2024 SALDO FINAL 870,00"

	pc := &parser.Context{}
	txns, err := bank.Recognize(normalized, pc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []api.Transaction{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Description: "SALDO INICIAL", Amount: decimal.RequireFromString("1000")},
		{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Description: "PIX TRANSF FELIPE", Amount: decimal.RequireFromString("-150")},
		{Date: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), Description: "ESTORNO", Amount: decimal.RequireFromString("20")},
		{Date: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), Description: "SALDO FINAL", Amount: decimal.RequireFromString("870")},
	}

	if len(txns) != len(want) {
		t.Fatalf("got %d transactions, want %d: %+v", len(txns), len(want), txns)
	}
	for i := range want {
		if !txns[i].Date.Equal(want[i].Date) {
			t.Errorf("txn %d date: got %v, want %v", i, txns[i].Date, want[i].Date)
		}
		if txns[i].Description != want[i].Description {
			t.Errorf("txn %d description: got %q, want %q", i, txns[i].Description, want[i].Description)
		}
		if !txns[i].Amount.Equal(want[i].Amount) {
			t.Errorf("txn %d amount: got %s, want %s", i, txns[i].Amount, want[i].Amount)
		}
	}

	if pc.Lines != 5 {
		t.Errorf("lines: got %d, want 5", pc.Lines)
	}
	if pc.Skipped != 1 {
		t.Errorf("skipped: got %d, want 1", pc.Skipped)
	}
}

func TestRecognize_InvalidDate(t *testing.T) {
	_, err := New().Recognize("31/02/2024 PIX -10,00", &parser.Context{})
	if !errors.Is(err, api.ErrStructuralExtraction) {
		t.Errorf("got %v, want structural extraction failure", err)
	}
}

func TestRecognize_NoMatches(t *testing.T) {
	pc := &parser.Context{}
	txns, err := New().Recognize("nothing here\nstill nothing", pc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("got %d transactions, want 0", len(txns))
	}
	if pc.Skipped != 2 {
		t.Errorf("skipped: got %d, want 2", pc.Skipped)
	}
}

func TestClassify(t *testing.T) {
	bank := New()

	tests := []struct {
		description string
		amount      string
		want        api.Classification
	}{
		{"MOBILEPAG TIT BANCO 0341", "-3850.00", api.Classification{Category: "Despesas Essenciais", Subcategory: "Aluguel/IPTU"}},
		{"MOBILEPAG TIT BANCO 0341", "-790.00", api.Classification{Category: "Despesas Essenciais", Subcategory: "Condomínio"}},
		{"MOBILEPAG TIT BANCO 0341", "-100.00", api.Classification{Category: api.Unclassified}},
		{"PIX TRANSF FELIPE 05/03", "-150.00", api.Classification{Category: "Cuidados Pessoais", Subcategory: "Academia"}},
		{"REMUNERACAO/SALARIO", "8500.00", api.Classification{Category: "Receitas", Subcategory: "Salário"}},
		{"PIX TRANSF Mateus", "-1000.00", api.Classification{Category: "Transferência entre Contas"}},
		{"PIX TRANSF MATEUS", "-1000.00", api.Classification{Category: api.Unclassified}},
	}

	for _, tc := range tests {
		t.Run(tc.description+" "+tc.amount, func(t *testing.T) {
			got := bank.Classify(tc.description, decimal.RequireFromString(tc.amount))
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
