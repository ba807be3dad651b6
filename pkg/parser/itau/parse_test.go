package itau_test

import (
	"errors"
	"testing"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/catalog"
	"github.com/ArionMiles/txextract/pkg/parser"
	"github.com/ArionMiles/txextract/pkg/parser/itau"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func TestParse_OpeningClosingBalance(t *testing.T) {
	cfg := itau.DefaultConfig()
	cfg.Opening = "OPENING BALANCE"
	cfg.Closing = "CLOSING BALANCE"

	p := parser.New(itau.NewWithConfig(cfg), defaultCatalog(t), nil)

	raw := "01/03/2024 OPENING BALANCE 1000,00\n" +
		"05/03/2024 GROCERY STORE -50,00\n" +
		"31/03/2024 CLOSING BALANCE 950,00"

	rows, err := p.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	mid := rows[1]
	if mid.Year != 2024 || mid.Month != 3 || mid.Day != 5 {
		t.Errorf("date: got %d/%d/%d, want 2024/3/5", mid.Year, mid.Month, mid.Day)
	}
	if mid.Category != api.Unclassified {
		t.Errorf("category: got %q, want %q", mid.Category, api.Unclassified)
	}
	if mid.Subcategory != "" {
		t.Errorf("subcategory: got %q, want empty", mid.Subcategory)
	}
	if mid.Description != "GROCERY STORE" {
		t.Errorf("description: got %q, want %q", mid.Description, "GROCERY STORE")
	}
	if got, want := mid.Amount.StringFixed(2), "-50.00"; got != want {
		t.Errorf("amount: got %s, want %s", got, want)
	}
	if mid.Institution != "Itaú" {
		t.Errorf("institution: got %q, want %q", mid.Institution, "Itaú")
	}
}

func TestParse_Statement(t *testing.T) {
	p := parser.New(itau.New(), defaultCatalog(t), nil)

	raw := `ITAU UNIBANCO S.A.
EXTRATO CONTA CORRENTE | AGENCIA 0001
data | lancamento | valor (R$)
01/03/2024 SALDO INICIAL 5.000,00
05/03/2024 REMUNERACAO/SALARIO 8.500,00
06/03/2024 MOBILEPAG TIT BANCO -3.850,00
07/03/2024 MOBILEPAG TIT BANCO -790,00
10/03/2024 PIX TRANSF FELIPE -150,00
12/03/2024 PIX TRANSF Mateus -1.000,00
31/03/2024 SALDO FINAL 7.710,00
Pagina 1/1`

	res, err := p.Result(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		category    string
		subcategory string
	}{
		{api.Unclassified, ""},
		{"Receitas", "Salário"},
		{"Despesas Essenciais", "Aluguel/IPTU"},
		{"Despesas Essenciais", "Condomínio"},
		{"Cuidados Pessoais", "Academia"},
		{"Transferência entre Contas", ""},
		{api.Unclassified, ""},
	}

	if len(res.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(res.Rows), len(want))
	}
	for i, w := range want {
		if res.Rows[i].Category != w.category || res.Rows[i].Subcategory != w.subcategory {
			t.Errorf("row %d (%s): got %q/%q, want %q/%q", i, res.Rows[i].Description,
				res.Rows[i].Category, res.Rows[i].Subcategory, w.category, w.subcategory)
		}
	}
	if res.Currency != "BRL" {
		t.Errorf("currency: got %q, want BRL", res.Currency)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		cat     *catalog.Catalog
		wantErr error
	}{
		{
			name: "balances do not reconcile",
			raw: "01/03/2024 SALDO INICIAL 1000,00\n" +
				"05/03/2024 PIX -50,00\n" +
				"31/03/2024 SALDO FINAL 940,50",
			wantErr: api.ErrReconciliationMismatch,
		},
		{
			name:    "no closing balance",
			raw:     "01/03/2024 SALDO INICIAL 1000,00\n05/03/2024 PIX -50,00",
			wantErr: api.ErrStructuralExtraction,
		},
		{
			name:    "impossible date",
			raw:     "01/03/2024 SALDO INICIAL 1000,00\n32/03/2024 PIX -50,00",
			wantErr: api.ErrStructuralExtraction,
		},
		{
			name: "category outside catalog",
			raw: "01/03/2024 SALDO INICIAL 1000,00\n" +
				"05/03/2024 REMUNERACAO/SALARIO 100,00\n" +
				"31/03/2024 SALDO FINAL 1100,00",
			cat:     catalog.FromMap(map[string][]string{"Moradia": {"Aluguel"}}),
			wantErr: api.ErrInvalidCategory,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cat := tc.cat
			if cat == nil {
				cat = defaultCatalog(t)
			}

			rows, err := parser.New(itau.New(), cat, nil).Parse(tc.raw)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			if rows != nil {
				t.Errorf("got %d rows, want none on failure", len(rows))
			}
		})
	}
}
