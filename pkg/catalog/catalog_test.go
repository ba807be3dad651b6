package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/ArionMiles/txextract/pkg/api"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("loading default catalog: %v", err)
	}

	tests := []struct {
		category, sub string
	}{
		{"Cuidados Pessoais", "Academia"},
		{"Receitas", "Salário"},
		{"Despesas Essenciais", "Aluguel/IPTU"},
		{"Despesas Essenciais", "Condomínio"},
		{"Viagens", "Hospedagem"},
	}
	for _, tc := range tests {
		if !c.HasSubcategory(tc.category, tc.sub) {
			t.Errorf("default catalog missing %s/%s", tc.category, tc.sub)
		}
	}

	if !c.Has("Transferência entre Contas") {
		t.Error("default catalog missing category without subcategories")
	}
	if got := c.Subcategories("Transferência entre Contas"); len(got) != 0 {
		t.Errorf("got subcategories %v, want none", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "categories.yaml")
	yamlBody := "categories:\n  Lazer:\n    - Cinema\n  Receitas:\n    - Salário\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatal(err)
	}

	jsonPath := filepath.Join(dir, "categories.json")
	jsonBody := `{"categories": {"Lazer": ["Cinema"], "Receitas": ["Salário"]}}`
	if err := os.WriteFile(jsonPath, []byte(jsonBody), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{yamlPath, jsonPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			c, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got, want := c.Categories(), []string{"Lazer", "Receitas"}; !reflect.DeepEqual(got, want) {
				t.Errorf("categories: got %v, want %v", got, want)
			}
			if !c.HasSubcategory("Receitas", "Salário") {
				t.Error("missing Receitas/Salário")
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	noRoot := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(noRoot, []byte("labels:\n  a: b\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(noRoot); err == nil {
		t.Error("expected error for file without categories key")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLookupIsUnicodeNormalized(t *testing.T) {
	c := FromMap(map[string][]string{"Receitas": {"Salário"}})

	decomposed := norm.NFD.String("Salário")
	if decomposed == "Salário" {
		t.Fatal("test setup: NFD form should differ")
	}
	if !c.HasSubcategory("Receitas", decomposed) {
		t.Error("decomposed subcategory should match")
	}
}

func TestSuggest(t *testing.T) {
	c := FromMap(map[string][]string{
		"Receitas":            {"Salário"},
		"Despesas Essenciais": {"Aluguel/IPTU", "Condomínio"},
		"Lazer":               nil,
	})

	tests := []struct {
		name string
		want string
	}{
		{"Receita", "Receitas"},
		{"despesas", "Despesas Essenciais"},
		{"Lazr", "Lazer"},
		{"Completely Different", ""},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Suggest(tc.name); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	c := FromMap(map[string][]string{
		"Receitas":                   {"Salário"},
		"Despesas Essenciais":        {"Aluguel/IPTU"},
		"Transferência entre Contas": nil,
	})

	tests := []struct {
		name           string
		txns           []api.Transaction
		wantViolations int
	}{
		{
			name: "all valid",
			txns: []api.Transaction{
				{Description: "REMUNERACAO/SALARIO", Category: "Receitas", Subcategory: "Salário"},
				{Description: "PIX TRANSF Mateus", Category: "Transferência entre Contas"},
			},
		},
		{
			name: "unclassified always passes",
			txns: []api.Transaction{
				{Description: "GROCERY STORE", Category: api.Unclassified},
			},
		},
		{
			name: "unknown category",
			txns: []api.Transaction{
				{Description: "X", Category: "Lazer"},
			},
			wantViolations: 1,
		},
		{
			name: "unknown subcategory",
			txns: []api.Transaction{
				{Description: "X", Category: "Despesas Essenciais", Subcategory: "Condomínio"},
			},
			wantViolations: 1,
		},
		{
			name: "exhaustive and deduplicated",
			txns: []api.Transaction{
				{Description: "A", Category: "Lazer"},
				{Description: "B", Category: "Lazer"},
				{Description: "C", Category: "Receitas", Subcategory: "Bonus"},
				{Description: "D", Category: "Receitas", Subcategory: "Salário"},
			},
			wantViolations: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.txns, c)
			if tc.wantViolations == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var apiErr *api.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("got %v, want *api.Error", err)
			}
			if apiErr.Kind != api.KindInvalidCategory {
				t.Errorf("kind: got %v, want %v", apiErr.Kind, api.KindInvalidCategory)
			}
			if got := len(apiErr.Violations); got != tc.wantViolations {
				t.Errorf("violations: got %d, want %d (%v)", got, tc.wantViolations, apiErr.Violations)
			}
		})
	}
}

func TestValidate_EmptyCatalogOnlyRejectsClassified(t *testing.T) {
	c := FromMap(nil)

	if err := Validate([]api.Transaction{{Category: api.Unclassified}}, c); err != nil {
		t.Errorf("unclassified against empty catalog: got %v, want nil", err)
	}
	if err := Validate([]api.Transaction{{Category: "Receitas"}}, c); !errors.Is(err, api.ErrInvalidCategory) {
		t.Errorf("got %v, want ErrInvalidCategory", err)
	}
}
