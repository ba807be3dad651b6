package itau

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	bank := New()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "window between balance lines",
			raw: "ITAU UNIBANCO\nEXTRATO\n01/03/2024 SALDO INICIAL 1.000,00\n" +
				"05/03/2024 PIX -50,00\n31/03/2024 SALDO FINAL 950,00\nPágina 1 de 1",
			want: "01/03/2024 SALDO INICIAL 1000,00\n05/03/2024 PIX -50,00\n31/03/2024 SALDO FINAL 950,00",
		},
		{
			name: "no opening line keeps everything",
			raw:  "cabeçalho\n05/03/2024 PIX -50,00",
			want: "cabeçalho\n05/03/2024 PIX -50,00",
		},
		{
			name: "no closing line runs to the end",
			raw:  "topo\n01/03/2024 SALDO INICIAL 10,00\n02/03/2024 TARIFA -1,00",
			want: "01/03/2024 SALDO INICIAL 10,00\n02/03/2024 TARIFA -1,00",
		},
		{
			name: "nested thousands separators",
			raw:  "05/03/2024 APLICACAO 1.234.567,89",
			want: "05/03/2024 APLICACAO 1234567,89",
		},
		{
			name: "structural noise and trailing punctuation",
			raw:  "05/03/2024| MERCADO (LOJA 2) [x] -50,00 .",
			want: "05/03/2024 MERCADO LOJA 2 x -50,00",
		},
		{
			name: "symbol glued to date",
			raw:  "05/03/2024:TARIFA -5,00",
			want: "05/03/2024 TARIFA -5,00",
		},
		{
			name: "blank lines and extra spaces dropped",
			raw:  "\n   05/03/2024    PIX     -50,00   \n\n\t\n",
			want: "05/03/2024 PIX -50,00",
		},
		{
			name: "decomposed accents composed",
			raw:  "05/03/2024 CONDOMI\u0301NIO -790,00",
			want: "05/03/2024 CONDOMÍNIO -790,00",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := bank.Normalize(tc.raw)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}

			if again := bank.Normalize(got); again != got {
				t.Errorf("not idempotent: got %q, want %q", again, got)
			}
		})
	}
}

func TestCleanLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"...", ""},
		{"12.345,67", "12345,67"},
		{"1.5", "1.5"},
		{"05/03/2024.", "05/03/2024"},
		{"PIX_TRANSF", "PIX_TRANSF"},
	}
	for _, tc := range tests {
		if got := cleanLine(tc.in); got != tc.want {
			t.Errorf("cleanLine(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
