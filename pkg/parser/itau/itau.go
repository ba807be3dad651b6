// Package itau parses Itaú checking-account statements and, through Config,
// any other comma-decimal statement reconciled by opening and closing balances.
package itau

import (
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/classify"
	"github.com/ArionMiles/txextract/pkg/money"
	"github.com/ArionMiles/txextract/pkg/parser"
	"github.com/ArionMiles/txextract/pkg/reconcile"
)

// Default balance labels on Itaú statements.
const (
	OpeningLabel = "SALDO INICIAL"
	ClosingLabel = "SALDO FINAL"
)

// Config describes a running-balance statement format.
type Config struct {
	// Name is the display name stamped on output rows.
	Name string
	// Currency is the ISO-4217 currency code.
	Currency string
	// Opening and Closing are the balance labels. They bound the transaction
	// window and anchor reconciliation.
	Opening string
	Closing string
	// Conditional rules are tried before Plain rules, each in order.
	Conditional []api.ConditionalRule
	Plain       []api.PlainRule
}

// DefaultConfig returns the Itaú configuration.
func DefaultConfig() Config {
	return Config{
		Name:     "Itaú",
		Currency: money.BRL,
		Opening:  OpeningLabel,
		Closing:  ClosingLabel,
		Conditional: []api.ConditionalRule{
			{
				Pattern:        "MOBILEPAG TIT BANCO",
				Min:            decimal.NewFromInt(3800),
				Max:            decimal.NewFromInt(3900),
				Classification: api.Classification{Category: "Despesas Essenciais", Subcategory: "Aluguel/IPTU"},
			},
			{
				Pattern:        "MOBILEPAG TIT BANCO",
				Min:            decimal.NewFromInt(780),
				Max:            decimal.NewFromInt(800),
				Classification: api.Classification{Category: "Despesas Essenciais", Subcategory: "Condomínio"},
			},
		},
		Plain: []api.PlainRule{
			{Pattern: "PIX TRANSF FELIPE", Classification: api.Classification{Category: "Cuidados Pessoais", Subcategory: "Academia"}},
			{Pattern: "REMUNERACAO/SALARIO", Classification: api.Classification{Category: "Receitas", Subcategory: "Salário"}},
			{Pattern: "PIX TRANSF Mateus", Classification: api.Classification{Category: "Transferência entre Contas"}},
		},
	}
}

// Bank is a running-balance statement format.
type Bank struct {
	cfg        Config
	classifier *classify.Classifier
	policy     reconcile.RunningBalance
}

var _ parser.Institution = (*Bank)(nil)

// New returns the Itaú format.
func New() *Bank {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig returns a running-balance format described by cfg.
func NewWithConfig(cfg Config) *Bank {
	return &Bank{
		cfg:        cfg,
		classifier: classify.New(cfg.Conditional, cfg.Plain),
		policy:     reconcile.RunningBalance{Opening: cfg.Opening, Closing: cfg.Closing},
	}
}

// Name returns the display name.
func (b *Bank) Name() string { return b.cfg.Name }

// Currency returns the statement currency.
func (b *Bank) Currency() string { return b.cfg.Currency }

// Classify applies the configured rules.
func (b *Bank) Classify(description string, amount decimal.Decimal) api.Classification {
	return b.classifier.Classify(description, amount)
}

// CheckConsistency reconciles the opening balance plus every other
// transaction against the closing balance.
func (b *Bank) CheckConsistency(txns []api.Transaction, _ *parser.Context) error {
	return b.policy.Check(txns)
}
