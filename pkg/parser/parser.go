// Package parser runs the statement pipeline: normalize, recognize, classify,
// reconcile, validate categories and present.
package parser

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/catalog"
	"github.com/ArionMiles/txextract/pkg/present"
)

// Institution is one statement format. Implementations hold only static
// configuration; everything captured while parsing lives in the Context.
type Institution interface {
	// Name is the display name stamped on output rows.
	Name() string
	// Currency is the ISO-4217 code amounts are expressed in.
	Currency() string
	// Normalize converts raw OCR text into canonical lines. It is pure and idempotent.
	Normalize(raw string) string
	// Recognize extracts candidate transactions in source order.
	Recognize(normalized string, pc *Context) ([]api.Transaction, error)
	// Classify assigns a category to one transaction.
	Classify(description string, amount decimal.Decimal) api.Classification
	// CheckConsistency verifies the reconciliation invariant.
	CheckConsistency(txns []api.Transaction, pc *Context) error
}

// Context holds state captured during a single Parse call.
type Context struct {
	// DeclaredTotal is set by fixed-total institutions when the total line is seen.
	DeclaredTotal *decimal.Decimal
	// Lines counts normalized lines examined by the recognizer.
	Lines int
	// Skipped counts lines that did not match the transaction shape.
	Skipped int
}

// Result is the outcome of a successful parse.
type Result struct {
	Institution  string
	Currency     string
	Transactions []api.Transaction
	Rows         []api.OutputRow
}

// Parser runs the pipeline for one institution. It keeps no per-statement
// state and may be reused for any number of statements.
type Parser struct {
	inst    Institution
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// New creates a parser for inst validating categories against cat.
func New(inst Institution, cat *catalog.Catalog, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		inst:    inst,
		catalog: cat,
		logger:  logger,
	}
}

// Institution returns the parser's institution.
func (p *Parser) Institution() Institution {
	return p.inst
}

// Parse converts raw statement text into output rows. Any failure aborts the
// whole statement; no partial result is returned.
func (p *Parser) Parse(raw string) ([]api.OutputRow, error) {
	res, err := p.Result(raw)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Result is like Parse but also returns the validated transactions.
func (p *Parser) Result(raw string) (*Result, error) {
	pc := &Context{}

	normalized := p.inst.Normalize(raw)

	txns, err := p.inst.Recognize(normalized, pc)
	if err != nil {
		return nil, err
	}

	for i := range txns {
		c := p.inst.Classify(txns[i].Description, txns[i].Amount)
		txns[i].Category = c.Category
		txns[i].Subcategory = c.Subcategory
	}

	p.logger.Debug("recognized transactions",
		"institution", p.inst.Name(),
		"count", len(txns),
		"lines", pc.Lines,
		"skipped", pc.Skipped,
	)

	if err := p.inst.CheckConsistency(txns, pc); err != nil {
		return nil, err
	}

	if err := catalog.Validate(txns, p.catalog); err != nil {
		return nil, err
	}

	return &Result{
		Institution:  p.inst.Name(),
		Currency:     p.inst.Currency(),
		Transactions: txns,
		Rows:         present.Rows(p.inst.Name(), txns),
	}, nil
}
