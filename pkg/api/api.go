// Package api defines the core interfaces and data structures for txextract.
package api

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Unclassified is the sentinel category assigned when no rule matches.
// Transactions carrying it always have an empty subcategory.
const Unclassified = "Não Identificado"

// Transaction is a candidate transaction recognized from statement text.
type Transaction struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	// Amount is signed: debits negative, credits positive.
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	// Subcategory is empty when the rule assigns none or the category is Unclassified.
	Subcategory string `json:"subcategory"`
}

// Classification is a (category, subcategory) pair.
type Classification struct {
	Category    string `json:"category" koanf:"category"`
	Subcategory string `json:"subcategory" koanf:"subcategory"`
}

// PlainRule matches when Pattern is a substring of the description.
type PlainRule struct {
	Pattern string
	Classification
}

// ConditionalRule matches when Pattern is a substring of the description and
// the absolute amount lies within [Min, Max].
type ConditionalRule struct {
	Pattern string
	Min     decimal.Decimal
	Max     decimal.Decimal
	Classification
}

// OutputRow is the canonical projection of a validated transaction.
type OutputRow struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Day         int             `json:"day"`
	Institution string          `json:"institution"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Columns are the output column names, in order.
var Columns = []string{"year", "month", "day", "bank", "category", "subcategory", "description", "amount"}

// Strings renders the row in Columns order. The amount has two decimals.
func (r OutputRow) Strings() []string {
	return []string{
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Month),
		strconv.Itoa(r.Day),
		r.Institution,
		r.Category,
		r.Subcategory,
		r.Description,
		r.Amount.StringFixed(2),
	}
}

// Record wraps an OutputRow with the statement it came from.
type Record struct {
	// StatementID identifies one parse of one statement file.
	StatementID string `json:"statement_id"`
	// Seq is the row's position within the statement, starting at 1.
	Seq int       `json:"seq"`
	Row OutputRow `json:"row"`
}

// Extractor turns a statement document into raw text. Pages are concatenated
// in reading order.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Writer consumes records from a channel and writes them to a destination.
// Implementations return when the channel is closed or the context is canceled.
type Writer interface {
	Write(ctx context.Context, in <-chan *Record) error
}
