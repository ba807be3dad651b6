// Package placeholder provides institutions whose statement layout is not
// supported yet. They accept any text and produce an empty, valid result.
package placeholder

import (
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/parser"
)

// Institution is a registered institution without extraction rules.
type Institution struct {
	name     string
	currency string
}

var _ parser.Institution = (*Institution)(nil)

// New returns a placeholder institution.
func New(name, currency string) *Institution {
	return &Institution{name: name, currency: currency}
}

// Name returns the display name.
func (i *Institution) Name() string { return i.name }

// Currency returns the statement currency.
func (i *Institution) Currency() string { return i.currency }

// Normalize returns raw unchanged.
func (i *Institution) Normalize(raw string) string { return raw }

// Recognize finds nothing.
func (i *Institution) Recognize(string, *parser.Context) ([]api.Transaction, error) {
	return nil, nil
}

// Classify leaves every description unclassified.
func (i *Institution) Classify(string, decimal.Decimal) api.Classification {
	return api.Classification{Category: api.Unclassified}
}

// CheckConsistency has nothing to reconcile.
func (i *Institution) CheckConsistency([]api.Transaction, *parser.Context) error {
	return nil
}
