// Package reconcile verifies that recognized transactions sum to a reference
// balance or total.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/txextract/pkg/api"
)

// Tolerance is the absolute difference below which two amounts reconcile.
var Tolerance = decimal.New(1, -2)

// Within reports whether |a - b| < Tolerance.
func Within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}

// RunningBalance reconciles statements that carry an opening and a closing
// balance line: closing = opening + sum(all other transactions).
type RunningBalance struct {
	// Opening and Closing are the exact descriptions of the balance records.
	Opening string
	Closing string
}

// Check returns a structural error when either balance record is missing or
// repeated, and a mismatch error when the balances do not reconcile.
func (p RunningBalance) Check(txns []api.Transaction) error {
	var (
		opening, closing   decimal.Decimal
		nOpening, nClosing int
		sum                = decimal.Zero
	)

	for _, t := range txns {
		switch t.Description {
		case p.Opening:
			opening = t.Amount
			nOpening++
		case p.Closing:
			closing = t.Amount
			nClosing++
		default:
			sum = sum.Add(t.Amount)
		}
	}

	if err := unique(p.Opening, nOpening); err != nil {
		return err
	}
	if err := unique(p.Closing, nClosing); err != nil {
		return err
	}

	computed := opening.Add(sum)
	if !Within(closing, computed) {
		return api.ReconciliationMismatch(computed, closing)
	}
	return nil
}

func unique(label string, n int) error {
	switch {
	case n == 0:
		return api.StructuralFailure("balance record %q not found", label)
	case n > 1:
		return api.StructuralFailure("balance record %q found %d times, want 1", label, n)
	}
	return nil
}

// FixedTotal reconciles reports that declare a single total:
// sum(all transactions) = declared.
type FixedTotal struct{}

// Check returns a structural error when no total was captured and a mismatch
// error when the transactions do not add up to it.
func (FixedTotal) Check(txns []api.Transaction, declared *decimal.Decimal) error {
	if declared == nil {
		return api.StructuralFailure("declared total not found")
	}

	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.Amount)
	}

	if !Within(sum, *declared) {
		return api.ReconciliationMismatch(sum, *declared)
	}
	return nil
}
