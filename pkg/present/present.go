// Package present projects validated transactions into output rows.
package present

import (
	"github.com/ArionMiles/txextract/pkg/api"
)

// Rows converts transactions into OutputRows stamped with the institution's
// display name. Order and count are preserved.
func Rows(institution string, txns []api.Transaction) []api.OutputRow {
	rows := make([]api.OutputRow, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, api.OutputRow{
			Year:        t.Date.Year(),
			Month:       int(t.Date.Month()),
			Day:         t.Date.Day(),
			Institution: institution,
			Category:    t.Category,
			Subcategory: t.Subcategory,
			Description: t.Description,
			Amount:      t.Amount,
		})
	}
	return rows
}
