package itau

import (
	"regexp"
	"strings"
	"time"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/money"
	"github.com/ArionMiles/txextract/pkg/parser"
)

const dateLayout = "02/01/2006"

// linePattern matches "DD/MM/YYYY DESCRIPTION AMOUNT [...]". The description is
// non-greedy so a trailing running balance never swallows the amount.
var linePattern = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(.*?)\s+([-+]?\d+,\d{2})`)

// Recognize extracts one transaction per matching line. Lines without the
// transaction shape are skipped.
func (b *Bank) Recognize(normalized string, pc *parser.Context) ([]api.Transaction, error) {
	var txns []api.Transaction

	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pc.Lines++

		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			pc.Skipped++
			continue
		}

		date, err := time.Parse(dateLayout, m[1])
		if err != nil {
			return nil, api.StructuralFailure("invalid date %q on line %q", m[1], line)
		}

		amount, err := money.Parse(m[3], money.CommaDecimal)
		if err != nil {
			return nil, api.StructuralFailure("invalid amount %q on line %q", m[3], line)
		}

		txns = append(txns, api.Transaction{
			Date:        date,
			Description: strings.TrimSpace(m[2]),
			Amount:      amount,
		})
	}

	return txns, nil
}
