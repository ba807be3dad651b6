package chromeriver

import (
	"strings"
	"time"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/money"
	"github.com/ArionMiles/txextract/pkg/parser"
)

// Recognize captures the declared total and extracts one expense per line
// that has a date, an expense type and an amount. The first amount on the
// line is the expense amount.
func (r *Report) Recognize(normalized string, pc *parser.Context) ([]api.Transaction, error) {
	var txns []api.Transaction

	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pc.Lines++
		line = stripThousands(line)

		if isTotalLine(line) {
			if err := r.captureTotal(line, pc); err != nil {
				return nil, err
			}
			continue
		}

		date := dateToken.FindString(line)
		label := labelToken.FindString(line)
		amount := amountToken.FindString(line)
		if date == "" || label == "" || amount == "" {
			pc.Skipped++
			continue
		}

		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, api.StructuralFailure("invalid date %q on line %q", date, line)
		}

		a, err := money.Parse(amount, money.DotDecimal)
		if err != nil {
			return nil, api.StructuralFailure("invalid amount %q on line %q", amount, line)
		}

		txns = append(txns, api.Transaction{
			Date:        d,
			Description: r.canonicalLabel(label),
			Amount:      a,
		})
	}

	return txns, nil
}

func (r *Report) captureTotal(line string, pc *parser.Context) error {
	if pc.DeclaredTotal != nil {
		return nil
	}

	token := amountToken.FindString(line)
	if token == "" {
		return api.StructuralFailure("total line %q has no amount", line)
	}

	total, err := money.Parse(token, money.DotDecimal)
	if err != nil {
		return api.StructuralFailure("invalid total %q: %v", token, err)
	}
	pc.DeclaredTotal = &total
	return nil
}
