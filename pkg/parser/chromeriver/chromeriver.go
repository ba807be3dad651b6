// Package chromeriver parses Chrome River expense reports: US-formatted
// amounts, MM/DD/YYYY dates, a fixed vocabulary of expense types and a single
// declared report total.
package chromeriver

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/classify"
	"github.com/ArionMiles/txextract/pkg/money"
	"github.com/ArionMiles/txextract/pkg/parser"
	"github.com/ArionMiles/txextract/pkg/reconcile"
)

// Name is the display name stamped on output rows.
const Name = "Chrome River"

const dateLayout = "01/02/2006"

// Labels is the expense type vocabulary. A line is a transaction only when it
// names one of these.
var Labels = []string{
	"Meals",
	"Lodging",
	"Airfare",
	"Taxi",
	"Car Rental",
	"Parking",
	"Mileage",
	"Hotel",
	"Breakfast",
	"Lunch",
	"Dinner",
	"Ground Transportation",
	"Internet",
	"Office Supplies",
	"Telephone",
	"Tolls",
	"Train",
	"Conference Fees",
}

// Rules maps expense types onto the category catalog.
var Rules = []api.PlainRule{
	{Pattern: "Airfare", Classification: api.Classification{Category: "Viagens", Subcategory: "Passagens"}},
	{Pattern: "Lodging", Classification: api.Classification{Category: "Viagens", Subcategory: "Hospedagem"}},
	{Pattern: "Hotel", Classification: api.Classification{Category: "Viagens", Subcategory: "Hospedagem"}},
	{Pattern: "Meals", Classification: api.Classification{Category: "Alimentação", Subcategory: "Restaurantes"}},
	{Pattern: "Taxi", Classification: api.Classification{Category: "Transporte", Subcategory: "Táxi/Aplicativo"}},
	{Pattern: "Ground Transportation", Classification: api.Classification{Category: "Transporte", Subcategory: "Táxi/Aplicativo"}},
}

var (
	totalMarker = regexp.MustCompile(`(?i)\b(report\s+)?total\b`)
	dateToken   = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)
	leadingDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}\b`)
	amountToken = regexp.MustCompile(`[-+]?\$?\b\d+\.\d{2}\b`)
	commaAmount = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\.\d{2}\b`)
	whitespace  = regexp.MustCompile(`\s+`)
	labelToken  = labelPattern(Labels)
)

// labelPattern builds a case-insensitive, word-bounded alternation with longer
// labels first so "Ground Transportation" wins over a shorter overlap.
func labelPattern(labels []string) *regexp.Regexp {
	sorted := append([]string(nil), labels...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, l := range sorted {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(l), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Report is the Chrome River expense report format.
type Report struct {
	classifier *classify.Classifier
	canonical  map[string]string
}

var _ parser.Institution = (*Report)(nil)

// New returns the Chrome River format.
func New() *Report {
	canonical := make(map[string]string, len(Labels))
	for _, l := range Labels {
		canonical[strings.ToLower(l)] = l
	}
	return &Report{
		classifier: classify.New(nil, Rules),
		canonical:  canonical,
	}
}

// Name returns the display name.
func (r *Report) Name() string { return Name }

// Currency returns USD.
func (r *Report) Currency() string { return money.USD }

// Classify maps the expense type onto a category.
func (r *Report) Classify(description string, amount decimal.Decimal) api.Classification {
	return r.classifier.Classify(description, amount)
}

// CheckConsistency compares the sum of all expenses with the declared total.
func (r *Report) CheckConsistency(txns []api.Transaction, pc *parser.Context) error {
	return reconcile.FixedTotal{}.Check(txns, pc.DeclaredTotal)
}

// isTotalLine reports whether line declares the report total. Expense lines
// open with their date, so a merchant named "Total ..." is never the marker.
func isTotalLine(line string) bool {
	return !leadingDate.MatchString(line) && totalMarker.MatchString(line)
}

func (r *Report) canonicalLabel(match string) string {
	key := strings.ToLower(whitespace.ReplaceAllString(match, " "))
	if l, ok := r.canonical[key]; ok {
		return l
	}
	return match
}
