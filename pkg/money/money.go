// Package money parses locale-formatted statement amounts into decimals and
// renders them for display.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217).
const (
	BRL = "BRL"
	USD = "USD"
)

// Locale describes how an institution writes decimal numbers.
type Locale int

const (
	// CommaDecimal is "1.234,56" (Brazilian statements).
	CommaDecimal Locale = iota
	// DotDecimal is "1,234.56" (US expense reports).
	DotDecimal
)

// Separators returns the decimal and thousands separators for the locale.
func (l Locale) Separators() (decimalSep, thousandsSep string) {
	if l == DotDecimal {
		return ".", ","
	}
	return ",", "."
}

// Parse converts an amount token such as "-1.234,56", "+20,00" or "$1,234.56"
// into a decimal. The sign is preserved from a leading + or -.
func Parse(token string, loc Locale) (decimal.Decimal, error) {
	s := strings.TrimSpace(token)
	s = strings.ReplaceAll(s, " ", "")

	for _, sym := range []string{"R$", "US$", "$"} {
		s = strings.ReplaceAll(s, sym, "")
	}

	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	decimalSep, thousandsSep := loc.Separators()
	s = strings.ReplaceAll(s, thousandsSep, "")
	s = strings.ReplaceAll(s, decimalSep, ".")

	if s == "" {
		return decimal.Zero, fmt.Errorf("invalid amount %q: empty", token)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", token, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// Format renders an amount with the currency's symbol and conventions,
// e.g. "R$950,00" or "$64.75".
func Format(amount decimal.Decimal, currency string) string {
	c := gomoney.GetCurrency(currency)
	if c == nil {
		return amount.StringFixed(2) + " " + currency
	}
	cents := amount.Shift(int32(c.Fraction)).Round(0).IntPart()
	return gomoney.New(cents, c.Code).Display()
}
