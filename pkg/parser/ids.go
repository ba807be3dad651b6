package parser

import "strings"

// Institution identifiers accepted by the factory.
const (
	Itau        = "itau"
	Inter       = "inter"
	Nubank      = "nubank"
	PicPay      = "picpay"
	Splitwise   = "splitwise"
	Creditas    = "creditas"
	ChromeRiver = "chrome_river"
)

// IDs lists every supported institution identifier.
var IDs = []string{Itau, Inter, Nubank, PicPay, Splitwise, Creditas, ChromeRiver}

// CanonicalID lowercases and trims an institution identifier.
func CanonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
