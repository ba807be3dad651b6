// Package institutions provides plugin wrappers for the statement formats.
package institutions

import (
	"github.com/ArionMiles/txextract/pkg/money"
	"github.com/ArionMiles/txextract/pkg/parser"
	"github.com/ArionMiles/txextract/pkg/parser/chromeriver"
	"github.com/ArionMiles/txextract/pkg/parser/itau"
	"github.com/ArionMiles/txextract/pkg/parser/placeholder"
)

// Plugin implements the InstitutionPlugin interface.
type Plugin struct {
	id           string
	description  string
	ocrLanguages string
	newInst      func() parser.Institution
}

// ID returns the institution identifier.
func (p *Plugin) ID() string { return p.id }

// Description returns a human-readable description.
func (p *Plugin) Description() string { return p.description }

// OCRLanguages returns the tesseract language list for this format's documents.
func (p *Plugin) OCRLanguages() string { return p.ocrLanguages }

// NewInstitution creates the statement format.
func (p *Plugin) NewInstitution() parser.Institution { return p.newInst() }

// Itau is the Itaú checking-account statement.
func Itau() *Plugin {
	return &Plugin{
		id:           parser.Itau,
		description:  "Itaú checking account statement (balance reconciled)",
		ocrLanguages: "eng+por",
		newInst:      func() parser.Institution { return itau.New() },
	}
}

// ChromeRiver is the Chrome River expense report.
func ChromeRiver() *Plugin {
	return &Plugin{
		id:           parser.ChromeRiver,
		description:  "Chrome River expense report (total reconciled)",
		ocrLanguages: "eng",
		newInst:      func() parser.Institution { return chromeriver.New() },
	}
}

// Placeholder registers an institution without extraction rules.
func Placeholder(id, name string) *Plugin {
	return &Plugin{
		id:           id,
		description:  name + " statement (not supported yet, parses to no rows)",
		ocrLanguages: "eng+por",
		newInst:      func() parser.Institution { return placeholder.New(name, money.BRL) },
	}
}

// All returns a plugin for every institution in parser.IDs.
func All() []*Plugin {
	return []*Plugin{
		Itau(),
		Placeholder(parser.Inter, "Inter"),
		Placeholder(parser.Nubank, "Nubank"),
		Placeholder(parser.PicPay, "PicPay"),
		Placeholder(parser.Splitwise, "Splitwise"),
		Placeholder(parser.Creditas, "Creditas"),
		ChromeRiver(),
	}
}
