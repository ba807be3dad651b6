package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ArionMiles/txextract/internal/plugins"
)

// institutionsCommand lists the registered institutions.
func institutionsCommand(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOCR\tDESCRIPTION")
	for _, p := range plugins.Default().ListInstitutions() {
		inst := p.NewInstitution()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID(), inst.Name(), p.OCRLanguages(), p.Description())
	}
	return tw.Flush()
}

// categoriesCommand prints the taxonomy, one category per line followed by
// its indented subcategories.
func categoriesCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("categories", flag.ContinueOnError)
	path := fs.String("categories", "", "category taxonomy file (default embedded)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := loadCatalog(*path)
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}

	for _, c := range cat.Categories() {
		fmt.Fprintln(out, c)
		for _, s := range cat.Subcategories(c) {
			fmt.Fprintf(out, "  %s\n", s)
		}
	}
	return nil
}
