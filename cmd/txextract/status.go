package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/ArionMiles/txextract/internal/plugins"
	"github.com/ArionMiles/txextract/pkg/client"
	"github.com/ArionMiles/txextract/pkg/config"
	"github.com/ArionMiles/txextract/pkg/ocr"
)

// statusCommand checks the configuration and its dependencies.
func statusCommand(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "JSON config file (default $TXEXTRACT_CONFIG_FILE)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out := os.Stdout
	fmt.Fprintln(out, "=== txextract Status ===")
	fmt.Fprintln(out)

	allGood := true
	check := func(label string, err error, ok string) {
		fmt.Fprintf(out, "%s: ", label)
		if err != nil {
			fmt.Fprintf(out, "✗ %v\n", err)
			allGood = false
			return
		}
		fmt.Fprintf(out, "✓ %s\n", ok)
	}

	cfg, err := config.Load(*configPath)
	check("Configuration", err, "loaded")
	if err != nil {
		printFinalStatus(out, false)
		return errors.New("status checks failed")
	}
	check("Settings", cfg.Validate(), fmt.Sprintf("institution=%s writer=%s", cfg.Institution, cfg.Writer))

	registry := plugins.Default()
	if cfg.Institution != "" {
		p, err := registry.GetInstitution(cfg.Institution)
		ok := ""
		if err == nil {
			ok = p.Description()
		}
		check("Institution", err, ok)
	}

	label := "Category taxonomy (embedded)"
	if cfg.CategoriesFile != "" {
		label = fmt.Sprintf("Category taxonomy (%s)", cfg.CategoriesFile)
	}
	cat, err := loadCatalog(cfg.CategoriesFile)
	ok := ""
	if err == nil {
		ok = fmt.Sprintf("%d categories", cat.Len())
	}
	check(label, err, ok)

	if cfg.OCR.Engine == ocr.EngineTesseract {
		check(fmt.Sprintf("OCR binaries (%s, %s)", cfg.OCR.TesseractBin, cfg.OCR.PdftoppmBin),
			ocr.Available(cfg.OCRFor("")), "found")
	} else {
		fmt.Fprintf(out, "OCR: - disabled (engine %q reads .txt files only)\n", cfg.OCR.Engine)
	}

	if scopes, _ := registry.RequiredScopes(cfg.Writer); len(scopes) > 0 {
		checkToken(out, &allGood)
	}

	if cfg.PushgatewayURL != "" {
		fmt.Fprintf(out, "Pushgateway: %s\n", cfg.PushgatewayURL)
	}

	printFinalStatus(out, allGood)
	if !allGood {
		return errors.New("status checks failed")
	}
	return nil
}

func checkToken(out io.Writer, allGood *bool) {
	fmt.Fprintf(out, "Credentials file (%s): ", config.ClientSecretFile)
	if _, err := os.Stat(config.ClientSecretFile); err != nil {
		fmt.Fprintln(out, "✗ Not found")
		*allGood = false
	} else {
		fmt.Fprintln(out, "✓ Found")
	}

	fmt.Fprintf(out, "OAuth token (%s): ", client.TokenFile)
	data, err := os.ReadFile(client.TokenFile)
	if err != nil {
		fmt.Fprintln(out, "✗ Not found (run 'txextract setup')")
		*allGood = false
		return
	}
	var token struct {
		Expiry time.Time `json:"expiry"`
	}
	if err := json.Unmarshal(data, &token); err != nil {
		fmt.Fprintln(out, "✗ Invalid format")
		*allGood = false
		return
	}
	if token.Expiry.Before(time.Now()) {
		fmt.Fprintln(out, "⚠ Expired (will refresh on next run)")
	} else {
		fmt.Fprintf(out, "✓ Valid (expires: %s)\n", token.Expiry.Format(time.RFC3339))
	}
}

func printFinalStatus(out io.Writer, allGood bool) {
	fmt.Fprintln(out)
	if allGood {
		fmt.Fprintln(out, "=== All checks passed ===")
		return
	}
	fmt.Fprintln(out, "=== Some checks failed ===")
}
