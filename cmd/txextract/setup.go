package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ArionMiles/txextract/internal/plugins"
	"github.com/ArionMiles/txextract/pkg/client"
	"github.com/ArionMiles/txextract/pkg/config"
)

// setupCommand handles the OAuth setup flow for the Sheets writer.
func setupCommand(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	force := fs.Bool("force", false, "re-authenticate even if a token exists")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("=== txextract Setup ===")
	fmt.Println()

	secretsPath := config.ClientSecretFile
	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return fmt.Errorf("credentials file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", secretsPath, secretsPath)
	}

	if !*force {
		if _, err := os.Stat(client.TokenFile); err == nil {
			fmt.Printf("Already authenticated! Token file exists: %s\n", client.TokenFile)
			fmt.Println()
			fmt.Println("To re-authenticate, run: txextract setup -force")
			return nil
		}
	}

	if *force {
		if err := os.Remove(client.TokenFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Println("Forcing re-authentication...")
		fmt.Println()
	}

	scopes, err := plugins.Default().RequiredScopes("sheets")
	if err != nil {
		return err
	}

	fmt.Println("This will set up OAuth authentication with Google.")
	fmt.Println()
	fmt.Println("Required permissions:")
	fmt.Println("  - Sheets: Read and write spreadsheets")
	fmt.Println()

	if err := client.Setup(ctx, secretsPath, client.TokenFile, logger, scopes...); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Setup Complete ===")
	fmt.Println()
	fmt.Printf("Token saved to: %s\n", client.TokenFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println(`  1. Set TXEXTRACT_WRITER=sheets and TXEXTRACT_WRITER_CONFIG='{"sheetTitle": "...", "sheetName": "..."}'`)
	fmt.Println("  2. Run 'txextract run -institution itau statement.pdf'")
	fmt.Println()

	return nil
}
