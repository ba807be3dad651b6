// Command txextract converts scanned bank statements and expense reports into
// categorized transaction rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/catalog"
	"github.com/ArionMiles/txextract/pkg/logging"
)

const usage = `Usage: txextract <command> [flags]

Commands:
  run            Parse statement files and write the rows
  watch          Process statements dropped into a directory on a schedule
  status         Check configuration, taxonomy, OCR binaries and OAuth token
  setup          Authorize the Google Sheets writer
  institutions   List supported institutions
  categories     Print the category taxonomy

Run 'txextract <command> -h' for command flags.
`

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	// exitParse marks a statement rejected by the parser, as opposed to an
	// infrastructure failure.
	exitParse = 2
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(exitFailure)
	}

	logCfg := logging.DefaultConfig()
	if os.Args[1] == "watch" {
		logCfg = logging.ProductionConfig()
	}
	logger := logging.Setup(logCfg)

	// Setup context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	err := dispatch(ctx, os.Args[1], os.Args[2:], logger)
	if errors.Is(err, flag.ErrHelp) {
		err = nil
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
	}
	cancel()
	os.Exit(exitCode(err))
}

func dispatch(ctx context.Context, command string, args []string, logger *slog.Logger) error {
	switch command {
	case "run":
		return runCommand(ctx, args, logger)
	case "watch":
		return watchCommand(ctx, args, logger)
	case "status":
		return statusCommand(args)
	case "setup":
		return setupCommand(ctx, args, logger)
	case "institutions":
		return institutionsCommand(os.Stdout)
	case "categories":
		return categoriesCommand(args, os.Stdout)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// exitCode maps an error to the process exit status. Parse failures exit 2.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var perr *api.Error
	if errors.As(err, &perr) {
		return exitParse
	}
	return exitFailure
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}
