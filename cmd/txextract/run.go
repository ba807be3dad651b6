package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/pkg/errors"

	"github.com/ArionMiles/txextract/internal/metrics"
	"github.com/ArionMiles/txextract/internal/plugins"
	"github.com/ArionMiles/txextract/internal/runner"
	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/client"
	"github.com/ArionMiles/txextract/pkg/config"
)

// commonFlags are shared by run and watch.
type commonFlags struct {
	configPath   *string
	institution  *string
	writer       *string
	writerConfig *string
	categories   *string
}

func registerCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath:   fs.String("config", "", "JSON config file (default $TXEXTRACT_CONFIG_FILE)"),
		institution:  fs.String("institution", "", "institution id (default $TXEXTRACT_INSTITUTION)"),
		writer:       fs.String("writer", "", "writer plugin (default $TXEXTRACT_WRITER or stdout)"),
		writerConfig: fs.String("writer-config", "", "writer plugin JSON config (default $TXEXTRACT_WRITER_CONFIG)"),
		categories:   fs.String("categories", "", "category taxonomy file (default embedded)"),
	}
}

// load reads the configuration and applies flag overrides.
func (f commonFlags) load() (config.Config, error) {
	cfg, err := config.Load(*f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if *f.institution != "" {
		cfg.Institution = *f.institution
	}
	if *f.writer != "" {
		cfg.Writer = *f.writer
	}
	if *f.writerConfig != "" {
		cfg.WriterConfig = *f.writerConfig
	}
	if *f.categories != "" {
		cfg.CategoriesFile = *f.categories
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// pipeline wires the registry, runner and writer factory for cfg.
func pipeline(cfg config.Config, logger *slog.Logger) (*runner.Runner, runner.WriterFactory, error) {
	registry := plugins.Default()

	if _, err := registry.GetInstitution(cfg.Institution); err != nil {
		return nil, nil, err
	}

	cat, err := loadCatalog(cfg.CategoriesFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading categories")
	}

	writerCfg, err := cfg.WriterConfigJSON()
	if err != nil {
		return nil, nil, err
	}

	// Get required OAuth scopes from the writer plugin
	scopes, err := registry.RequiredScopes(cfg.Writer)
	if err != nil {
		return nil, nil, err
	}
	var httpClient *http.Client
	if len(scopes) > 0 {
		logger.Info("OAuth scopes required", "scopes", scopes)
		httpClient, err = client.New(config.ClientSecretFile, client.TokenFile, scopes...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "creating http client")
		}
	}

	newWriter := func() (api.Writer, error) {
		return registry.CreateWriter(
			cfg.Writer,
			httpClient,
			writerCfg,
			logger.With("component", "writer", "plugin", cfg.Writer),
		)
	}

	r := runner.New(runner.Config{
		Registry:       registry,
		Catalog:        cat,
		OCR:            cfg.OCRFor(""),
		Metrics:        metrics.New(),
		PushgatewayURL: cfg.PushgatewayURL,
	}, logger.With("component", "runner"))

	return r, newWriter, nil
}

// runCommand parses the given statement files once.
func runCommand(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	common := registerCommon(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: txextract run [flags] files...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no statement files given")
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	r, newWriter, err := pipeline(cfg, logger)
	if err != nil {
		return err
	}

	w, err := newWriter()
	if err != nil {
		return errors.Wrap(err, "creating writer")
	}

	logger.Info("processing statements",
		"institution", cfg.Institution,
		"writer", cfg.Writer,
		"files", fs.NArg(),
	)

	summary, err := r.ProcessFiles(ctx, fs.Args(), cfg.Institution, w)
	if err != nil {
		return err
	}

	printSummary(os.Stderr, summary)
	return summary.Err()
}

func printSummary(out io.Writer, s runner.Summary) {
	fmt.Fprintf(out, "\n%s: %d statement(s) parsed, %d failed, %d row(s)\n", s.Institution, s.Processed, s.Failed, s.Rows)
	for _, line := range s.TotalLines() {
		fmt.Fprintf(out, "  %s\n", line)
	}
	for _, f := range s.Failures {
		fmt.Fprintf(out, "  FAILED %s\n", f.Error())
	}
}
