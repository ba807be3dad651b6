// Package config loads txextract settings from the environment and an optional JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ArionMiles/txextract/pkg/ocr"
	"github.com/ArionMiles/txextract/pkg/parser"
)

// ClientSecretFile is the default path to the Google OAuth credentials JSON file.
const ClientSecretFile = "data/client_secret.json"

// DotEnvFile is loaded into the environment when present.
const DotEnvFile = ".env"

// DefaultWatchSchedule is the cron spec used by the watch command.
const DefaultWatchSchedule = "@every 1m"

// Writers lists the writer names accepted in TXEXTRACT_WRITER.
var Writers = []string{"csv", "json", "xlsx", "sheets", "postgres", "mongo", "bigquery", "stdout"}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Institution is the statement format id, e.g. "itau".
	// Environment variable: TXEXTRACT_INSTITUTION
	Institution string `koanf:"TXEXTRACT_INSTITUTION"`

	// Writer is the name of the writer plugin to use.
	// Environment variable: TXEXTRACT_WRITER
	Writer string `koanf:"TXEXTRACT_WRITER"`

	// WriterConfig is the JSON configuration for the writer plugin.
	// Environment variable: TXEXTRACT_WRITER_CONFIG
	WriterConfig string `koanf:"TXEXTRACT_WRITER_CONFIG"`

	// CategoriesFile overrides the embedded category taxonomy.
	// Environment variable: TXEXTRACT_CATEGORIES_FILE
	CategoriesFile string `koanf:"TXEXTRACT_CATEGORIES_FILE"`

	// PushgatewayURL is where batch metrics are pushed. Empty disables pushing.
	// Environment variable: PUSHGATEWAY_URL
	PushgatewayURL string `koanf:"PUSHGATEWAY_URL"`

	OCR      OCRConfig      `koanf:",squash"`
	Watch    WatchConfig    `koanf:",squash"`
	Postgres PostgresConfig `koanf:",squash"`
	Mongo    MongoConfig    `koanf:",squash"`
	BigQuery BigQueryConfig `koanf:",squash"`
}

// OCRConfig holds the text extraction settings.
type OCRConfig struct {
	Engine       string `koanf:"TXEXTRACT_OCR_ENGINE"`
	TesseractBin string `koanf:"TESSERACT_BIN"`
	PdftoppmBin  string `koanf:"PDFTOPPM_BIN"`
	DPI          int    `koanf:"OCR_DPI"`
	Workers      int    `koanf:"OCR_WORKERS"`
}

// WatchConfig holds the watch command settings.
type WatchConfig struct {
	Dir      string `koanf:"WATCH_DIR"`
	Schedule string `koanf:"WATCH_SCHEDULE"`
	// ArchiveBucket, when set, receives a copy of every processed statement.
	ArchiveBucket string `koanf:"WATCH_ARCHIVE_BUCKET"`
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string `koanf:"POSTGRES_HOST"`
	Port     int    `koanf:"POSTGRES_PORT"`
	Database string `koanf:"POSTGRES_DB"`
	User     string `koanf:"POSTGRES_USER"`
	Password string `koanf:"POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"POSTGRES_SSLMODE"`
}

// MongoConfig holds the default MongoDB writer settings.
type MongoConfig struct {
	URI      string `koanf:"MONGODB_URI"`
	Database string `koanf:"MONGODB_DATABASE"`
}

// BigQueryConfig holds the default BigQuery writer settings.
type BigQueryConfig struct {
	ProjectID string `koanf:"GOOGLE_CLOUD_PROJECT"`
	Dataset   string `koanf:"BIGQUERY_DATASET"`
}

// Load reads configuration. A .env file in the working directory is applied
// to the environment first, then path (a JSON file with the same flat keys)
// is loaded when non-empty, and finally environment variables override both.
func Load(path string) (Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("TXEXTRACT_CONFIG_FILE")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Institution = parser.CanonicalID(c.Institution)
	c.Writer = strings.ToLower(strings.TrimSpace(c.Writer))
	if c.Writer == "" {
		c.Writer = "stdout"
	}

	def := ocr.DefaultConfig()
	if c.OCR.Engine == "" {
		c.OCR.Engine = def.Engine
	}
	if c.OCR.TesseractBin == "" {
		c.OCR.TesseractBin = def.TesseractBin
	}
	if c.OCR.PdftoppmBin == "" {
		c.OCR.PdftoppmBin = def.PdftoppmBin
	}
	if c.OCR.DPI == 0 {
		c.OCR.DPI = def.DPI
	}
	if c.OCR.Workers == 0 {
		c.OCR.Workers = def.Workers
	}

	if c.Watch.Schedule == "" {
		c.Watch.Schedule = DefaultWatchSchedule
	}

	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	var errs []error

	if c.Institution == "" {
		errs = append(errs, errors.New("TXEXTRACT_INSTITUTION (or -institution) is required"))
	}

	known := false
	for _, w := range Writers {
		if c.Writer == w {
			known = true
			break
		}
	}
	if !known {
		errs = append(errs, fmt.Errorf("TXEXTRACT_WRITER %q must be one of %s", c.Writer, strings.Join(Writers, ", ")))
	}

	if c.OCR.Engine != ocr.EngineTesseract && c.OCR.Engine != ocr.EngineText {
		errs = append(errs, fmt.Errorf("TXEXTRACT_OCR_ENGINE %q must be %q or %q", c.OCR.Engine, ocr.EngineTesseract, ocr.EngineText))
	}
	if c.OCR.DPI < 0 {
		errs = append(errs, fmt.Errorf("OCR_DPI must be positive, got %d", c.OCR.DPI))
	}
	if c.OCR.Workers < 0 {
		errs = append(errs, fmt.Errorf("OCR_WORKERS must be positive, got %d", c.OCR.Workers))
	}

	if c.WriterConfig != "" && !json.Valid([]byte(c.WriterConfig)) {
		errs = append(errs, errors.New("TXEXTRACT_WRITER_CONFIG is not valid JSON"))
	}

	return errors.Join(errs...)
}

// OCRFor returns the extractor configuration for an institution's languages.
func (c Config) OCRFor(languages string) ocr.Config {
	return ocr.Config{
		Engine:       c.OCR.Engine,
		TesseractBin: c.OCR.TesseractBin,
		PdftoppmBin:  c.OCR.PdftoppmBin,
		DPI:          c.OCR.DPI,
		Workers:      c.OCR.Workers,
		Languages:    languages,
	}
}

// WriterConfigJSON returns TXEXTRACT_WRITER_CONFIG, or a default configuration
// for the selected writer when it is unset.
func (c Config) WriterConfigJSON() (json.RawMessage, error) {
	if c.WriterConfig != "" {
		return json.RawMessage(c.WriterConfig), nil
	}

	var cfg map[string]any
	switch c.Writer {
	case "csv":
		cfg = map[string]any{"filePath": "transactions.csv"}
	case "json":
		cfg = map[string]any{"filePath": "transactions.json"}
	case "xlsx":
		cfg = map[string]any{"filePath": "transactions.xlsx"}
	case "postgres":
		cfg = map[string]any{
			"host":     c.Postgres.Host,
			"port":     c.Postgres.Port,
			"database": c.Postgres.Database,
			"user":     c.Postgres.User,
			"password": c.Postgres.Password,
			"sslmode":  c.Postgres.SSLMode,
		}
	case "mongo":
		if c.Mongo.URI == "" {
			return nil, errors.New("MONGODB_URI or TXEXTRACT_WRITER_CONFIG is required for the mongo writer")
		}
		cfg = map[string]any{"uri": c.Mongo.URI, "database": c.Mongo.Database}
	case "bigquery":
		if c.BigQuery.ProjectID == "" {
			return nil, errors.New("GOOGLE_CLOUD_PROJECT or TXEXTRACT_WRITER_CONFIG is required for the bigquery writer")
		}
		cfg = map[string]any{"projectId": c.BigQuery.ProjectID, "dataset": c.BigQuery.Dataset}
	case "sheets":
		return nil, errors.New("TXEXTRACT_WRITER_CONFIG is required for the sheets writer")
	default:
		cfg = map[string]any{}
	}

	return json.Marshal(cfg)
}
