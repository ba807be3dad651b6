// Package logging provides structured logging configuration using log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Attribute keys shared by every component that logs about a statement.
const (
	KeyStatementID = "statement_id"
	KeyInstitution = "institution"
	KeyPath        = "path"
)

// Config holds logging configuration options.
type Config struct {
	// Level is the minimum log level to output.
	Level slog.Level
	// JSON enables JSON output format (for production).
	JSON bool
	// Output is the writer to write logs to. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns a default logging configuration suitable for interactive use.
// It reads the LOG_LEVEL environment variable to set the logging level.
// Valid values: DEBUG, INFO, WARN, ERROR. Defaults to INFO.
// LOG_FORMAT=json switches to the JSON handler.
func DefaultConfig() Config {
	level := slog.LevelInfo
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		level = parseLogLevel(logLevel)
	}

	return Config{
		Level:  level,
		JSON:   strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		Output: os.Stderr,
	}
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProductionConfig returns a logging configuration for the watch daemon:
// JSON output at LOG_LEVEL (default INFO), unless LOG_FORMAT asks for text.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.JSON = !strings.EqualFold(os.Getenv("LOG_FORMAT"), "text")
	return cfg
}

// Setup initializes the default slog logger with the given configuration.
// Decimal attributes are rendered with two fractional digits.
func Setup(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Statement returns logger annotated with a statement's id and source file.
func Statement(logger *slog.Logger, statementID, path string) *slog.Logger {
	return logger.With(KeyStatementID, statementID, KeyPath, path)
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	switch v := a.Value.Any().(type) {
	case decimal.Decimal:
		return slog.String(a.Key, v.StringFixed(2))
	case *decimal.Decimal:
		if v != nil {
			return slog.String(a.Key, v.StringFixed(2))
		}
	}
	return a
}
