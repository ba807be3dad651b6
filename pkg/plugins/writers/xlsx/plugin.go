// Package xlsx provides a plugin wrapper for the Excel writer.
package xlsx

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ArionMiles/txextract/pkg/api"
	xlsxwriter "github.com/ArionMiles/txextract/pkg/writer/xlsx"
)

// DefaultFilePath matches the export name used by earlier tooling.
const DefaultFilePath = "transactions.xlsx"

// Plugin implements the WriterPlugin interface for Excel workbooks.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "xlsx"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Export statement rows to an Excel workbook"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filePath": map[string]any{
				"type":        "string",
				"description": "Path to the workbook (default: transactions.xlsx)",
				"default":     DefaultFilePath,
			},
			"sheet": map[string]any{
				"type":        "string",
				"description": "Worksheet name (default: Transactions)",
				"default":     xlsxwriter.DefaultSheet,
			},
		},
	}
}

// Config represents the Excel writer configuration.
type Config struct {
	FilePath string `json:"filePath,omitempty"`
	Sheet    string `json:"sheet,omitempty"`
}

// NewWriter creates a new Excel writer instance.
func (p *Plugin) NewWriter(_ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Writer, error) {
	var cfg Config
	if len(configData) > 0 {
		if err := json.Unmarshal(configData, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling xlsx config: %w", err)
		}
	}
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultFilePath
	}

	return xlsxwriter.New(xlsxwriter.Config{
		FilePath: cfg.FilePath,
		Sheet:    cfg.Sheet,
	}, logger)
}
