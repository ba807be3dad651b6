// Package bigquery provides a plugin wrapper for the BigQuery writer.
package bigquery

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ArionMiles/txextract/pkg/api"
	bqwriter "github.com/ArionMiles/txextract/pkg/writer/bigquery"
)

// Plugin implements the WriterPlugin interface for BigQuery.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "bigquery"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Stream statement rows into a BigQuery table (Application Default Credentials)"
}

// RequiredScopes returns the OAuth scopes needed by this plugin. BigQuery
// authenticates with Application Default Credentials instead.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"projectId": map[string]any{
				"type":        "string",
				"description": "Google Cloud project",
			},
			"dataset": map[string]any{
				"type":        "string",
				"description": "Dataset name",
				"default":     bqwriter.DefaultDataset,
			},
			"table": map[string]any{
				"type":        "string",
				"description": "Table name",
				"default":     bqwriter.DefaultTable,
			},
			"createTable": map[string]any{
				"type":        "boolean",
				"description": "Create the table when it does not exist",
				"default":     false,
			},
			"batchSize": map[string]any{
				"type":        "integer",
				"description": "Number of rows to buffer before writing (default: 50)",
				"default":     50,
			},
			"flushInterval": map[string]any{
				"type":        "integer",
				"description": "Interval in seconds between automatic flushes (default: 30)",
				"default":     30,
			},
		},
		"required": []string{"projectId"},
	}
}

// Config represents the BigQuery writer configuration.
type Config struct {
	ProjectID     string `json:"projectId"`
	Dataset       string `json:"dataset,omitempty"`
	Table         string `json:"table,omitempty"`
	CreateTable   bool   `json:"createTable,omitempty"`
	BatchSize     int    `json:"batchSize,omitempty"`
	FlushInterval int    `json:"flushInterval,omitempty"` // in seconds
}

// NewWriter creates a new BigQuery writer instance.
func (p *Plugin) NewWriter(_ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling bigquery config: %w", err)
	}

	if cfg.ProjectID == "" {
		return nil, errors.New("projectId is required")
	}

	return bqwriter.New(bqwriter.Config{
		ProjectID:     cfg.ProjectID,
		Dataset:       cfg.Dataset,
		Table:         cfg.Table,
		CreateTable:   cfg.CreateTable,
		BatchSize:     cfg.BatchSize,
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Second,
	}, logger)
}
