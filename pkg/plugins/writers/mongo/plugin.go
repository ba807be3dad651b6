// Package mongo provides a plugin wrapper for the MongoDB writer.
package mongo

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ArionMiles/txextract/pkg/api"
	mongowriter "github.com/ArionMiles/txextract/pkg/writer/mongo"
)

// Plugin implements the WriterPlugin interface for MongoDB.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "mongo"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Upsert statement rows into a MongoDB collection"
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
			"uri": map[string]any{
				"type":        "string",
				"description": "MongoDB connection URI",
			},
			"database": map[string]any{
				"type":        "string",
				"description": "Database name",
				"default":     mongowriter.DefaultDatabase,
			},
			"collection": map[string]any{
				"type":        "string",
				"description": "Collection the rows are upserted into",
				"default":     mongowriter.DefaultCollection,
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
		"required": []string{"uri"},
	}
}

// Config represents the MongoDB writer configuration.
type Config struct {
	URI           string `json:"uri"`
	Database      string `json:"database,omitempty"`
	Collection    string `json:"collection,omitempty"`
	BatchSize     int    `json:"batchSize,omitempty"`
	FlushInterval int    `json:"flushInterval,omitempty"` // in seconds
}

// NewWriter creates a new MongoDB writer instance.
func (p *Plugin) NewWriter(_ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling mongo config: %w", err)
	}

	if cfg.URI == "" {
		return nil, errors.New("uri is required")
	}

	return mongowriter.New(mongowriter.Config{
		URI:           cfg.URI,
		Database:      cfg.Database,
		Collection:    cfg.Collection,
		BatchSize:     cfg.BatchSize,
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Second,
	}, logger)
}
