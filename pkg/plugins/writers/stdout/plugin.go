// Package stdout provides a plugin wrapper for the table writer.
package stdout

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ArionMiles/txextract/pkg/api"
	stdoutwriter "github.com/ArionMiles/txextract/pkg/writer/stdout"
)

// Plugin implements the WriterPlugin interface for terminal output.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "stdout"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Print statement rows as a table"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// NewWriter creates a writer printing to standard output.
func (p *Plugin) NewWriter(_ *http.Client, _ json.RawMessage, _ *slog.Logger) (api.Writer, error) {
	return stdoutwriter.New(nil), nil
}
