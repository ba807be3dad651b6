// Package plugins provides a plugin registry for institutions and writers.
package plugins

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/ArionMiles/txextract/pkg/api"
	"github.com/ArionMiles/txextract/pkg/catalog"
	"github.com/ArionMiles/txextract/pkg/parser"
)

// InstitutionPlugin defines the interface for statement format plugins.
type InstitutionPlugin interface {
	// ID returns the identifier used on the command line (e.g., "itau").
	ID() string
	// Description returns a human-readable description.
	Description() string
	// OCRLanguages returns the tesseract languages for this format (e.g., "eng+por").
	OCRLanguages() string
	// NewInstitution creates the statement format.
	NewInstitution() parser.Institution
}

// WriterPlugin defines the interface for output writer plugins.
type WriterPlugin interface {
	// Name returns the plugin name (e.g., "sheets", "csv", "json").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// RequiredScopes returns the OAuth scopes needed by this plugin.
	RequiredScopes() []string
	// ConfigSchema returns a JSON schema describing the plugin's configuration.
	ConfigSchema() map[string]any
	// NewWriter creates a new writer instance with the given config.
	NewWriter(httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Writer, error)
}

// Registry manages available institution and writer plugins.
type Registry struct {
	institutions map[string]InstitutionPlugin
	writers      map[string]WriterPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		institutions: make(map[string]InstitutionPlugin),
		writers:      make(map[string]WriterPlugin),
	}
}

// RegisterInstitution registers an institution plugin.
func (r *Registry) RegisterInstitution(plugin InstitutionPlugin) error {
	id := parser.CanonicalID(plugin.ID())
	if _, exists := r.institutions[id]; exists {
		return fmt.Errorf("institution plugin %q already registered", id)
	}
	r.institutions[id] = plugin
	return nil
}

// RegisterWriter registers a writer plugin.
func (r *Registry) RegisterWriter(plugin WriterPlugin) error {
	name := plugin.Name()
	if _, exists := r.writers[name]; exists {
		return fmt.Errorf("writer plugin %q already registered", name)
	}
	r.writers[name] = plugin
	return nil
}

// GetInstitution returns an institution plugin by id. The id is matched
// case-insensitively; an unknown id is an UnsupportedInstitution error.
func (r *Registry) GetInstitution(id string) (InstitutionPlugin, error) {
	plugin, exists := r.institutions[parser.CanonicalID(id)]
	if !exists {
		return nil, api.UnsupportedInstitution(id)
	}
	return plugin, nil
}

// GetWriter returns a writer plugin by name.
func (r *Registry) GetWriter(name string) (WriterPlugin, error) {
	plugin, exists := r.writers[name]
	if !exists {
		return nil, fmt.Errorf("writer plugin %q not found", name)
	}
	return plugin, nil
}

// ListInstitutions returns all registered institution plugins sorted by id.
func (r *Registry) ListInstitutions() []InstitutionPlugin {
	plugins := make([]InstitutionPlugin, 0, len(r.institutions))
	for _, plugin := range r.institutions {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].ID() < plugins[j].ID() })
	return plugins
}

// ListWriters returns all registered writer plugins sorted by name.
func (r *Registry) ListWriters() []WriterPlugin {
	plugins := make([]WriterPlugin, 0, len(r.writers))
	for _, plugin := range r.writers {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name() < plugins[j].Name() })
	return plugins
}

// RequiredScopes returns the OAuth scopes required by the named writer.
func (r *Registry) RequiredScopes(writerName string) ([]string, error) {
	writer, err := r.GetWriter(writerName)
	if err != nil {
		return nil, err
	}
	return writer.RequiredScopes(), nil
}

// NewParser builds a parser for the institution id validating against cat.
func (r *Registry) NewParser(id string, cat *catalog.Catalog, logger *slog.Logger) (*parser.Parser, error) {
	plugin, err := r.GetInstitution(id)
	if err != nil {
		return nil, err
	}
	return parser.New(plugin.NewInstitution(), cat, logger), nil
}

// CreateWriter creates a writer instance from a plugin.
func (r *Registry) CreateWriter(name string, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Writer, error) {
	plugin, err := r.GetWriter(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewWriter(httpClient, config, logger)
}
