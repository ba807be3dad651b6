package plugins

import (
	"github.com/ArionMiles/txextract/pkg/plugins/institutions"
	bigqueryplugin "github.com/ArionMiles/txextract/pkg/plugins/writers/bigquery"
	csvplugin "github.com/ArionMiles/txextract/pkg/plugins/writers/csv"
	jsonplugin "github.com/ArionMiles/txextract/pkg/plugins/writers/json"
	mongoplugin "github.com/ArionMiles/txextract/pkg/plugins/writers/mongo"
	postgresplugin "github.com/ArionMiles/txextract/pkg/plugins/writers/postgres"
	sheetsplugin "github.com/ArionMiles/txextract/pkg/plugins/writers/sheets"
	stdoutplugin "github.com/ArionMiles/txextract/pkg/plugins/writers/stdout"
	xlsxplugin "github.com/ArionMiles/txextract/pkg/plugins/writers/xlsx"
)

// Default returns a registry holding every built-in institution and writer.
func Default() *Registry {
	r := NewRegistry()

	for _, p := range institutions.All() {
		// Built-in ids are unique.
		_ = r.RegisterInstitution(p)
	}

	for _, p := range []WriterPlugin{
		&bigqueryplugin.Plugin{},
		&csvplugin.Plugin{},
		&jsonplugin.Plugin{},
		&mongoplugin.Plugin{},
		&postgresplugin.Plugin{},
		&sheetsplugin.Plugin{},
		&stdoutplugin.Plugin{},
		&xlsxplugin.Plugin{},
	} {
		_ = r.RegisterWriter(p)
	}

	return r
}
