// Package catalog loads the category taxonomy and validates classified
// transactions against it.
package catalog

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"
)

//go:embed categories.yaml
var defaultCategories []byte

// rootKey is the top-level key holding the category map.
const rootKey = "categories"

// maxSuggestDistance bounds the Levenshtein fallback used by Suggest.
const maxSuggestDistance = 3

// Catalog maps category names to their valid subcategories.
// It is read-only after construction and safe for concurrent use.
type Catalog struct {
	subcategories map[string]map[string]struct{}
}

// Default returns the embedded taxonomy.
func Default() (*Catalog, error) {
	return load(rawbytes.Provider(defaultCategories), yaml.Parser())
}

// Load reads a taxonomy file. Files ending in .json are parsed as JSON,
// everything else as YAML.
func Load(path string) (*Catalog, error) {
	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = kjson.Parser()
	}

	c, err := load(file.Provider(path), parser)
	if err != nil {
		return nil, fmt.Errorf("loading categories from %s: %w", path, err)
	}
	return c, nil
}

func load(provider koanf.Provider, parser koanf.Parser) (*Catalog, error) {
	// Category names may contain dots, so use a delimiter that never appears in them.
	k := koanf.New("::")
	if err := k.Load(provider, parser); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}

	if !k.Exists(rootKey) {
		return nil, fmt.Errorf("taxonomy has no %q key", rootKey)
	}

	var raw map[string][]string
	if err := k.Unmarshal(rootKey, &raw); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", rootKey, err)
	}

	return FromMap(raw), nil
}

// FromMap builds a catalog from category → subcategories.
func FromMap(m map[string][]string) *Catalog {
	c := &Catalog{subcategories: make(map[string]map[string]struct{}, len(m))}
	for category, subs := range m {
		set := make(map[string]struct{}, len(subs))
		for _, s := range subs {
			set[norm.NFC.String(s)] = struct{}{}
		}
		c.subcategories[norm.NFC.String(category)] = set
	}
	return c
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.subcategories)
}

// Has reports whether category is a catalog key.
func (c *Catalog) Has(category string) bool {
	_, ok := c.subcategories[norm.NFC.String(category)]
	return ok
}

// HasSubcategory reports whether sub is valid for category.
func (c *Catalog) HasSubcategory(category, sub string) bool {
	subs, ok := c.subcategories[norm.NFC.String(category)]
	if !ok {
		return false
	}
	_, ok = subs[norm.NFC.String(sub)]
	return ok
}

// Categories returns the category names in sorted order.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.subcategories))
	for name := range c.subcategories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Subcategories returns the valid subcategories of category in sorted order.
func (c *Catalog) Subcategories(category string) []string {
	subs := c.subcategories[norm.NFC.String(category)]
	out := make([]string, 0, len(subs))
	for name := range subs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Suggest returns the catalog category closest to name, or "" when nothing is close.
func (c *Catalog) Suggest(name string) string {
	return closest(name, c.Categories())
}

// SuggestSubcategory returns the subcategory of category closest to name.
func (c *Catalog) SuggestSubcategory(category, name string) string {
	return closest(name, c.Subcategories(category))
}

func closest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range candidates {
		d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(candidate))
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
