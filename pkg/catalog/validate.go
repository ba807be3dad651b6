package catalog

import (
	"github.com/ArionMiles/txextract/pkg/api"
)

// Validate checks every classified transaction against the catalog.
// Transactions carrying the Unclassified sentinel are always valid. All
// violations are collected; each distinct (category, subcategory) pair is
// reported once, with the first description that carried it.
func Validate(txns []api.Transaction, c *Catalog) error {
	type pair struct{ category, subcategory string }
	seen := make(map[pair]struct{})

	var violations []api.CategoryViolation
	for _, t := range txns {
		if t.Category == api.Unclassified {
			continue
		}

		var v api.CategoryViolation
		switch {
		case !c.Has(t.Category):
			v = api.CategoryViolation{
				Description: t.Description,
				Category:    t.Category,
				Suggestion:  c.Suggest(t.Category),
			}
		case t.Subcategory != "" && !c.HasSubcategory(t.Category, t.Subcategory):
			v = api.CategoryViolation{
				Description: t.Description,
				Category:    t.Category,
				Subcategory: t.Subcategory,
				Suggestion:  c.SuggestSubcategory(t.Category, t.Subcategory),
			}
		default:
			continue
		}

		key := pair{v.Category, v.Subcategory}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		violations = append(violations, v)
	}

	if len(violations) > 0 {
		return api.InvalidCategory(violations)
	}
	return nil
}
