// Package classify assigns categories to transactions using ordered rule tables.
package classify

import (
	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/txextract/pkg/api"
)

// Classifier applies conditional rules, then plain rules, in declaration order.
// The first matching rule wins; when nothing matches the result is Unclassified.
//
// A Classifier is immutable after New and safe for concurrent use.
type Classifier struct {
	conditional []api.ConditionalRule
	plain       []api.PlainRule

	// matcher finds every pattern occurring in a description in one pass.
	// patternIdx maps each rule pattern to its index in the matcher dictionary.
	matcher    *ahocorasick.Matcher
	patternIdx map[string]int
}

// New builds a classifier. The rule slices are copied.
func New(conditional []api.ConditionalRule, plain []api.PlainRule) *Classifier {
	c := &Classifier{
		conditional: append([]api.ConditionalRule(nil), conditional...),
		plain:       append([]api.PlainRule(nil), plain...),
		patternIdx:  make(map[string]int),
	}

	// Duplicate patterns (e.g. several amount ranges for one payee) share an entry.
	var dictionary []string
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := c.patternIdx[p]; ok {
			return
		}
		c.patternIdx[p] = len(dictionary)
		dictionary = append(dictionary, p)
	}
	for _, r := range c.conditional {
		add(r.Pattern)
	}
	for _, r := range c.plain {
		add(r.Pattern)
	}

	if len(dictionary) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(dictionary)
	}
	return c
}

// Classify returns the classification for a transaction.
func (c *Classifier) Classify(description string, amount decimal.Decimal) api.Classification {
	present := c.present(description)
	if present == nil {
		return unclassified()
	}

	abs := amount.Abs()
	for _, r := range c.conditional {
		if !present[r.Pattern] {
			continue
		}
		if abs.GreaterThanOrEqual(r.Min) && abs.LessThanOrEqual(r.Max) {
			return r.Classification
		}
	}

	for _, r := range c.plain {
		if present[r.Pattern] {
			return r.Classification
		}
	}

	return unclassified()
}

// present returns the set of rule patterns that occur in description.
func (c *Classifier) present(description string) map[string]bool {
	if c.matcher == nil || description == "" {
		return nil
	}

	hits := c.matcher.MatchThreadSafe([]byte(description))
	if len(hits) == 0 {
		return nil
	}

	found := make(map[int]bool, len(hits))
	for _, h := range hits {
		found[h] = true
	}

	out := make(map[string]bool, len(hits))
	for pattern, idx := range c.patternIdx {
		if found[idx] {
			out[pattern] = true
		}
	}
	return out
}

func unclassified() api.Classification {
	return api.Classification{Category: api.Unclassified}
}
