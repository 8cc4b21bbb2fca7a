package matching

import (
	"sort"
	"strings"

	"seopilot/internal/textutil"
)

// SearchContext is the query side of a fuzzy resolution attempt.
type SearchContext struct {
	Raw        string
	Normalized string
	Tokens     textutil.Set
	// order keeps tokens in first-appearance order for deterministic queries.
	order []string
}

// NewSearchContext builds a context from title-like text, taxonomy term
// names, and the record slug. Parts whose normalized form is already present
// are skipped so a slug that repeats the title does not double its weight.
func NewSearchContext(title string, terms []string, slug string) SearchContext {
	parts := make([]string, 0, len(terms)+2)
	seen := ""
	add := func(raw, normalized string) {
		raw = textutil.CollapseWhitespace(raw)
		if normalized == "" || strings.Contains(" "+seen+" ", " "+normalized+" ") {
			return
		}
		parts = append(parts, raw)
		if seen == "" {
			seen = normalized
		} else {
			seen += " " + normalized
		}
	}
	add(title, textutil.Normalize(title))
	for _, term := range terms {
		add(term, textutil.Normalize(term))
	}
	slugWords := textutil.SlugWords(slug)
	add(slugWords, slugWords)

	return FromText(strings.Join(parts, " "))
}

// FromText builds a context directly from free text.
func FromText(raw string) SearchContext {
	tokens := textutil.Tokenize(raw)
	return SearchContext{
		Raw:        raw,
		Normalized: textutil.Normalize(raw),
		Tokens:     textutil.NewSet(tokens...),
		order:      tokens,
	}
}

// Empty reports whether the context has nothing to search for.
func (c SearchContext) Empty() bool {
	return len(c.Tokens) == 0
}

// OrderedTokens returns the tokens in first-appearance order.
func (c SearchContext) OrderedTokens() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// KeyTokens returns up to limit tokens of at least minLen characters,
// longest first. Equal lengths keep their order of appearance.
func (c SearchContext) KeyTokens(limit, minLen int) []string {
	out := make([]string, 0, len(c.order))
	for _, token := range c.order {
		if len(token) >= minLen {
			out = append(out, token)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
