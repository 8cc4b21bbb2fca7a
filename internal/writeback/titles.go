package writeback

import (
	"strings"

	"seopilot/internal/reference"
)

const (
	// MaxDescriptionLength bounds the generated meta description in runes.
	MaxDescriptionLength = 160
	maxFocusKeywords     = 5
	relatedKeywords      = 3
)

// Filter screens text before it is written. Blocked text comes back empty
// with blocked set.
type Filter interface {
	Apply(text string) (string, bool)
}

// TitleFields are the metadata values derived from a titles row set.
type TitleFields struct {
	SEOTitle string
	// Description is empty when the filter blocked it.
	Description string
	// FocusKeywords is a ", " joined list of up to five keywords.
	FocusKeywords string
}

// BuildTitleFields derives metadata from the row set. It returns a skip
// reason when the primary row is missing or its title or focus keyword is
// blocked.
func BuildTitleFields(set *reference.TitleSet, filter Filter) (TitleFields, string) {
	if set == nil {
		return TitleFields{}, "no reference rows"
	}
	primary, ok := set.Primary()
	if !ok {
		return TitleFields{}, "primary keyword slot missing"
	}

	title, titleBlocked := filter.Apply(primary.Field("seo_title"))
	focus, focusBlocked := filter.Apply(primary.Field("focus_keyword"))
	if titleBlocked || focusBlocked || title == "" || focus == "" {
		return TitleFields{}, "blocked by safety filter"
	}

	if !strings.HasPrefix(strings.ToLower(title), strings.ToLower(focus)) {
		var blocked bool
		title, blocked = filter.Apply(focus + ": " + title)
		if blocked || title == "" {
			return TitleFields{}, "focus prefix blocked by safety filter"
		}
	}

	keywords := make([]string, 0, maxFocusKeywords)
	seen := make(map[string]struct{}, maxFocusKeywords)
	for _, raw := range set.FocusKeywords() {
		kw, blocked := filter.Apply(raw)
		if blocked || kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
		if len(keywords) == maxFocusKeywords {
			break
		}
	}

	description, _ := filter.Apply(BuildDescription(title, focus, primary, keywords))

	return TitleFields{
		SEOTitle:      title,
		Description:   description,
		FocusKeywords: strings.Join(keywords, ", "),
	}, ""
}

// BuildDescription composes the meta description from the primary row and
// clips it to MaxDescriptionLength runes. keywords[1:4] are listed as related.
func BuildDescription(title, focus string, primary reference.Row, keywords []string) string {
	parts := []string{title + "."}
	if category := strings.TrimSpace(primary.Field("category")); category != "" {
		parts = append(parts, "Category: "+category+".")
	}
	if tone := strings.TrimSpace(primary.Field("tone")); tone != "" {
		parts = append(parts, "Tone: "+tone+".")
	}
	if focus != "" {
		parts = append(parts, "Explore "+focus+" and related highlights.")
	}
	if len(keywords) > 1 {
		end := 1 + relatedKeywords
		if end > len(keywords) {
			end = len(keywords)
		}
		parts = append(parts, "Related: "+strings.Join(keywords[1:end], ", ")+".")
	}
	return reference.CleanText(strings.Join(parts, " "), MaxDescriptionLength)
}
