package writeback

import (
	"html"
	"regexp"
	"strings"

	"seopilot/internal/store"
)

const (
	BlockStartMarker = "<!-- TMWSEO:CSV:START -->"
	BlockEndMarker   = "<!-- TMWSEO:CSV:END -->"
	// RequiredH2s is the number of H2s a block must carry.
	RequiredH2s = 4
)

var (
	blockPattern = regexp.MustCompile(`(?s)<!--\s*TMWSEO:CSV:START\s*-->.*?<!--\s*TMWSEO:CSV:END\s*-->`)
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
)

func stripTags(value string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(value, ""))
}

func introSentence(title string) string {
	title = stripTags(title)
	if title == "" {
		title = "This page"
	}
	return title + " brings together highlights, themes, and related links to help you explore more content."
}

func h2Paragraph(h2 string) string {
	h2 = stripTags(h2)
	if h2 == "" {
		return "Explore more in this section."
	}
	return "Explore “" + h2 + "” with a quick overview, key moments, and nearby pages you may also like."
}

func termList(terms []store.TermLink) string {
	items := make([]string, 0, len(terms))
	for _, term := range terms {
		name := strings.TrimSpace(term.Name)
		if name == "" {
			continue
		}
		if term.URL != "" {
			items = append(items, `<li><a href="`+html.EscapeString(term.URL)+`">`+html.EscapeString(name)+`</a></li>`)
			continue
		}
		items = append(items, "<li>"+html.EscapeString(name)+"</li>")
	}
	return strings.Join(items, "\n")
}

// BuildH2Block renders the marked section for a record. The result starts
// with BlockStartMarker and ends with BlockEndMarker.
func BuildH2Block(title string, h2s []string, terms []store.TermLink) string {
	var b strings.Builder
	b.WriteString(BlockStartMarker + "\n")
	b.WriteString(`<section class="tmwseo-csv-block">` + "\n")
	b.WriteString("<p>" + html.EscapeString(introSentence(title)) + "</p>\n")
	for _, h2 := range h2s {
		b.WriteString("<h2>" + html.EscapeString(h2) + "</h2>\n")
		b.WriteString("<p>" + html.EscapeString(h2Paragraph(h2)) + "</p>\n")
	}
	if list := termList(terms); list != "" {
		b.WriteString(`<div class="tmwseo-related">` + "\n<strong>Explore more:</strong>\n<ul>" + list + "</ul>\n</div>\n")
	}
	b.WriteString("</section>\n")
	b.WriteString(BlockEndMarker)
	return b.String()
}

// ReplaceOrAppend swaps the first marked block in content for block, or
// appends block on a new line when content has none. Applying the same block
// twice returns the same content.
func ReplaceOrAppend(content, block string) string {
	block = strings.Trim(block, "\n")
	if loc := blockPattern.FindStringIndex(content); loc != nil {
		return content[:loc[0]] + block + content[loc[1]:]
	}
	if content == "" {
		return block
	}
	return content + "\n" + block
}

// HasBlock reports whether content already carries a marked block.
func HasBlock(content string) bool {
	return blockPattern.MatchString(content)
}
