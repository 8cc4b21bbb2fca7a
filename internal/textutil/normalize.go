package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nonAlnumPattern matches runs of characters outside the normalized alphabet.
var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)

var whitespacePattern = regexp.MustCompile(`\s+`)

func foldAccents(s string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, s)
	if err != nil {
		return s
	}
	return folded
}

// Normalize lowercases text, folds accents, and collapses every non [a-z0-9]
// run into a single space. It is total and idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	lowered := strings.ToLower(foldAccents(text))
	return strings.TrimSpace(nonAlnumPattern.ReplaceAllString(lowered, " "))
}

// Tokenize returns the unique tokens of the normalized text in order of first
// appearance. No stemming or stopword removal is applied.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	fields := strings.Split(normalized, " ")
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, token := range fields {
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

// Trigrams returns the set of 3-character windows over text padded with two
// spaces on each side. Empty text yields an empty set.
func Trigrams(text string) Set {
	if text == "" {
		return Set{}
	}
	padded := []rune("  " + text + "  ")
	if len(padded) < 3 {
		return Set{}
	}
	grams := make(Set, len(padded)-2)
	for i := 0; i+3 <= len(padded); i++ {
		grams[string(padded[i:i+3])] = struct{}{}
	}
	return grams
}

// CollapseWhitespace trims text and replaces whitespace runs with one space.
func CollapseWhitespace(text string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(text), " ")
}

// SlugWords turns a URL slug into space separated words.
func SlugWords(slug string) string {
	return Normalize(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
}
