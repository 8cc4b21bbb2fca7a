package reference

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"seopilot/internal/config"
	"seopilot/internal/textutil"
)

// MaxIDLength bounds canonical identifiers.
const MaxIDLength = 32

var (
	invalidIDChars = regexp.MustCompile(`[^a-z0-9_]`)
	numericOnly    = regexp.MustCompile(`^[0-9]+$`)
)

// CleanID lowercases value, strips everything outside [a-z0-9_], and truncates
// to MaxIDLength.
func CleanID(value string) string {
	cleaned := invalidIDChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "")
	if len(cleaned) > MaxIDLength {
		cleaned = cleaned[:MaxIDLength]
	}
	return cleaned
}

// CanonicalID normalizes a stored or slug-derived identifier for kind.
// Purely numeric values get the kind prefix: video_%04d or page_%05d.
func CanonicalID(value, kind string) string {
	id := strings.ToLower(strings.TrimSpace(value))
	if numericOnly.MatchString(id) {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			if kind == config.KindVideo {
				id = fmt.Sprintf("video_%04d", n)
			} else {
				id = fmt.Sprintf("page_%05d", n)
			}
		}
	}
	return CleanID(id)
}

// CleanText collapses whitespace and truncates to max runes.
func CleanText(value string, max int) string {
	value = textutil.CollapseWhitespace(value)
	if max <= 0 || utf8.RuneCountInString(value) <= max {
		return value
	}
	return string([]rune(value)[:max])
}
