// Package safety rewrites and screens text before it is written back to content.
//
// Filtering runs in two stages. Soft replacements substitute whole words
// case-insensitively in configured order; the hard-block pattern then rejects
// the whole text. A rejected text comes back empty and callers must not write
// it. The hard-block pattern is always a bare RE2 pattern body matched
// case-insensitively; a pattern that does not compile disables the hard stage
// and is reported once per Filter through the logger.
package safety

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"seopilot/internal/config"
	"seopilot/internal/logging"
	"seopilot/internal/textutil"
)

// MalformedPatternError reports a hard-block pattern that does not compile.
type MalformedPatternError struct {
	Pattern string
	Err     error
}

func (e *MalformedPatternError) Error() string {
	return fmt.Sprintf("hard block pattern %q is invalid: %v", e.Pattern, e.Err)
}

func (e *MalformedPatternError) Unwrap() error { return e.Err }

// ErrorKind reports the failure classification used in logs.
func (e *MalformedPatternError) ErrorKind() string { return "malformed_pattern" }

type softRule struct {
	from    string
	to      string
	pattern *regexp.Regexp
}

// Filter applies the soft and hard stages. It is safe for concurrent use.
type Filter struct {
	rules      []softRule
	hard       *regexp.Regexp
	patternErr error
	logger     *slog.Logger
	warnOnce   sync.Once
}

// New compiles a filter from an ordered replacement table and a hard-block pattern.
func New(replacements []config.SoftReplacement, hardBlockPattern string, logger *slog.Logger) *Filter {
	f := &Filter{logger: logging.NewComponentLogger(logger, "safety")}
	for _, r := range replacements {
		if r.From == "" {
			continue
		}
		f.rules = append(f.rules, softRule{
			from:    r.From,
			to:      r.To,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(r.From) + `\b`),
		})
	}
	if hardBlockPattern != "" {
		f.hard, f.patternErr = CompilePattern(hardBlockPattern)
	}
	return f
}

// NewFromConfig builds a filter from the [safety] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Filter {
	return New(cfg.Safety.SoftReplace, cfg.Safety.HardBlockPattern, logger)
}

// CompilePattern compiles a bare pattern body with case-insensitive matching.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, &MalformedPatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}

// PatternError returns the compile error of the hard-block pattern, if any.
func (f *Filter) PatternError() error {
	if f == nil {
		return nil
	}
	return f.patternErr
}

// Apply returns the filtered text and whether the hard stage blocked it.
// Blocked text is returned as "".
func (f *Filter) Apply(text string) (string, bool) {
	if f == nil {
		return textutil.CollapseWhitespace(text), false
	}
	for _, rule := range f.rules {
		text = rule.pattern.ReplaceAllLiteralString(text, rule.to)
	}
	text = textutil.CollapseWhitespace(text)

	if f.patternErr != nil {
		f.warnOnce.Do(func() {
			logging.WarnWithContext(f.logger, "hard block pattern invalid; not enforcing until fixed", "safety_pattern_invalid",
				logging.Error(f.patternErr),
				logging.String(logging.FieldImpact, "hard block stage disabled; text passes through after soft replacement"),
				logging.String(logging.FieldErrorHint, "fix safety.hard_block_pattern (bare RE2 pattern, no delimiters)"),
			)
		})
		return text, false
	}
	if f.hard != nil && f.hard.MatchString(text) {
		return "", true
	}
	return text, false
}

// Clean applies the filter and reports only the resulting text.
func (f *Filter) Clean(text string) string {
	out, _ := f.Apply(text)
	return out
}
