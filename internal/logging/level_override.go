package logging

import (
	"context"
	"log/slog"
	"strings"
)

// componentLevelHandler applies a minimum level chosen by the component
// attribute bound through WithAttrs. The wrapped handler must be configured
// with the most verbose level any component needs.
type componentLevelHandler struct {
	next      slog.Handler
	base      slog.Level
	overrides map[string]slog.Level
	level     slog.Level
}

func newComponentLevelHandler(next slog.Handler, base slog.Level, overrides map[string]slog.Level) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	return &componentLevelHandler{next: next, base: base, overrides: overrides, level: base}
}

func (h *componentLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.level {
		return false
	}
	return h.next.Enabled(ctx, level)
}

func (h *componentLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.level {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *componentLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	level := h.level
	for _, attr := range attrs {
		if attr.Key != FieldComponent {
			continue
		}
		component := strings.ToLower(strings.TrimSpace(attr.Value.String()))
		if override, ok := h.overrides[component]; ok {
			level = override
		} else {
			level = h.base
		}
	}
	return &componentLevelHandler{
		next:      h.next.WithAttrs(attrs),
		base:      h.base,
		overrides: h.overrides,
		level:     level,
	}
}

func (h *componentLevelHandler) WithGroup(name string) slog.Handler {
	return &componentLevelHandler{
		next:      h.next.WithGroup(name),
		base:      h.base,
		overrides: h.overrides,
		level:     h.level,
	}
}
