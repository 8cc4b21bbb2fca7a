package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const diagnosticsTimeLayout = "2006-01-02 15:04:05"

// DiagnosticField is one rendered key=value pair of a diagnostic event.
type DiagnosticField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DiagnosticEvent is one timestamped line in the diagnostics log.
type DiagnosticEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp time.Time         `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Fields    []DiagnosticField `json:"fields,omitempty"`
}

// Line renders the event as "[YYYY-MM-DD HH:MM:SS UTC] LEVEL component: msg key=value".
func (e DiagnosticEvent) Line() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(e.Timestamp.UTC().Format(diagnosticsTimeLayout))
	b.WriteString(" UTC] ")
	if e.Level != "" {
		b.WriteString(e.Level)
		b.WriteByte(' ')
	}
	if e.Component != "" {
		b.WriteString(e.Component)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	for _, field := range e.Fields {
		b.WriteByte(' ')
		b.WriteString(field.Key)
		b.WriteByte('=')
		b.WriteString(field.Value)
	}
	return b.String()
}

// DiagnosticSink receives every published event (for persistence).
type DiagnosticSink interface {
	Append(DiagnosticEvent)
}

// DiagnosticsHub keeps the most recent events in a bounded ring and forwards
// each event to its sinks. When full, the oldest event is dropped.
type DiagnosticsHub struct {
	mu       sync.Mutex
	capacity int
	buffer   []DiagnosticEvent
	nextSeq  uint64
	sinks    []DiagnosticSink
}

// NewDiagnosticsHub constructs a hub holding at most capacity events.
func NewDiagnosticsHub(capacity int) *DiagnosticsHub {
	if capacity <= 0 {
		capacity = 512
	}
	return &DiagnosticsHub{capacity: capacity}
}

// AddSink wires an additional sink that receives every published event.
func (h *DiagnosticsHub) AddSink(sink DiagnosticSink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Publish appends a new event to the hub.
func (h *DiagnosticsHub) Publish(evt DiagnosticEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	sinks := append([]DiagnosticSink(nil), h.sinks...)
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(evt)
	}
}

// Tail returns the most recent limit events, oldest first.
func (h *DiagnosticsHub) Tail(limit int) []DiagnosticEvent {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.buffer) {
		limit = len(h.buffer)
	}
	out := make([]DiagnosticEvent, limit)
	copy(out, h.buffer[len(h.buffer)-limit:])
	return out
}

// Len reports how many events are buffered.
func (h *DiagnosticsHub) Len() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.buffer)
}

type diagnosticsHandler struct {
	next  slog.Handler
	hub   *DiagnosticsHub
	attrs []slog.Attr
}

func newDiagnosticsHandler(next slog.Handler, hub *DiagnosticsHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &diagnosticsHandler{next: next, hub: hub}
}

func (h *diagnosticsHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *diagnosticsHandler) Handle(ctx context.Context, record slog.Record) error {
	h.hub.Publish(eventFromRecord(record, h.attrs))
	return h.next.Handle(ctx, record.Clone())
}

func (h *diagnosticsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &diagnosticsHandler{next: h.next.WithAttrs(attrs), hub: h.hub, attrs: merged}
}

func (h *diagnosticsHandler) WithGroup(name string) slog.Handler {
	return &diagnosticsHandler{next: h.next.WithGroup(name), hub: h.hub, attrs: h.attrs}
}

func eventFromRecord(record slog.Record, preAttrs []slog.Attr) DiagnosticEvent {
	event := DiagnosticEvent{
		Timestamp: record.Time,
		Level:     levelLabel(record.Level),
		Message:   strings.TrimSpace(record.Message),
	}

	kvs := make([]kv, 0, len(preAttrs)+record.NumAttrs())
	flattenAttrs(&kvs, nil, preAttrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, nil, attr)
		return true
	})

	for _, item := range kvs {
		if item.key == "" {
			continue
		}
		if item.key == FieldComponent {
			event.Component = attrString(item.value)
			continue
		}
		event.Fields = append(event.Fields, DiagnosticField{Key: item.key, Value: formatValue(item.value)})
	}
	return event
}
