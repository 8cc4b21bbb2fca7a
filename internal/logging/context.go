package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRecordID is the content record identifier.
	FieldRecordID = "record_id"
	// FieldCategory is the reference category of a batch pass or lookup.
	FieldCategory = "category"
	// FieldReferenceID is a canonical reference row identifier.
	FieldReferenceID = "reference_id"
	// FieldMappingKey is the meta key that scopes the assignment ledger.
	FieldMappingKey = "mapping_key"
	// FieldTickID correlates every line logged by one scheduler tick.
	FieldTickID = "tick_id"
	// FieldScore is a match confidence in [0,1].
	FieldScore = "score"
	// FieldTrace is the ordered resolver step list.
	FieldTrace = "trace"
	// FieldDecisionType names the decision being logged.
	FieldDecisionType = "decision_type"
	// FieldDecisionResult is the outcome of the decision.
	FieldDecisionResult = "decision_result"
	// FieldDecisionReason explains the outcome.
	FieldDecisionReason = "decision_reason"
)

type contextKey int

const (
	tickIDKey contextKey = iota
	categoryKey
	recordIDKey
)

// WithTickID stores the tick correlation id on ctx.
func WithTickID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tickIDKey, id)
}

// WithCategory stores the active reference category on ctx.
func WithCategory(ctx context.Context, category string) context.Context {
	return context.WithValue(ctx, categoryKey, category)
}

// WithRecordID stores the content record being processed on ctx.
func WithRecordID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, recordIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := ctx.Value(tickIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldTickID, id))
	}
	if category, ok := ctx.Value(categoryKey).(string); ok && category != "" {
		fields = append(fields, slog.String(FieldCategory, category))
	}
	if id, ok := ctx.Value(recordIDKey).(int64); ok && id > 0 {
		fields = append(fields, slog.Int64(FieldRecordID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
