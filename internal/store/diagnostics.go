package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"seopilot/internal/logging"
)

// Append persists a diagnostic event. It implements logging.DiagnosticSink,
// so failures are swallowed; the in-memory ring still holds the event.
// Once the table grows past cap + cap/4 rows it is trimmed back to cap,
// oldest first.
func (s *Store) Append(evt logging.DiagnosticEvent) {
	if s == nil || s.db == nil {
		return
	}
	ctx := context.Background()
	var fields any
	if len(evt.Fields) > 0 {
		if data, err := json.Marshal(evt.Fields); err == nil {
			fields = string(data)
		}
	}
	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := s.execWithRetry(ctx,
		"INSERT INTO diagnostics (ts, level, component, message, fields_json) VALUES (?, ?, ?, ?, ?)",
		ts.UTC().Format(time.RFC3339Nano), evt.Level, nullableString(evt.Component), evt.Message, fields,
	); err != nil {
		return
	}
	_ = s.trimDiagnostics(ctx)
}

func (s *Store) trimDiagnostics(ctx context.Context) error {
	capacity := s.diagnosticsCap
	if capacity <= 0 {
		return nil
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM diagnostics").Scan(&count); err != nil {
		return fmt.Errorf("count diagnostics: %w", err)
	}
	if count <= capacity+capacity/4 {
		return nil
	}
	_, err := s.execWithRetry(ctx,
		"DELETE FROM diagnostics WHERE id NOT IN (SELECT id FROM diagnostics ORDER BY id DESC LIMIT ?)",
		capacity,
	)
	if err != nil {
		return fmt.Errorf("trim diagnostics: %w", err)
	}
	return nil
}

// Diagnostics returns the newest limit events in chronological order.
// A non-positive limit returns every stored event.
func (s *Store) Diagnostics(ctx context.Context, limit int) ([]logging.DiagnosticEvent, error) {
	query := "SELECT id, ts, level, component, message, fields_json FROM diagnostics ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()

	var events []logging.DiagnosticEvent
	for rows.Next() {
		var (
			id        int64
			ts        string
			level     string
			component sql.NullString
			message   string
			fields    sql.NullString
		)
		if err := rows.Scan(&id, &ts, &level, &component, &message, &fields); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		evt := logging.DiagnosticEvent{
			Sequence:  uint64(id),
			Level:     level,
			Component: component.String,
			Message:   message,
		}
		if parsed, err := parseTimeString(ts); err == nil {
			evt.Timestamp = parsed
		}
		if fields.Valid && fields.String != "" {
			_ = json.Unmarshal([]byte(fields.String), &evt.Fields)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// CountDiagnostics returns the number of stored diagnostic events.
func (s *Store) CountDiagnostics(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM diagnostics").Scan(&count); err != nil {
		return 0, fmt.Errorf("count diagnostics: %w", err)
	}
	return count, nil
}
