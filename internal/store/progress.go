package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Progress is the persisted scheduler state.
type Progress struct {
	Running bool
	// Cursors maps a batch pass name to its last processed record id.
	Cursors        map[string]int64
	LastTickID     string
	LastTickAt     time.Time
	LastTickResult string
}

// Cursor returns the stored cursor for pass, zero when never advanced.
func (p *Progress) Cursor(pass string) int64 {
	if p == nil {
		return 0
	}
	return p.Cursors[pass]
}

// LoadProgress reads the running flag, cursors, and last tick summary.
func (s *Store) LoadProgress(ctx context.Context) (*Progress, error) {
	ctx = ensureContext(ctx)
	progress := &Progress{Cursors: make(map[string]int64)}

	var (
		running    int
		tickID     sql.NullString
		tickAt     sql.NullString
		tickResult sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT running, last_tick_id, last_tick_at, last_tick_result FROM scheduler_state WHERE id = 1",
	).Scan(&running, &tickID, &tickAt, &tickResult)
	if err != nil {
		return nil, fmt.Errorf("load scheduler state: %w", err)
	}
	progress.Running = running != 0
	progress.LastTickID = tickID.String
	progress.LastTickResult = tickResult.String
	if at, err := parseTimeString(tickAt.String); err == nil {
		progress.LastTickAt = at
	}

	rows, err := s.db.QueryContext(ctx, "SELECT pass, last_id FROM batch_progress")
	if err != nil {
		return nil, fmt.Errorf("load cursors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			pass   string
			lastID int64
		)
		if err := rows.Scan(&pass, &lastID); err != nil {
			return nil, fmt.Errorf("scan cursor: %w", err)
		}
		progress.Cursors[pass] = lastID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cursors: %w", err)
	}
	return progress, nil
}

// AdvanceCursor stores lastID for pass. The stored cursor never decreases;
// a smaller value leaves it unchanged.
func (s *Store) AdvanceCursor(ctx context.Context, pass string, lastID int64) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO batch_progress (pass, last_id) VALUES (?, ?)
         ON CONFLICT (pass) DO UPDATE SET last_id = MAX(batch_progress.last_id, excluded.last_id)`,
		pass, lastID,
	)
	if err != nil {
		return fmt.Errorf("advance cursor %s: %w", pass, err)
	}
	return nil
}

// SetRunning updates the global running flag.
func (s *Store) SetRunning(ctx context.Context, running bool) error {
	if _, err := s.execWithRetry(ctx,
		"UPDATE scheduler_state SET running = ? WHERE id = 1", boolToInt(running),
	); err != nil {
		return fmt.Errorf("set running: %w", err)
	}
	return nil
}

// RecordTick stores the summary of the most recent tick.
func (s *Store) RecordTick(ctx context.Context, tickID string, at time.Time, result string) error {
	if _, err := s.execWithRetry(ctx,
		"UPDATE scheduler_state SET last_tick_id = ?, last_tick_at = ?, last_tick_result = ? WHERE id = 1",
		nullableString(tickID), at.UTC().Format(time.RFC3339Nano), nullableString(result),
	); err != nil {
		return fmt.Errorf("record tick: %w", err)
	}
	return nil
}

// ResetProgress zeroes every cursor and clears the running flag.
func (s *Store) ResetProgress(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE batch_progress SET last_id = 0"); err != nil {
			return fmt.Errorf("reset cursors: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE scheduler_state SET running = 0 WHERE id = 1"); err != nil {
			return fmt.Errorf("reset running: %w", err)
		}
		return nil
	})
}
