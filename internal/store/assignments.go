package store

import (
	"context"
	"fmt"
)

// LoadAssignments returns the reference ids consumed under mappingKey, ascending.
func (s *Store) LoadAssignments(ctx context.Context, mappingKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT ref_id FROM assignments WHERE mapping_key = ? ORDER BY ref_id ASC", mappingKey,
	)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return ids, nil
}

// RecordAssignment persists a consumed reference id. Re-recording the same
// (mappingKey, refID) pair is a no-op; the first claimant is kept.
func (s *Store) RecordAssignment(ctx context.Context, mappingKey, refID string, recordID int64) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO assignments (mapping_key, ref_id, record_id, assigned_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (mapping_key, ref_id) DO NOTHING`,
		mappingKey, refID, recordID, nowString(),
	)
	if err != nil {
		return fmt.Errorf("record assignment %s/%s: %w", mappingKey, refID, err)
	}
	return nil
}

// CountAssignments returns the number of consumed ids per mapping key.
func (s *Store) CountAssignments(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT mapping_key, COUNT(1) FROM assignments GROUP BY mapping_key",
	)
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan assignment count: %w", err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment counts: %w", err)
	}
	return counts, nil
}
