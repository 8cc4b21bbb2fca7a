package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"seopilot/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const fullTextSchema = `CREATE VIRTUAL TABLE IF NOT EXISTS reference_fts USING fts5(
    category UNINDEXED,
    ref_id UNINDEXED,
    body
)`

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the database and re-import reference data)",
			ErrSchemaMismatch, version, schemaVersion)
	}

	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// ensureFullTextIndex creates the FTS5 table when the driver supports it.
// A failure leaves the store on the linear scan path.
func (s *Store) ensureFullTextIndex(ctx context.Context) bool {
	if _, err := s.db.ExecContext(ctx, fullTextSchema); err != nil {
		logging.WarnWithContext(s.logger, "full-text index unavailable; candidate search will scan", "fts_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "use a sqlite build with FTS5"),
			logging.String(logging.FieldImpact, "fuzzy resolution uses the slower LIKE scan"),
		)
		return false
	}
	return true
}
