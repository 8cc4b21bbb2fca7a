package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// StatusPublish is the only record status walked by batch passes.
const StatusPublish = "publish"

// Content record fields readable through GetField.
const (
	FieldTitle    = "title"
	FieldSlug     = "slug"
	FieldBody     = "body"
	FieldPostType = "post_type"
	FieldStatus   = "status"
)

var contentFields = map[string]struct{}{
	FieldTitle:    {},
	FieldSlug:     {},
	FieldBody:     {},
	FieldPostType: {},
	FieldStatus:   {},
}

// ErrUnknownField is returned when GetField is asked for an unmapped column.
var ErrUnknownField = errors.New("unknown content field")

// ErrRecordNotFound is returned by writes that target a missing record.
var ErrRecordNotFound = errors.New("content record not found")

// ContentRecord is a row of the local content mirror.
type ContentRecord struct {
	ID       int64
	PostType string
	Status   string
	Title    string
	Slug     string
	Body     string
	Meta     map[string]string
	Terms    []TermLink
}

// TermLink is a taxonomy term attached to a record.
type TermLink struct {
	Name string
	URL  string
}

// InsertRecord adds a record with its meta and terms. A zero ID lets SQLite
// assign one.
func (s *Store) InsertRecord(ctx context.Context, record ContentRecord) (int64, error) {
	status := record.Status
	if status == "" {
		status = StatusPublish
	}
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		insert := s.sql.Insert("content_records").
			Columns("post_type", "status", "title", "slug", "body", "updated_at").
			Values(strings.ToLower(record.PostType), status, record.Title, record.Slug, record.Body, nowString())
		if record.ID > 0 {
			insert = s.sql.Insert("content_records").
				Columns("id", "post_type", "status", "title", "slug", "body", "updated_at").
				Values(record.ID, strings.ToLower(record.PostType), status, record.Title, record.Slug, record.Body, nowString())
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build record insert: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		for key, value := range record.Meta {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO content_meta (record_id, meta_key, meta_value) VALUES (?, ?, ?)",
				id, key, value,
			); err != nil {
				return fmt.Errorf("insert meta %s: %w", key, err)
			}
		}
		for position, term := range record.Terms {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO content_terms (record_id, position, name, url) VALUES (?, ?, ?, ?)",
				id, position, term.Name, term.URL,
			); err != nil {
				return fmt.Errorf("insert term %q: %w", term.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetRecord returns the full record, or nil when absent.
func (s *Store) GetRecord(ctx context.Context, id int64) (*ContentRecord, error) {
	ctx = ensureContext(ctx)
	record := &ContentRecord{ID: id}
	err := s.db.QueryRowContext(ctx,
		"SELECT post_type, status, title, slug, body FROM content_records WHERE id = ?", id,
	).Scan(&record.PostType, &record.Status, &record.Title, &record.Slug, &record.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT meta_key, meta_value FROM content_meta WHERE record_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get record meta: %w", err)
	}
	record.Meta = make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		record.Meta[key] = value
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meta: %w", err)
	}

	terms, err := s.TermLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	record.Terms = terms
	return record, nil
}

// ListIDs returns up to limit published record ids of the given types with
// id > afterID, ascending. A non-positive limit returns every match.
func (s *Store) ListIDs(ctx context.Context, postTypes []string, afterID int64, limit int) ([]int64, error) {
	if len(postTypes) == 0 {
		return nil, nil
	}
	selectQuery := s.sql.Select("id").
		From("content_records").
		Where(sq.Eq{"post_type": postTypes, "status": StatusPublish}).
		Where(sq.Gt{"id": afterID}).
		OrderBy("id ASC")
	if limit > 0 {
		selectQuery = selectQuery.Limit(uint64(limit))
	}
	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build id list: %w", err)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list record ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record ids: %w", err)
	}
	return ids, nil
}

// GetField returns one column of a record. Missing records yield "".
func (s *Store) GetField(ctx context.Context, id int64, field string) (string, error) {
	if _, ok := contentFields[field]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	var value string
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+field+" FROM content_records WHERE id = ?", id,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s of record %d: %w", field, id, err)
	}
	return value, nil
}

// GetMeta returns a meta value, or "" when unset.
func (s *Store) GetMeta(ctx context.Context, id int64, key string) (string, error) {
	value, _, err := s.lookupMeta(ctx, id, key)
	return value, err
}

// HasMeta reports whether the key exists on the record, even with an empty value.
func (s *Store) HasMeta(ctx context.Context, id int64, key string) (bool, error) {
	_, ok, err := s.lookupMeta(ctx, id, key)
	return ok, err
}

func (s *Store) lookupMeta(ctx context.Context, id int64, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT meta_value FROM content_meta WHERE record_id = ? AND meta_key = ?", id, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %s of record %d: %w", key, id, err)
	}
	return value, true, nil
}

// SetMeta writes a meta value, replacing any previous one.
func (s *Store) SetMeta(ctx context.Context, id int64, key, value string) error {
	if err := s.requireRecord(ctx, id); err != nil {
		return err
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO content_meta (record_id, meta_key, meta_value) VALUES (?, ?, ?)
         ON CONFLICT (record_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value`,
		id, key, value,
	)
	if err != nil {
		return fmt.Errorf("set meta %s of record %d: %w", key, id, err)
	}
	return nil
}

// LinkedValues returns every non-empty value stored under key, lowercased.
func (s *Store) LinkedValues(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT DISTINCT lower(trim(meta_value)) FROM content_meta WHERE meta_key = ? AND trim(meta_value) <> '' ORDER BY 1",
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("list linked values: %w", err)
	}
	defer rows.Close()
	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan linked value: %w", err)
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// Terms returns the taxonomy term names of a record in stored order.
func (s *Store) Terms(ctx context.Context, id int64) ([]string, error) {
	links, err := s.TermLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(links))
	for _, link := range links {
		names = append(names, link.Name)
	}
	return names, nil
}

// TermLinks returns the taxonomy terms of a record with their URLs.
func (s *Store) TermLinks(ctx context.Context, id int64) ([]TermLink, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT name, url FROM content_terms WHERE record_id = ? ORDER BY position ASC", id,
	)
	if err != nil {
		return nil, fmt.Errorf("get terms of record %d: %w", id, err)
	}
	defer rows.Close()
	var links []TermLink
	for rows.Next() {
		var link TermLink
		if err := rows.Scan(&link.Name, &link.URL); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms: %w", err)
	}
	return links, nil
}

// UpdateBody replaces the record body.
func (s *Store) UpdateBody(ctx context.Context, id int64, body string) error {
	return s.updateRecordColumn(ctx, id, FieldBody, body)
}

// UpdateTitle replaces the record title.
func (s *Store) UpdateTitle(ctx context.Context, id int64, title string) error {
	return s.updateRecordColumn(ctx, id, FieldTitle, title)
}

func (s *Store) updateRecordColumn(ctx context.Context, id int64, column, value string) error {
	query, args, err := s.sql.Update("content_records").
		Set(column, value).
		Set("updated_at", nowString()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s update: %w", column, err)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s of record %d: %w", column, id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update %s: %w (id %d)", column, ErrRecordNotFound, id)
	}
	return nil
}

func (s *Store) requireRecord(ctx context.Context, id int64) error {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM content_records WHERE id = ?", id,
	).Scan(&count); err != nil {
		return fmt.Errorf("check record %d: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("%w (id %d)", ErrRecordNotFound, id)
	}
	return nil
}
