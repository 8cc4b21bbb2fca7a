package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"seopilot/internal/reference"
)

// UpsertReferences inserts or replaces reference rows keyed by (category, id)
// and refreshes the full-text index for every touched id. Ids are
// canonicalized before writing.
func (s *Store) UpsertReferences(ctx context.Context, rows []reference.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	written := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		written = 0
		touched := make(map[reference.Category]map[string]struct{})
		for _, row := range rows {
			if !row.Category.Valid() {
				return fmt.Errorf("upsert reference: unknown category %q", row.Category)
			}
			row.ID = reference.CanonicalID(row.ID, row.Category.Kind())
			if row.ID == "" {
				continue
			}
			if row.Category == reference.CategoryTitles && strings.TrimSpace(row.Slot) == "" {
				return fmt.Errorf("upsert reference %s: keyword slot is required", row.ID)
			}
			query, args, err := upsertReferenceQuery(s.sql, row).ToSql()
			if err != nil {
				return fmt.Errorf("build reference upsert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("upsert reference %s/%s: %w", row.Category, row.ID, err)
			}
			if touched[row.Category] == nil {
				touched[row.Category] = make(map[string]struct{})
			}
			touched[row.Category][row.ID] = struct{}{}
			written++
		}
		if !s.ftsAvailable {
			return nil
		}
		for category, ids := range touched {
			for id := range ids {
				if err := s.syncFullText(ctx, tx, category, id); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func upsertReferenceQuery(builder sq.StatementBuilderType, row reference.Row) sq.InsertBuilder {
	schema := row.Category.Schema()
	columns := []string{schema.KeyColumn}
	values := []any{row.ID}
	conflict := schema.KeyColumn
	if schema.SlotColumn != "" {
		columns = append(columns, schema.SlotColumn)
		values = append(values, strings.ToLower(strings.TrimSpace(row.Slot)))
		conflict += ", " + schema.SlotColumn
	}
	updates := make([]string, 0, len(schema.Columns)+1)
	for i, column := range schema.Columns {
		value := ""
		if i < len(row.Fields) {
			value = reference.CleanText(row.Fields[i], 0)
		}
		columns = append(columns, column)
		values = append(values, value)
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", column, column))
	}
	columns = append(columns, "updated_at")
	values = append(values, nowString())
	updates = append(updates, "updated_at = excluded.updated_at")

	return builder.Insert(schema.Table).
		Columns(columns...).
		Values(values...).
		Suffix(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", conflict, strings.Join(updates, ", ")))
}

// syncFullText rewrites the index document for one reference id. Titles are
// indexed by their primary slot only.
func (s *Store) syncFullText(ctx context.Context, tx *sql.Tx, category reference.Category, id string) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM reference_fts WHERE category = ? AND ref_id = ?",
		string(category), id,
	); err != nil {
		return fmt.Errorf("clear index document: %w", err)
	}
	row, err := getReference(ctx, tx, s.sql, category, id)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}
	body := row.SearchText()
	if body == "" {
		return nil
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO reference_fts (category, ref_id, body) VALUES (?, ?, ?)",
		string(category), id, body,
	); err != nil {
		return fmt.Errorf("index reference %s/%s: %w", category, id, err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func referenceSelect(builder sq.StatementBuilderType, category reference.Category) sq.SelectBuilder {
	schema := category.Schema()
	columns := []string{schema.KeyColumn}
	if schema.SlotColumn != "" {
		columns = append(columns, schema.SlotColumn)
	} else {
		columns = append(columns, "''")
	}
	columns = append(columns, schema.Columns...)
	return builder.Select(columns...).From(schema.Table)
}

func scanReference(category reference.Category, scanner interface{ Scan(dest ...any) error }) (reference.Row, error) {
	schema := category.Schema()
	row := reference.Row{Category: category, Fields: make([]string, len(schema.Columns))}
	dest := make([]any, 0, len(schema.Columns)+2)
	dest = append(dest, &row.ID, &row.Slot)
	for i := range row.Fields {
		dest = append(dest, &row.Fields[i])
	}
	if err := scanner.Scan(dest...); err != nil {
		return reference.Row{}, err
	}
	return row, nil
}

// getReference returns the row for id. Titles resolve to the primary slot.
func getReference(ctx context.Context, q queryer, builder sq.StatementBuilderType, category reference.Category, id string) (*reference.Row, error) {
	schema := category.Schema()
	selectQuery := referenceSelect(builder, category).Where(sq.Eq{schema.KeyColumn: id}).Limit(1)
	if schema.SlotColumn != "" {
		selectQuery = selectQuery.Where(sq.Eq{schema.SlotColumn: reference.PrimarySlot})
	}
	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reference lookup: %w", err)
	}
	row, err := scanReference(category, q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reference %s/%s: %w", category, id, err)
	}
	return &row, nil
}

// GetReference returns the reference row for (category, id), or nil when absent.
// For titles the primary keyword slot is returned.
func (s *Store) GetReference(ctx context.Context, category reference.Category, id string) (*reference.Row, error) {
	id = reference.CleanID(id)
	if id == "" {
		return nil, nil
	}
	return getReference(ensureContext(ctx), s.db, s.sql, category, id)
}

// ReferenceExists reports whether (category, id) has been imported.
func (s *Store) ReferenceExists(ctx context.Context, category reference.Category, id string) (bool, error) {
	id = reference.CleanID(id)
	if id == "" {
		return false, nil
	}
	schema := category.Schema()
	query, args, err := s.sql.Select("COUNT(1)").
		From(schema.Table).
		Where(sq.Eq{schema.KeyColumn: id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build reference exists: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("reference exists %s/%s: %w", category, id, err)
	}
	return count > 0, nil
}

// GetTitleSet returns every keyword slot imported for a video id, or nil.
func (s *Store) GetTitleSet(ctx context.Context, id string) (*reference.TitleSet, error) {
	id = reference.CleanID(id)
	if id == "" {
		return nil, nil
	}
	query, args, err := referenceSelect(s.sql, reference.CategoryTitles).
		Where(sq.Eq{"video_id": id}).
		OrderBy("keyword_slot ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build title set lookup: %w", err)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("get title set %s: %w", id, err)
	}
	defer rows.Close()

	set := &reference.TitleSet{ID: id, Slots: make(map[string]reference.Row)}
	for rows.Next() {
		row, err := scanReference(reference.CategoryTitles, rows)
		if err != nil {
			return nil, fmt.Errorf("scan title row: %w", err)
		}
		set.Slots[row.Slot] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate title rows: %w", err)
	}
	if len(set.Slots) == 0 {
		return nil, nil
	}
	return set, nil
}

// ListReferenceIDs returns every distinct id of a category in ascending order.
func (s *Store) ListReferenceIDs(ctx context.Context, category reference.Category) ([]string, error) {
	schema := category.Schema()
	query, args, err := s.sql.Select(schema.KeyColumn).
		Distinct().
		From(schema.Table).
		OrderBy(schema.KeyColumn + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reference id list: %w", err)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reference ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reference id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference ids: %w", err)
	}
	return ids, nil
}

// CountReferences returns the number of distinct ids per category.
func (s *Store) CountReferences(ctx context.Context) (map[reference.Category]int, error) {
	counts := make(map[reference.Category]int, len(reference.AllCategories))
	for _, category := range reference.AllCategories {
		schema := category.Schema()
		var count int
		query := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", schema.KeyColumn, schema.Table)
		if err := s.db.QueryRowContext(ensureContext(ctx), query).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", category, err)
		}
		counts[category] = count
	}
	return counts, nil
}
