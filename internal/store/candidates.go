package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"seopilot/internal/config"
	"seopilot/internal/logging"
	"seopilot/internal/matching"
	"seopilot/internal/reference"
)

const (
	scanTokenLimit     = 4
	scanTokenMinLength = 3
	defaultCandidates  = 10
)

// ErrCandidateStore is matched by every CandidateStoreFault.
var ErrCandidateStore = errors.New("candidate store unavailable")

// CandidateStoreFault reports that no candidate path could be queried.
type CandidateStoreFault struct {
	Category reference.Category
	Path     string
	Err      error
}

func (e *CandidateStoreFault) Error() string {
	return fmt.Sprintf("candidate search %s (%s path): %v", e.Category, e.Path, e.Err)
}

func (e *CandidateStoreFault) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrCandidateStore) match any fault.
func (e *CandidateStoreFault) Is(target error) bool { return target == ErrCandidateStore }

// ErrorKind classifies the fault for logging.
func (e *CandidateStoreFault) ErrorKind() string { return "candidate_store" }

// Candidates returns reference rows resembling q.Context. Ids consumed under
// q.MappingKey, linked to another record, or listed in q.Exclude are never
// returned. The full-text
// index is tried first when allowed; an index fault or an empty index result
// falls through to the LIKE scan. Only a failing scan is reported as a fault.
func (s *Store) Candidates(ctx context.Context, q matching.Query) (matching.CandidateSet, error) {
	ctx = ensureContext(ctx)
	if !q.Category.Valid() {
		return matching.CandidateSet{}, fmt.Errorf("candidate search: unknown category %q", q.Category)
	}
	if q.Context.Empty() {
		return matching.CandidateSet{}, nil
	}

	if q.UseIndex && s.ftsAvailable {
		items, err := s.indexCandidates(ctx, q)
		switch {
		case err != nil:
			logging.WarnWithContext(s.logger, "candidate index query failed; falling back to scan", "candidate_index_fault",
				logging.String(logging.FieldCategory, string(q.Category)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "rebuild the reference index by re-importing reference rows"),
				logging.String(logging.FieldImpact, "candidates come from the slower LIKE scan"),
			)
		case len(items) > 0:
			if items = dropExcluded(items, q.Exclude); len(items) > 0 {
				return matching.CandidateSet{Items: items, Indexed: true}, nil
			}
		}
	}

	items, err := s.scanCandidates(ctx, q)
	if err != nil {
		return matching.CandidateSet{}, &CandidateStoreFault{Category: q.Category, Path: "scan", Err: err}
	}
	return matching.CandidateSet{Items: dropExcluded(items, q.Exclude)}, nil
}

// exclusionFilters drops ids consumed under q.MappingKey and ids another
// record already links to. Both sets are read by subquery, so their size
// never reaches the bound-variable limit.
func exclusionFilters(column string, q matching.Query) sq.And {
	filters := sq.And{}
	if q.MappingKey == "" {
		return filters
	}
	filters = append(filters,
		sq.Expr(column+" NOT IN (SELECT ref_id FROM assignments WHERE mapping_key = ?)", q.MappingKey),
		sq.Expr(
			column+" NOT IN (SELECT "+canonicalIDFunc+"(meta_value, ?) FROM content_meta WHERE meta_key = ? AND record_id <> ? AND trim(meta_value) <> '')",
			q.Category.Kind(), q.MappingKey, q.RecordID,
		),
	)
	return filters
}

// dropExcluded removes q.Exclude ids the SQL filters did not cover.
func dropExcluded(items []matching.Candidate, exclude []string) []matching.Candidate {
	if len(exclude) == 0 || len(items) == 0 {
		return items
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[reference.CleanID(id)] = struct{}{}
	}
	kept := items[:0]
	for _, item := range items {
		if _, ok := skip[item.ReferenceID]; !ok {
			kept = append(kept, item)
		}
	}
	return kept
}

// ftsMatchExpression ORs every token; tokens are already [a-z0-9] only.
func ftsMatchExpression(tokens []string) string {
	quoted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		quoted = append(quoted, `"`+token+`"`)
	}
	return strings.Join(quoted, " OR ")
}

func (s *Store) indexCandidates(ctx context.Context, q matching.Query) ([]matching.Candidate, error) {
	tokens := q.Context.OrderedTokens()
	if len(tokens) == 0 {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultCandidates
	}
	query, args, err := s.sql.Select("ref_id", "body", "bm25(reference_fts) AS rank_score").
		From("reference_fts").
		Where("reference_fts MATCH ?", ftsMatchExpression(tokens)).
		Where(sq.Eq{"category": string(q.Category)}).
		Where(exclusionFilters("ref_id", q)).
		OrderBy("rank_score ASC", "ref_id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build index query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	var items []matching.Candidate
	for rows.Next() {
		var (
			candidate matching.Candidate
			rank      float64
		)
		if err := rows.Scan(&candidate.ReferenceID, &candidate.Text, &rank); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		// bm25 is negative; smaller means more relevant.
		candidate.Relevance = -rank
		if candidate.Relevance < 0 {
			candidate.Relevance = 0
		}
		candidate.HasRelevance = true
		items = append(items, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index rows: %w", err)
	}
	return items, nil
}

func (s *Store) scanCandidates(ctx context.Context, q matching.Query) ([]matching.Candidate, error) {
	tokens := q.Context.KeyTokens(scanTokenLimit, scanTokenMinLength)
	if len(tokens) == 0 {
		return nil, nil
	}
	pool := q.Pool
	if pool < config.MinFallbackPool {
		pool = config.MinFallbackPool
	}

	schema := q.Category.Schema()
	anyToken := sq.Or{}
	for _, token := range tokens {
		for _, column := range schema.SearchColumns {
			anyToken = append(anyToken, sq.Like{column: "%" + token + "%"})
		}
	}
	selectQuery := referenceSelect(s.sql, q.Category).
		Where(anyToken).
		Where(exclusionFilters(schema.KeyColumn, q)).
		OrderBy(schema.KeyColumn + " ASC").
		Limit(uint64(pool))
	if schema.SlotColumn != "" {
		selectQuery = selectQuery.Where(sq.Eq{schema.SlotColumn: reference.PrimarySlot})
	}
	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build scan query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan references: %w", err)
	}
	defer rows.Close()

	var items []matching.Candidate
	for rows.Next() {
		row, err := scanReference(q.Category, rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference row: %w", err)
		}
		items = append(items, matching.Candidate{ReferenceID: row.ID, Text: row.SearchText()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference rows: %w", err)
	}
	return items, nil
}
