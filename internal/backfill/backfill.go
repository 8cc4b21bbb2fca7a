// Package backfill assigns reference ids to records in order, for hosts that
// import records and reference rows in the same sequence.
package backfill

import (
	"context"
	"fmt"
	"log/slog"

	"seopilot/internal/config"
	"seopilot/internal/logging"
	"seopilot/internal/reference"
)

// Store is the persistence a backfill reads and writes.
type Store interface {
	ListReferenceIDs(ctx context.Context, category reference.Category) ([]string, error)
	ListIDs(ctx context.Context, postTypes []string, afterID int64, limit int) ([]int64, error)
	HasMeta(ctx context.Context, id int64, key string) (bool, error)
	LinkedValues(ctx context.Context, key string) ([]string, error)
	SetMeta(ctx context.Context, id int64, key, value string) error
}

// Ledger records each assigned id as consumed.
type Ledger interface {
	ConsumedSet(ctx context.Context, key string) ([]string, error)
	Consume(ctx context.Context, key, id string, recordID int64) error
}

// Result summarizes a backfill run.
type Result struct {
	Category   reference.Category
	MappingKey string
	Assigned   int
	SourceRows int
	Records    int
}

func (r Result) String() string {
	return fmt.Sprintf("assigned %d (source rows=%d, records=%d)", r.Assigned, r.SourceRows, r.Records)
}

// PostTypesFor returns the record types walked for category.
func PostTypesFor(cfg *config.Config, category reference.Category) []string {
	switch category {
	case reference.CategoryTitles:
		return cfg.PostTypes.Titles
	case reference.CategoryPageVideo:
		return cfg.PostTypes.VideoH2
	default:
		return cfg.PostTypes.Model
	}
}

// Run pairs the category's reference ids, ascending, with published records
// of its post types, ascending, that have no mapping meta yet. Ids already
// linked to a record or consumed in the ledger are skipped. The run stops
// when either side is exhausted.
func Run(ctx context.Context, cfg *config.Config, st Store, l Ledger, category reference.Category, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "backfill")
	if !category.Valid() {
		return Result{}, fmt.Errorf("backfill: unknown category %q", category)
	}
	result := Result{Category: category, MappingKey: cfg.MetaKeyFor(category.Kind())}
	if result.MappingKey == "" {
		return result, &config.ConfigurationError{Setting: "mapping meta key", Reason: "is empty"}
	}
	postTypes := PostTypesFor(cfg, category)
	if len(postTypes) == 0 {
		return result, &config.ConfigurationError{Setting: "post_types", Reason: "has no types for " + string(category)}
	}

	ids, err := st.ListReferenceIDs(ctx, category)
	if err != nil {
		return result, fmt.Errorf("backfill: %w", err)
	}
	result.SourceRows = len(ids)
	records, err := st.ListIDs(ctx, postTypes, 0, 0)
	if err != nil {
		return result, fmt.Errorf("backfill: %w", err)
	}
	result.Records = len(records)

	taken := make(map[string]struct{})
	linked, err := st.LinkedValues(ctx, result.MappingKey)
	if err != nil {
		return result, fmt.Errorf("backfill: %w", err)
	}
	consumed, err := l.ConsumedSet(ctx, result.MappingKey)
	if err != nil {
		return result, fmt.Errorf("backfill: %w", err)
	}
	// Stored links may be bare numbers; compare them as canonical ids.
	for _, value := range linked {
		taken[reference.CanonicalID(value, category.Kind())] = struct{}{}
	}
	for _, id := range consumed {
		taken[reference.CleanID(id)] = struct{}{}
	}
	available := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := taken[id]; !ok {
			available = append(available, id)
		}
	}

	next := 0
	for _, recordID := range records {
		if next >= len(available) {
			break
		}
		has, err := st.HasMeta(ctx, recordID, result.MappingKey)
		if err != nil {
			return result, fmt.Errorf("backfill: %w", err)
		}
		if has {
			continue
		}
		id := available[next]
		if err := st.SetMeta(ctx, recordID, result.MappingKey, id); err != nil {
			return result, fmt.Errorf("backfill: %w", err)
		}
		if err := l.Consume(ctx, result.MappingKey, id, recordID); err != nil {
			return result, fmt.Errorf("backfill: %w", err)
		}
		result.Assigned++
		next++
	}

	logger.Info("backfill complete",
		logging.String(logging.FieldCategory, string(category)),
		logging.String(logging.FieldMappingKey, result.MappingKey),
		logging.Int("assigned", result.Assigned),
		logging.Int("source_rows", result.SourceRows),
		logging.Int("records", result.Records),
	)
	return result, nil
}
