package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"seopilot/internal/config"
	"seopilot/internal/logging"
	"seopilot/internal/matching"
	"seopilot/internal/reference"
	"seopilot/internal/store"
)

// Method says how a resolution was reached.
type Method string

const (
	MethodAuthoritative Method = "AUTHORITATIVE"
	MethodFuzzy         Method = "FUZZY"
	// MethodSlug marks an exact slug match; it is never committed.
	MethodSlug       Method = "SLUG"
	MethodUnresolved Method = "UNRESOLVED"
)

// Trace steps, appended in the order they are tried.
const (
	TraceMetaMatch             = "meta_match"
	TraceMetaEmpty             = "meta_empty"
	TraceMetaStale             = "meta_stale"
	TraceMetaUnconfigured      = "meta_unconfigured"
	TraceSmartMeta             = "smart_meta"
	TraceSmartAuto             = "smart_auto"
	TraceSmartDisabled         = "smart_disabled"
	TraceSmartNoContext        = "smart_no_context"
	TraceSmartNoCandidates     = "smart_no_candidates"
	TraceSmartBelowThreshold   = "smart_below_threshold"
	TraceCandidatesUnavailable = "candidates_unavailable"
	TraceSlugMatch             = "slug_match"
	TraceSlugMiss              = "slug_miss"
	TraceSlugFallback          = "slug_fallback"
	TraceUnmapped              = "unmapped"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	RecordID   int64
	Category   reference.Category
	MappingKey string
	ID         string
	Method     Method
	Score      float64
	Trace      []string
	// Best is the top ranked candidate when fuzzy matching ran.
	Best *matching.Scored
	// CandidateErr is set when candidate retrieval faulted.
	CandidateErr error
}

// Resolved reports whether an id was produced.
func (r Resolution) Resolved() bool {
	return r.Method != MethodUnresolved && r.ID != ""
}

// NeedsCommit reports whether Commit has work to do for r.
func (r Resolution) NeedsCommit() bool {
	return r.Method == MethodFuzzy && r.ID != ""
}

// TraceString joins the trace for logs and tables.
func (r Resolution) TraceString() string {
	return strings.Join(r.Trace, ">")
}

func (r *Resolution) step(name string) {
	r.Trace = append(r.Trace, name)
}

// Resolver maps content records to reference ids.
type Resolver struct {
	cfg    *config.Config
	deps   Dependencies
	logger *slog.Logger
}

// New constructs a Resolver. Settings are read from cfg on every call.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Resolver, error) {
	if cfg == nil {
		return nil, errors.New("resolver requires configuration")
	}
	if deps.Records == nil || deps.References == nil || deps.Candidates == nil || deps.Ledger == nil || deps.Meta == nil {
		return nil, errors.New("resolver requires records, meta writer, references, candidates, and ledger")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{cfg: cfg, deps: deps, logger: logging.NewComponentLogger(logger, "resolver")}, nil
}

// Resolve determines the reference id for recordID within category without
// mutating any state. Errors are storage faults reading the record, the
// reference index, or the ledger; candidate retrieval faults are recorded on
// the Resolution instead and resolution continues.
func (r *Resolver) Resolve(ctx context.Context, recordID int64, category reference.Category) (Resolution, error) {
	if !category.Valid() {
		return Resolution{}, fmt.Errorf("resolve record %d: unknown category %q", recordID, category)
	}
	kind := category.Kind()
	res := Resolution{
		RecordID:   recordID,
		Category:   category,
		MappingKey: r.cfg.MetaKeyFor(kind),
		Method:     MethodUnresolved,
	}

	done, err := r.tryAuthoritative(ctx, &res, kind)
	if err != nil || done {
		return res, err
	}

	if r.cfg.Mapping.Strategy == config.StrategySlug {
		if done, err = r.trySlug(ctx, &res, kind, TraceSlugMatch); err != nil || done {
			return res, err
		}
		if done, err = r.tryFuzzy(ctx, &res, TraceSmartAuto); err != nil || done {
			return res, err
		}
	} else {
		if done, err = r.tryFuzzy(ctx, &res, TraceSmartMeta); err != nil || done {
			return res, err
		}
		if done, err = r.trySlug(ctx, &res, kind, TraceSlugFallback); err != nil || done {
			return res, err
		}
	}

	res.step(TraceUnmapped)
	r.logDecision(ctx, res)
	return res, nil
}

func (r *Resolver) tryAuthoritative(ctx context.Context, res *Resolution, kind string) (bool, error) {
	if res.MappingKey == "" {
		res.step(TraceMetaUnconfigured)
		logging.WarnWithContext(r.logger, "mapping meta key not configured; skipping authoritative lookup", "mapping_key_missing",
			logging.String(logging.FieldCategory, string(res.Category)),
			logging.Int64(logging.FieldRecordID, res.RecordID),
			logging.String(logging.FieldErrorHint, "set mapping.video_id_meta_key and mapping.page_id_meta_key"),
			logging.String(logging.FieldImpact, "records resolve by slug only"),
		)
		return false, nil
	}
	raw, err := r.deps.Records.GetMeta(ctx, res.RecordID, res.MappingKey)
	if err != nil {
		return false, fmt.Errorf("read mapping meta: %w", err)
	}
	id := reference.CanonicalID(raw, kind)
	if id == "" {
		res.step(TraceMetaEmpty)
		return false, nil
	}
	exists, err := r.deps.References.ReferenceExists(ctx, res.Category, id)
	if err != nil {
		return false, fmt.Errorf("check mapped reference: %w", err)
	}
	if !exists {
		res.step(TraceMetaStale)
		return false, nil
	}
	res.ID = id
	res.Method = MethodAuthoritative
	res.Score = 1
	res.step(TraceMetaMatch)
	r.logDecision(ctx, *res)
	return true, nil
}

func (r *Resolver) trySlug(ctx context.Context, res *Resolution, kind, label string) (bool, error) {
	slug, err := r.deps.Records.GetField(ctx, res.RecordID, store.FieldSlug)
	if err != nil {
		return false, fmt.Errorf("read slug: %w", err)
	}
	id := reference.CanonicalID(slug, kind)
	if id == "" {
		res.step(TraceSlugMiss)
		return false, nil
	}
	exists, err := r.deps.References.ReferenceExists(ctx, res.Category, id)
	if err != nil {
		return false, fmt.Errorf("check slug reference: %w", err)
	}
	if !exists {
		res.step(TraceSlugMiss)
		return false, nil
	}
	res.ID = id
	res.Method = MethodSlug
	res.Score = 1
	res.step(label)
	r.logDecision(ctx, *res)
	return true, nil
}

func (r *Resolver) tryFuzzy(ctx context.Context, res *Resolution, label string) (bool, error) {
	if !r.cfg.Mapping.AutoBackfill || res.MappingKey == "" {
		res.step(TraceSmartDisabled)
		return false, nil
	}

	title, err := r.deps.Records.GetField(ctx, res.RecordID, store.FieldTitle)
	if err != nil {
		return false, fmt.Errorf("read title: %w", err)
	}
	slug, err := r.deps.Records.GetField(ctx, res.RecordID, store.FieldSlug)
	if err != nil {
		return false, fmt.Errorf("read slug: %w", err)
	}
	terms, err := r.deps.Records.Terms(ctx, res.RecordID)
	if err != nil {
		return false, fmt.Errorf("read terms: %w", err)
	}
	search := matching.NewSearchContext(title, terms, slug)
	if search.Empty() {
		res.step(TraceSmartNoContext)
		return false, nil
	}

	exclude, err := r.deps.Ledger.ConsumedSet(ctx, res.MappingKey)
	if err != nil {
		return false, fmt.Errorf("read ledger: %w", err)
	}
	set, err := r.deps.Candidates.Candidates(ctx, matching.Query{
		Category:   res.Category,
		Context:    search,
		MappingKey: res.MappingKey,
		RecordID:   res.RecordID,
		Exclude:    exclude,
		Limit:      r.cfg.Matching.CandidateLimit,
		Pool:       r.cfg.Matching.FallbackPool,
		UseIndex:   r.cfg.Matching.UseIndex,
	})
	if err != nil {
		res.CandidateErr = err
		res.step(TraceCandidatesUnavailable)
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "candidate retrieval failed; record left for slug and later ticks", "candidates_unavailable",
			logging.Int64(logging.FieldRecordID, res.RecordID),
			logging.String(logging.FieldCategory, string(res.Category)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database health with seopilot status"),
			logging.String(logging.FieldImpact, "fuzzy resolution skipped for this record"),
		)
		return false, nil
	}
	if len(set.Items) == 0 {
		res.step(TraceSmartNoCandidates)
		return false, nil
	}

	ranked := matching.Rank(search, set)
	top := ranked[0]
	res.Best = &top
	if top.Score < r.cfg.Matching.ConfidenceThreshold {
		res.step(TraceSmartBelowThreshold)
		return false, nil
	}
	res.ID = top.ReferenceID
	res.Method = MethodFuzzy
	res.Score = top.Score
	res.step(label)
	r.logDecision(ctx, *res)
	return true, nil
}

func (r *Resolver) logDecision(ctx context.Context, res Resolution) {
	logger := logging.WithContext(ctx, r.logger)
	attrs := []logging.Attr{
		logging.Int64(logging.FieldRecordID, res.RecordID),
		logging.String(logging.FieldCategory, string(res.Category)),
		logging.String(logging.FieldTrace, res.TraceString()),
	}
	if res.Method == MethodUnresolved {
		reason := "no step produced an id"
		if res.Best != nil {
			attrs = append(attrs, logging.Float64(logging.FieldScore, res.Best.Score))
			reason = "best candidate below confidence threshold"
		}
		attrs = append(attrs, logging.DecisionAttrs("resolution", "unresolved", reason)...)
		logger.Info("record unresolved", logging.Args(attrs...)...)
		return
	}
	attrs = append(attrs,
		logging.String(logging.FieldReferenceID, res.ID),
		logging.Float64(logging.FieldScore, res.Score),
	)
	attrs = append(attrs, logging.DecisionAttrs("resolution", strings.ToLower(string(res.Method)), res.Trace[len(res.Trace)-1])...)
	logger.Debug("record resolved", logging.Args(attrs...)...)
}

// Commit applies the side effects of a fuzzy resolution: the id is written
// back as the record's mapping meta and then claimed in the ledger. Other
// methods are no-ops.
func (r *Resolver) Commit(ctx context.Context, res Resolution) error {
	if !res.NeedsCommit() {
		return nil
	}
	if res.MappingKey == "" {
		return &config.ConfigurationError{Setting: "mapping meta key", Reason: "is empty"}
	}
	// The meta lands first so a failed write never leaves a claimed id
	// without a holder; once written, the record itself excludes the id
	// from every other record even if the ledger write below fails.
	if err := r.deps.Meta.SetMeta(ctx, res.RecordID, res.MappingKey, res.ID); err != nil {
		return fmt.Errorf("commit resolution: write mapping: %w", err)
	}
	if err := r.deps.Ledger.Consume(ctx, res.MappingKey, res.ID, res.RecordID); err != nil {
		return fmt.Errorf("commit resolution: %w", err)
	}
	r.logger.Info("fuzzy mapping committed",
		logging.Int64(logging.FieldRecordID, res.RecordID),
		logging.String(logging.FieldMappingKey, res.MappingKey),
		logging.String(logging.FieldReferenceID, res.ID),
		logging.Float64(logging.FieldScore, res.Score),
	)
	return nil
}
