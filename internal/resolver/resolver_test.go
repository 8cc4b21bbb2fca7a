package resolver_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"seopilot/internal/config"
	"seopilot/internal/ledger"
	"seopilot/internal/matching"
	"seopilot/internal/reference"
	"seopilot/internal/resolver"
	"seopilot/internal/store"
	"seopilot/internal/testsupport"
)

type failingCandidates struct {
	t *testing.T
}

func (f failingCandidates) Candidates(context.Context, matching.Query) (matching.CandidateSet, error) {
	f.t.Fatal("candidate source must not be queried")
	return matching.CandidateSet{}, nil
}

type faultyCandidates struct{}

func (faultyCandidates) Candidates(_ context.Context, q matching.Query) (matching.CandidateSet, error) {
	return matching.CandidateSet{}, &store.CandidateStoreFault{Category: q.Category, Path: "scan", Err: errors.New("disk I/O error")}
}

type recordingCandidates struct {
	inner resolver.CandidateSource
	calls int
	last  matching.Query
}

func (r *recordingCandidates) Candidates(ctx context.Context, q matching.Query) (matching.CandidateSet, error) {
	r.calls++
	r.last = q
	return r.inner.Candidates(ctx, q)
}

func newResolver(t *testing.T, cfg *config.Config, st *store.Store, candidates resolver.CandidateSource) (*resolver.Resolver, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(st)
	if candidates == nil {
		candidates = st
	}
	r, err := resolver.New(cfg, resolver.Dependencies{
		Records:    st,
		Meta:       st,
		References: st,
		Candidates: candidates,
		Ledger:     l,
	}, nil)
	if err != nil {
		t.Fatalf("resolver.New: %v", err)
	}
	return r, l
}

func lastStep(res resolver.Resolution) string {
	if len(res.Trace) == 0 {
		return ""
	}
	return res.Trace[len(res.Trace)-1]
}

func TestAuthoritativeMetaNeverConsultsScorer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedH2(t, st, reference.CategoryPageVideo, "page_00007", "a", "b", "c", "d")
	id := testsupport.SeedRecord(t, st, store.ContentRecord{
		PostType: "video_page",
		Title:    "Anything",
		Meta:     map[string]string{cfg.Mapping.PageIDMetaKey: "7"},
	})

	r, _ := newResolver(t, cfg, st, failingCandidates{t: t})
	res, err := r.Resolve(context.Background(), id, reference.CategoryPageVideo)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Method != resolver.MethodAuthoritative || res.ID != "page_00007" {
		t.Fatalf("got %+v", res)
	}
	if res.TraceString() != resolver.TraceMetaMatch {
		t.Fatalf("trace got %q", res.TraceString())
	}
	if res.NeedsCommit() {
		t.Fatal("authoritative results need no commit")
	}
}

func TestEndToEndFuzzyResolutionAndCommit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedTitles(t, st, "video_0001",
		testsupport.TitleSlot{Focus: "cozy reading", Title: "Cozy Reading Nook Tour"},
	)
	testsupport.SeedTitles(t, st, "video_0002",
		testsupport.TitleSlot{Focus: "garden party", Title: "Garden Party Ideas"},
	)
	id := testsupport.SeedRecord(t, st, store.ContentRecord{
		PostType: "video",
		Title:    "Cozy Reading Nook Tour",
		Slug:     "cozy-reading-nook-tour",
	})

	r, l := newResolver(t, cfg, st, nil)
	res, err := r.Resolve(ctx, id, reference.CategoryTitles)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Method != resolver.MethodFuzzy || res.ID != "video_0001" {
		t.Fatalf("got %+v", res)
	}
	if got := res.TraceString(); got != "meta_empty>smart_meta" {
		t.Fatalf("trace got %q", got)
	}
	if res.Score < cfg.Matching.ConfidenceThreshold || res.Score > 1 {
		t.Fatalf("score out of range: %v", res.Score)
	}

	// Resolve is pure.
	if meta, _ := st.GetMeta(ctx, id, cfg.Mapping.VideoIDMetaKey); meta != "" {
		t.Fatalf("Resolve must not write meta, got %q", meta)
	}
	if consumed, _ := l.IsConsumed(ctx, cfg.Mapping.VideoIDMetaKey, "video_0001"); consumed {
		t.Fatal("Resolve must not consume")
	}

	if err := r.Commit(ctx, res); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if meta, _ := st.GetMeta(ctx, id, cfg.Mapping.VideoIDMetaKey); meta != "video_0001" {
		t.Fatalf("meta got %q", meta)
	}
	if consumed, _ := l.IsConsumed(ctx, cfg.Mapping.VideoIDMetaKey, "video_0001"); !consumed {
		t.Fatal("Commit must consume the id")
	}

	// The next resolution takes the cheap authoritative path.
	again, err := r.Resolve(ctx, id, reference.CategoryTitles)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if again.Method != resolver.MethodAuthoritative || again.ID != "video_0001" {
		t.Fatalf("got %+v", again)
	}
}

func TestConsumedRowIsNotClaimedTwice(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedH2(t, st, reference.CategoryPageVideo, "page_00001", "Sunset beach walk", "b", "c", "d")

	first := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page", Title: "Sunset beach walk"})
	second := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page", Title: "Sunset beach walk"})

	r, _ := newResolver(t, cfg, st, nil)
	res, err := r.Resolve(ctx, first, reference.CategoryPageVideo)
	if err != nil || res.Method != resolver.MethodFuzzy {
		t.Fatalf("got %+v %v", res, err)
	}
	if err := r.Commit(ctx, res); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	res, err = r.Resolve(ctx, second, reference.CategoryPageVideo)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Method != resolver.MethodUnresolved || res.ID != "" {
		t.Fatalf("second record must not claim the consumed row, got %+v", res)
	}
	if got := res.TraceString(); got != "meta_empty>smart_no_candidates>slug_miss>unmapped" {
		t.Fatalf("trace got %q", got)
	}
}

func TestSlugStrategyPrefersSlugOverFuzzy(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStrategy(config.StrategySlug))
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedH2(t, st, reference.CategoryPageModelNoTrait, "page_00042", "a", "b", "c", "d")
	id := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "model", Title: "Whatever", Slug: "42"})

	r, _ := newResolver(t, cfg, st, failingCandidates{t: t})
	res, err := r.Resolve(context.Background(), id, reference.CategoryPageModelNoTrait)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Method != resolver.MethodSlug || res.ID != "page_00042" {
		t.Fatalf("got %+v", res)
	}
	if got := res.TraceString(); got != "meta_empty>slug_match" {
		t.Fatalf("trace got %q", got)
	}
	if res.NeedsCommit() {
		t.Fatal("slug matches are not committed")
	}
}

func TestSlugStrategyFallsThroughToFuzzy(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStrategy(config.StrategySlug))
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedH2(t, st, reference.CategoryPageVideo, "page_00001", "Sunset beach walk", "b", "c", "d")
	id := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page", Title: "Sunset beach walk", Slug: "sunset"})

	r, _ := newResolver(t, cfg, st, nil)
	res, err := r.Resolve(context.Background(), id, reference.CategoryPageVideo)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Method != resolver.MethodFuzzy || lastStep(res) != resolver.TraceSmartAuto {
		t.Fatalf("got %+v", res)
	}
}

func TestMetaStrategyUsesSlugAsLastResort(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAutoBackfill(false))
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedH2(t, st, reference.CategoryPageVideo, "beachday", "a", "b", "c", "d")
	id := testsupport.SeedRecord(t, st, store.ContentRecord{
		PostType: "video_page",
		Title:    "Beach day",
		Slug:     "beach-day",
		Meta:     map[string]string{cfg.Mapping.PageIDMetaKey: "page_09999"},
	})

	r, _ := newResolver(t, cfg, st, failingCandidates{t: t})
	res, err := r.Resolve(context.Background(), id, reference.CategoryPageVideo)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Method != resolver.MethodSlug || res.ID != "beachday" {
		t.Fatalf("got %+v", res)
	}
	if got := res.TraceString(); got != "meta_stale>smart_disabled>slug_fallback" {
		t.Fatalf("trace got %q", got)
	}
}

func TestBelowThresholdIsUnresolved(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithThreshold(0.99))
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedH2(t, st, reference.CategoryPageVideo, "page_00001", "Sunset beach walk at dawn", "b", "c", "d")
	id := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page", Title: "Beach"})

	spy := &recordingCandidates{inner: st}
	r, _ := newResolver(t, cfg, st, spy)
	res, err := r.Resolve(context.Background(), id, reference.CategoryPageVideo)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Method != resolver.MethodUnresolved || res.Best == nil {
		t.Fatalf("got %+v", res)
	}
	if !strings.Contains(res.TraceString(), resolver.TraceSmartBelowThreshold) || lastStep(res) != resolver.TraceUnmapped {
		t.Fatalf("trace got %q", res.TraceString())
	}
	if spy.calls != 1 || spy.last.MappingKey != cfg.Mapping.PageIDMetaKey || spy.last.RecordID != id {
		t.Fatalf("unexpected query %+v", spy.last)
	}
	if spy.last.Limit != cfg.Matching.CandidateLimit || spy.last.Pool != cfg.Matching.FallbackPool {
		t.Fatalf("settings not forwarded: %+v", spy.last)
	}
}

func TestCandidateFaultIsScopedToTheRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	id := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page", Title: "Sunset"})

	r, _ := newResolver(t, cfg, st, faultyCandidates{})
	res, err := r.Resolve(context.Background(), id, reference.CategoryPageVideo)
	if err != nil {
		t.Fatalf("candidate faults must not fail Resolve: %v", err)
	}
	if !errors.Is(res.CandidateErr, store.ErrCandidateStore) {
		t.Fatalf("expected candidate fault on resolution, got %v", res.CandidateErr)
	}
	if got := res.TraceString(); got != "meta_empty>candidates_unavailable>slug_miss>unmapped" {
		t.Fatalf("trace got %q", got)
	}
}

func TestEmptyContextSkipsCandidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	id := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page"})

	r, _ := newResolver(t, cfg, st, failingCandidates{t: t})
	res, err := r.Resolve(context.Background(), id, reference.CategoryPageVideo)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := res.TraceString(); got != "meta_empty>smart_no_context>slug_miss>unmapped" {
		t.Fatalf("trace got %q", got)
	}
}

func TestCommitIgnoresNonFuzzyResults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	r, l := newResolver(t, cfg, st, nil)
	res := resolver.Resolution{RecordID: 1, MappingKey: "k", ID: "page_00001", Method: resolver.MethodSlug}
	if err := r.Commit(context.Background(), res); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if consumed, _ := l.IsConsumed(context.Background(), "k", "page_00001"); consumed {
		t.Fatal("slug results must not be consumed")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := resolver.New(cfg, resolver.Dependencies{}, nil); err == nil {
		t.Fatal("expected error")
	}
}

type flakyMeta struct {
	inner    resolver.MetaWriter
	failures int
}

func (f *flakyMeta) SetMeta(ctx context.Context, id int64, key, value string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.inner.SetMeta(ctx, id, key, value)
}

func TestFailedMetaWriteLeavesIDClaimable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedTitles(t, st, "video_0001",
		testsupport.TitleSlot{Focus: "cozy reading", Title: "Cozy Reading Nook Tour"},
	)
	id := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video", Title: "Cozy Reading Nook Tour"})

	l := ledger.New(st)
	meta := &flakyMeta{inner: st, failures: 1}
	r, err := resolver.New(cfg, resolver.Dependencies{
		Records:    st,
		Meta:       meta,
		References: st,
		Candidates: st,
		Ledger:     l,
	}, nil)
	if err != nil {
		t.Fatalf("resolver.New: %v", err)
	}

	res, err := r.Resolve(ctx, id, reference.CategoryTitles)
	if err != nil || res.Method != resolver.MethodFuzzy {
		t.Fatalf("Resolve got %+v err %v", res, err)
	}
	if err := r.Commit(ctx, res); err == nil {
		t.Fatal("expected the meta write to fail")
	}
	if consumed, _ := l.IsConsumed(ctx, cfg.Mapping.VideoIDMetaKey, "video_0001"); consumed {
		t.Fatal("a failed commit must not consume the id")
	}

	retry, err := r.Resolve(ctx, id, reference.CategoryTitles)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if retry.Method != resolver.MethodFuzzy || retry.ID != "video_0001" {
		t.Fatalf("retry got %+v trace %q", retry, retry.TraceString())
	}
	if err := r.Commit(ctx, retry); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got, _ := st.GetMeta(ctx, id, cfg.Mapping.VideoIDMetaKey); got != "video_0001" {
		t.Fatalf("meta got %q", got)
	}
	if consumed, _ := l.IsConsumed(ctx, cfg.Mapping.VideoIDMetaKey, "video_0001"); !consumed {
		t.Fatal("a successful commit consumes the id")
	}
}
