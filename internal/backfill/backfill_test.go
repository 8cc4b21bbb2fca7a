package backfill_test

import (
	"context"
	"errors"
	"testing"

	"seopilot/internal/backfill"
	"seopilot/internal/config"
	"seopilot/internal/ledger"
	"seopilot/internal/reference"
	"seopilot/internal/store"
	"seopilot/internal/testsupport"
)

func TestRunAssignsIdsInOrder(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	key := cfg.Mapping.PageIDMetaKey

	for _, id := range []string{"page_00003", "page_00001", "page_00002", "page_00004"} {
		testsupport.SeedH2(t, st, reference.CategoryPageVideo, id, "a", "b", "c", "d")
	}
	first := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page"})
	mapped := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page", Meta: map[string]string{key: "page_00002"}})
	third := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page"})
	draft := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page", Status: "draft"})
	other := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "model"})

	l := ledger.New(st)
	if err := l.Consume(ctx, key, "page_00003", 999); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	result, err := backfill.Run(ctx, cfg, st, l, reference.CategoryPageVideo, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Assigned != 2 || result.SourceRows != 4 || result.Records != 3 {
		t.Fatalf("got %+v", result)
	}

	want := map[int64]string{first: "page_00001", mapped: "page_00002", third: "page_00004", draft: "", other: ""}
	for id, value := range want {
		got, err := st.GetMeta(ctx, id, key)
		if err != nil {
			t.Fatalf("GetMeta: %v", err)
		}
		if got != value {
			t.Fatalf("record %d got %q want %q", id, got, value)
		}
	}
	if consumed, _ := l.IsConsumed(ctx, key, "page_00004"); !consumed {
		t.Fatal("assigned ids must be consumed")
	}

	again, err := backfill.Run(ctx, cfg, st, l, reference.CategoryPageVideo, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if again.Assigned != 0 {
		t.Fatalf("second run assigned %d", again.Assigned)
	}
}

func TestRunRequiresMetaKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Mapping.VideoIDMetaKey = ""
	st := testsupport.MustOpenStore(t, cfg)
	_, err := backfill.Run(context.Background(), cfg, st, ledger.New(st), reference.CategoryTitles, nil)
	if !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("got %v", err)
	}
}

func TestPostTypesFor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if got := backfill.PostTypesFor(cfg, reference.CategoryPageModelTrait); len(got) != 1 || got[0] != "model" {
		t.Fatalf("got %v", got)
	}
	if got := backfill.PostTypesFor(cfg, reference.CategoryTitles); len(got) != 1 || got[0] != "video" {
		t.Fatalf("got %v", got)
	}
}

func TestRunSkipsIdsLinkedAsBareNumbers(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	key := cfg.Mapping.PageIDMetaKey

	testsupport.SeedH2(t, st, reference.CategoryPageVideo, "page_00001", "a", "b", "c", "d")
	testsupport.SeedH2(t, st, reference.CategoryPageVideo, "page_00002", "a", "b", "c", "d")
	testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page", Meta: map[string]string{key: "1"}})
	unmapped := testsupport.SeedRecord(t, st, store.ContentRecord{PostType: "video_page"})

	result, err := backfill.Run(ctx, cfg, st, ledger.New(st), reference.CategoryPageVideo, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Assigned != 1 {
		t.Fatalf("got %+v", result)
	}
	if got, _ := st.GetMeta(ctx, unmapped, key); got != "page_00002" {
		t.Fatalf("got %q want page_00002", got)
	}
}
