package main

import (
	"context"
	"strconv"
	"testing"

	"seopilot/internal/reference"
	"seopilot/internal/resolver"
	"seopilot/internal/store"
	"seopilot/internal/testsupport"
)

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedH2(t, env.store, reference.CategoryPageVideo, "page_00001", "a", "b", "c", "d")

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Stopped")
	requireContains(t, out, "Never")
	requireContains(t, out, string(reference.CategoryPageVideo))
	requireContains(t, out, "Mapping keys")
}

func TestResolveCommandDoesNotCommitByDefault(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	testsupport.SeedTitles(t, env.store, "video_0001",
		testsupport.TitleSlot{Focus: "cozy reading", Title: "Cozy Reading Nook Tour"},
	)
	id := testsupport.SeedRecord(t, env.store, store.ContentRecord{PostType: "video", Title: "Cozy Reading Nook Tour"})

	out, _, err := runCLI(t, []string{"resolve", "--record", strconv.FormatInt(id, 10), "--category", "titles"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "video_0001")
	requireContains(t, out, string(resolver.MethodFuzzy))
	if got, _ := env.store.GetMeta(ctx, id, env.cfg.Mapping.VideoIDMetaKey); got != "" {
		t.Fatalf("resolve without --commit wrote meta %q", got)
	}

	if _, _, err := runCLI(t, []string{"resolve", "--record", strconv.FormatInt(id, 10), "--commit"}, env.configPath); err != nil {
		t.Fatalf("resolve --commit: %v", err)
	}
	if got, _ := env.store.GetMeta(ctx, id, env.cfg.Mapping.VideoIDMetaKey); got != "video_0001" {
		t.Fatalf("committed meta got %q", got)
	}
}

func TestResolveCommandRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"resolve"}, env.configPath); err == nil {
		t.Fatal("expected error without --record")
	}
	if _, _, err := runCLI(t, []string{"resolve", "--record", "1", "--category", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestBackfillCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedH2(t, env.store, reference.CategoryPageVideo, "page_00001", "a", "b", "c", "d")
	id := testsupport.SeedRecord(t, env.store, store.ContentRecord{PostType: "video_page"})

	out, _, err := runCLI(t, []string{"backfill", "--category", "page_video"}, env.configPath)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	requireContains(t, out, "assigned 1")
	if got, _ := env.store.GetMeta(context.Background(), id, env.cfg.Mapping.PageIDMetaKey); got != "page_00001" {
		t.Fatalf("meta got %q", got)
	}
}

func TestDiagnosticsCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"diagnostics"}, env.configPath)
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	requireContains(t, out, "No diagnostics recorded")
}
