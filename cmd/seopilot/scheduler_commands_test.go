package main

import (
	"context"
	"strings"
	"testing"

	"seopilot/internal/reference"
	"seopilot/internal/scheduler"
	"seopilot/internal/store"
	"seopilot/internal/testsupport"
	"seopilot/internal/writeback"
)

func TestTickCommandAppliesBatch(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	testsupport.SeedTitles(t, env.store, "video_0001",
		testsupport.TitleSlot{Focus: "cozy reading", Title: "Cozy Reading Nook Tour", Tone: "calm"},
	)
	testsupport.SeedH2(t, env.store, reference.CategoryPageVideo, "page_00003", "Morning light", "Soft pages", "Warm tea", "Quiet corner")
	video := testsupport.SeedRecord(t, env.store, store.ContentRecord{PostType: "video", Title: "Cozy Reading Nook Tour", Slug: "cozy-reading-nook-tour"})
	page := testsupport.SeedRecord(t, env.store, store.ContentRecord{
		PostType: "video_page",
		Title:    "Reading page",
		Body:     "Intro",
		Meta:     map[string]string{env.cfg.Mapping.PageIDMetaKey: "3"},
	})

	out, _, err := runCLI(t, []string{"tick"}, env.configPath)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	requireContains(t, out, scheduler.PassTitles)
	requireContains(t, out, "running: no")

	if got, _ := env.store.GetMeta(ctx, video, writeback.MetaSEOTitle); got != "Cozy Reading Nook Tour" {
		t.Fatalf("seo title got %q", got)
	}
	body, _ := env.store.GetField(ctx, page, store.FieldBody)
	if !strings.Contains(body, writeback.BlockStartMarker) {
		t.Fatalf("body got %q", body)
	}

	progress, err := env.store.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if progress.Running {
		t.Fatal("a manual tick must not start the scheduler")
	}
	if progress.Cursor(scheduler.PassVideoH2) != page {
		t.Fatalf("cursor got %d want %d", progress.Cursor(scheduler.PassVideoH2), page)
	}
}

func TestScheduledTickSkipsWhenStopped(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"tick", "--scheduled"}, env.configPath)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	requireContains(t, out, "Tick skipped")
}

func TestStartStopReset(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	out, _, err := runCLI(t, []string{"start"}, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Scheduler running")
	progress, _ := env.store.LoadProgress(ctx)
	if !progress.Running {
		t.Fatal("expected running after start")
	}

	if err := env.store.AdvanceCursor(ctx, scheduler.PassTitles, 42); err != nil {
		t.Fatalf("AdvanceCursor: %v", err)
	}
	if _, _, err := runCLI(t, []string{"stop"}, env.configPath); err != nil {
		t.Fatalf("stop: %v", err)
	}
	progress, _ = env.store.LoadProgress(ctx)
	if progress.Running || progress.Cursor(scheduler.PassTitles) != 42 {
		t.Fatalf("stop must keep cursors, got %+v", progress)
	}

	out, _, err = runCLI(t, []string{"reset"}, env.configPath)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	requireContains(t, out, "Progress reset")
	progress, _ = env.store.LoadProgress(ctx)
	if progress.Cursor(scheduler.PassTitles) != 0 {
		t.Fatalf("cursor not reset: %+v", progress)
	}
}
