package testsupport

import (
	"context"
	"testing"

	"seopilot/internal/config"
	"seopilot/internal/reference"
	"seopilot/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...store.Option) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// TitleSlot is one keyword slot of a titles row set.
type TitleSlot struct {
	Focus    string
	Title    string
	Tone     string
	Category string
	Longtail string
}

// SeedTitles imports keyword slots for a video id; slots[0] is keyword_1.
func SeedTitles(t testing.TB, st *store.Store, id string, slots ...TitleSlot) {
	t.Helper()

	rows := make([]reference.Row, 0, len(slots))
	for i, slot := range slots {
		if i >= len(reference.TitleSlots) {
			break
		}
		rows = append(rows, reference.Row{
			Category: reference.CategoryTitles,
			ID:       id,
			Slot:     reference.TitleSlots[i],
			Fields:   []string{slot.Focus, slot.Title, slot.Tone, slot.Category, slot.Longtail},
		})
	}
	if _, err := st.UpsertReferences(context.Background(), rows); err != nil {
		t.Fatalf("seed titles %s: %v", id, err)
	}
}

// SeedH2 imports one H2 row. Fields follow the category column order.
func SeedH2(t testing.TB, st *store.Store, category reference.Category, id string, fields ...string) {
	t.Helper()

	row := reference.Row{Category: category, ID: id, Fields: fields}
	if _, err := st.UpsertReferences(context.Background(), []reference.Row{row}); err != nil {
		t.Fatalf("seed %s %s: %v", category, id, err)
	}
}

// SeedRecord inserts a content record and returns its id.
func SeedRecord(t testing.TB, st *store.Store, record store.ContentRecord) int64 {
	t.Helper()

	id, err := st.InsertRecord(context.Background(), record)
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return id
}
