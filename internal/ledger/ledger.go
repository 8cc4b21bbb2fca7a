package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"seopilot/internal/reference"
)

// Persistence is the durable backing of the ledger.
type Persistence interface {
	LoadAssignments(ctx context.Context, mappingKey string) ([]string, error)
	RecordAssignment(ctx context.Context, mappingKey, refID string, recordID int64) error
}

// Ledger tracks reference ids consumed per mapping key. Each key is loaded
// from storage on first use and cached for the life of the process; writes
// go to storage first and then refresh the cached set.
type Ledger struct {
	store Persistence

	mu    sync.Mutex
	cache map[string]map[string]struct{}
}

// New constructs a ledger over store.
func New(store Persistence) *Ledger {
	return &Ledger{store: store, cache: make(map[string]map[string]struct{})}
}

func (l *Ledger) load(ctx context.Context, key string) (map[string]struct{}, error) {
	if set, ok := l.cache[key]; ok {
		return set, nil
	}
	return l.refresh(ctx, key)
}

func (l *Ledger) refresh(ctx context.Context, key string) (map[string]struct{}, error) {
	ids, err := l.store.LoadAssignments(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", key, err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	l.cache[key] = set
	return set, nil
}

// IsConsumed reports whether id has been claimed under key.
func (l *Ledger) IsConsumed(ctx context.Context, key, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, err := l.load(ctx, key)
	if err != nil {
		return false, err
	}
	_, ok := set[reference.CleanID(id)]
	return ok, nil
}

// Consume claims id under key for recordID. Consuming an already claimed id
// is a no-op.
func (l *Ledger) Consume(ctx context.Context, key, id string, recordID int64) error {
	id = reference.CleanID(id)
	if key == "" || id == "" {
		return errors.New("ledger consume requires a mapping key and id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	set, err := l.load(ctx, key)
	if err != nil {
		return err
	}
	if _, ok := set[id]; ok {
		return nil
	}
	if err := l.store.RecordAssignment(ctx, key, id, recordID); err != nil {
		return fmt.Errorf("consume %s/%s: %w", key, id, err)
	}
	if _, err := l.refresh(ctx, key); err != nil {
		// The write landed; keep the cache coherent without the reload.
		set[id] = struct{}{}
	}
	return nil
}

// ConsumedSet returns the ids claimed under key in ascending order.
func (l *Ledger) ConsumedSet(ctx context.Context, key string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, err := l.load(ctx, key)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Invalidate drops every cached key so the next call reloads from storage.
func (l *Ledger) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]map[string]struct{})
}
