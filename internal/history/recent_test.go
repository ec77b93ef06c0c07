package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bobby-s-dev/weather-lookup/internal/models"
	"github.com/bobby-s-dev/weather-lookup/internal/storage"
	"go.uber.org/zap"
)

type failingStore struct {
	storage.Store
	err error
}

func (f failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, f.err
}

func TestListEmpty(t *testing.T) {
	log := NewRecentSearches(storage.NewMemoryStore(), 0, zap.NewNop())

	entries, err := log.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty list, got %#v", entries)
	}
}

func TestAddPutsNewestFirst(t *testing.T) {
	ctx := context.Background()
	log := NewRecentSearches(storage.NewMemoryStore(), 0, zap.NewNop())

	for i := int64(1); i <= 3; i++ {
		if err := log.Add(ctx, models.RecentSearchEntry{ID: i, Name: fmt.Sprintf("city-%d", i)}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	entries, err := log.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []int64{3, 2, 1}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, id := range want {
		if entries[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d", i, id, entries[i].ID)
		}
	}
}

func TestAddReplacesSameID(t *testing.T) {
	ctx := context.Background()
	log := NewRecentSearches(storage.NewMemoryStore(), 0, zap.NewNop())

	log.Add(ctx, models.RecentSearchEntry{ID: 7, Name: "Old Name", Lat: 1, Lon: 2})
	log.Add(ctx, models.RecentSearchEntry{ID: 8, Name: "Other"})
	if err := log.Add(ctx, models.RecentSearchEntry{ID: 7, Name: "New Name", Lat: 1, Lon: 2}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entries, err := log.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].ID != 7 || entries[0].Name != "New Name" {
		t.Fatalf("expected updated entry first, got %+v", entries[0])
	}

	seen := make(map[int64]bool)
	for _, e := range entries {
		if seen[e.ID] {
			t.Fatalf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestAddEnforcesLimit(t *testing.T) {
	ctx := context.Background()
	log := NewRecentSearches(storage.NewMemoryStore(), 2, zap.NewNop())

	for i := int64(1); i <= 5; i++ {
		log.Add(ctx, models.RecentSearchEntry{ID: i})
	}

	entries, _ := log.List(ctx)
	if len(entries) != 2 || entries[0].ID != 5 || entries[1].ID != 4 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestConcurrentAddsKeepEveryEntry(t *testing.T) {
	ctx := context.Background()
	log := NewRecentSearches(storage.NewMemoryStore(), 0, zap.NewNop())

	var wg sync.WaitGroup
	for i := int64(0); i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := log.Add(ctx, models.RecentSearchEntry{ID: id}); err != nil {
				t.Errorf("Add failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	entries, _ := log.List(ctx)
	if len(entries) != 20 {
		t.Fatalf("expected 20 entries, got %d", len(entries))
	}
}

func TestMalformedStoredData(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Set(ctx, StorageKey, "{not json")
	log := NewRecentSearches(store, 0, zap.NewNop())

	if _, err := log.List(ctx); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := log.Add(ctx, models.RecentSearchEntry{ID: 1}); err == nil {
		t.Fatalf("expected Add to fail on malformed data")
	}

	raw, _, _ := store.Get(ctx, StorageKey)
	if raw != "{not json" {
		t.Fatalf("expected stored data untouched, got %q", raw)
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	log := NewRecentSearches(failingStore{err: boom}, 0, zap.NewNop())

	if _, err := log.List(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	log := NewRecentSearches(storage.NewMemoryStore(), 0, zap.NewNop())
	log.Add(ctx, models.RecentSearchEntry{ID: 42, Name: "Springfield", Lat: 39.8, Lon: -89.6})

	entry, found, err := log.Find(ctx, 42)
	if err != nil || !found || entry.Name != "Springfield" {
		t.Fatalf("unexpected result %+v found=%v err=%v", entry, found, err)
	}

	if _, found, _ := log.Find(ctx, 1); found {
		t.Fatalf("expected id 1 to be missing")
	}
}
