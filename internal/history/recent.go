package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bobby-s-dev/weather-lookup/internal/models"
	"github.com/bobby-s-dev/weather-lookup/internal/storage"
	"go.uber.org/zap"
)

// StorageKey is where the recent-search list lives in the store.
const StorageKey = "@WeatherApp/searchHistory"

// RecentSearches is a most-recent-first list of prior lookups, unique by ID.
type RecentSearches struct {
	store  storage.Store
	limit  int
	logger *zap.Logger
	mu     sync.Mutex
}

// NewRecentSearches returns a log backed by store. A limit of zero or less
// keeps every entry.
func NewRecentSearches(store storage.Store, limit int, logger *zap.Logger) *RecentSearches {
	return &RecentSearches{
		store:  store,
		limit:  limit,
		logger: logger,
	}
}

// List returns the stored entries, or an empty slice when nothing was saved.
func (r *RecentSearches) List(ctx context.Context) ([]models.RecentSearchEntry, error) {
	raw, found, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent searches: %w", err)
	}
	if !found || raw == "" {
		return []models.RecentSearchEntry{}, nil
	}

	var entries []models.RecentSearchEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse recent searches: %w", err)
	}
	if entries == nil {
		entries = []models.RecentSearchEntry{}
	}
	return entries, nil
}

// Add moves entry to the front, dropping any older entry with the same ID.
// Calls on one RecentSearches are serialised; writers in other processes
// sharing the store still race with last write winning.
func (r *RecentSearches) Add(ctx context.Context, entry models.RecentSearchEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.List(ctx)
	if err != nil {
		return err
	}

	updated := make([]models.RecentSearchEntry, 0, len(current)+1)
	updated = append(updated, entry)
	for _, e := range current {
		if e.ID != entry.ID {
			updated = append(updated, e)
		}
	}

	if r.limit > 0 && len(updated) > r.limit {
		r.logger.Debug("Trimming recent searches",
			zap.Int("dropped", len(updated)-r.limit),
			zap.Int("limit", r.limit))
		updated = updated[:r.limit]
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to encode recent searches: %w", err)
	}
	if err := r.store.Set(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to write recent searches: %w", err)
	}

	return nil
}

// Find returns the entry with id, if present.
func (r *RecentSearches) Find(ctx context.Context, id int64) (models.RecentSearchEntry, bool, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return models.RecentSearchEntry{}, false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return models.RecentSearchEntry{}, false, nil
}
