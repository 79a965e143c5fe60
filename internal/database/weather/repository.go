// Package weather provides database operations for the weather cache.
// There is at most one row per location label.
package weather

import (
	"context"
	"time"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/entities"
)

// Repository handles all cached weather database operations.
type Repository struct {
	store *database.Store
}

// NewRepository creates a new weather repository.
func NewRepository(store *database.Store) *Repository {
	return &Repository{store: store}
}

// Put overwrites the weather payload for a location.
func (r *Repository) Put(ctx context.Context, w entities.CachedWeather) error {
	return database.UpsertMany(ctx, r.store, []entities.CachedWeather{w})
}

// Get returns the cached weather for a location.
func (r *Repository) Get(ctx context.Context, location string) (*entities.CachedWeather, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var w entities.CachedWeather
	if err := db.Where("location = ?", location).First(&w).Error; err != nil {
		return nil, database.Classify("get", entities.CollectionWeather, err)
	}
	return &w, nil
}

// DeleteOlderThan purges weather cached before cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return database.DeleteOlderThan[entities.CachedWeather](ctx, r.store, cutoff)
}
