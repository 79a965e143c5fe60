// Package prices provides database operations for the market price cache.
//
// Prices are upserted by their natural key (commodity, market, district,
// state): the most recent write wins.
//
// # Usage
//
//	repo := prices.NewRepository(store)
//	err := repo.Upsert(ctx, fetched)
//	recent, err := repo.Recent(ctx, 20)
package prices

import (
	"context"
	"time"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/entities"
)

// Repository handles all cached price database operations.
type Repository struct {
	store *database.Store
}

// NewRepository creates a new prices repository.
func NewRepository(store *database.Store) *Repository {
	return &Repository{store: store}
}

// Upsert writes a batch of prices, replacing rows with the same natural key.
func (r *Repository) Upsert(ctx context.Context, rows []entities.CachedPrice) error {
	return database.UpsertMany(ctx, r.store, rows)
}

// Get returns the cached price for a natural key.
func (r *Repository) Get(ctx context.Context, key entities.PriceKey) (*entities.CachedPrice, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var price entities.CachedPrice
	err = db.Where("commodity = ? AND market = ? AND district = ? AND state = ?",
		key.Commodity, key.Market, key.District, key.State).First(&price).Error
	if err != nil {
		return nil, database.Classify("get", entities.CollectionPrices, err)
	}
	return &price, nil
}

// Recent returns the most recently cached prices.
func (r *Repository) Recent(ctx context.Context, limit int) ([]entities.CachedPrice, error) {
	return database.QueryRecent[entities.CachedPrice](ctx, r.store, limit)
}

// Search matches commodity, market and district.
func (r *Repository) Search(ctx context.Context, query string) ([]entities.CachedPrice, error) {
	return database.Search[entities.CachedPrice](ctx, r.store, query)
}

// DeleteOlderThan purges prices cached before cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return database.DeleteOlderThan[entities.CachedPrice](ctx, r.store, cutoff)
}
