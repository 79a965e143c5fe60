// Package queue provides database operations for the sync queue table.
//
// This package only stores entries; delivery and retry bookkeeping live in
// the syncqueue package.
package queue

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/entities"
)

// Repository handles all sync queue database operations.
type Repository struct {
	store *database.Store
}

// NewRepository creates a new sync queue repository.
func NewRepository(store *database.Store) *Repository {
	return &Repository{store: store}
}

// Append stores a new entry and sets its ID.
func (r *Repository) Append(ctx context.Context, entry *entities.SyncQueueEntry) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	entry.ID = 0
	return database.Classify("append", entities.CollectionSyncQueue, db.Create(entry).Error)
}

// Pending returns every entry in FIFO order.
func (r *Repository) Pending(ctx context.Context) ([]entities.SyncQueueEntry, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var entries []entities.SyncQueueEntry
	if err := db.Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, database.Classify("list", entities.CollectionSyncQueue, err)
	}
	return entries, nil
}

// Get returns an entry by ID.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.SyncQueueEntry, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var entry entities.SyncQueueEntry
	if err := db.First(&entry, id).Error; err != nil {
		return nil, database.Classify("get", entities.CollectionSyncQueue, err)
	}
	return &entry, nil
}

// Delete removes an acknowledged or discarded entry.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	return database.Classify("delete", entities.CollectionSyncQueue,
		db.Delete(&entities.SyncQueueEntry{}, id).Error)
}

// IncrementRetries bumps the retry counter of an entry.
func (r *Repository) IncrementRetries(ctx context.Context, id uint) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&entities.SyncQueueEntry{}).
		Where("id = ?", id).
		Update("retries", gorm.Expr("retries + 1"))
	if result.Error != nil {
		return database.Classify("increment retries", entities.CollectionSyncQueue, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("increment retries of entry %d: %w", id, database.ErrNotFound)
	}
	return nil
}

// Count returns the number of queued entries.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	return database.Count[entities.SyncQueueEntry](ctx, r.store)
}

// CountAtLeastRetries returns how many entries have failed at least n times.
func (r *Repository) CountAtLeastRetries(ctx context.Context, n int) (int64, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&entities.SyncQueueEntry{}).Where("retries >= ?", n).Count(&count).Error
	return count, database.Classify("count stuck", entities.CollectionSyncQueue, err)
}

// AtLeastRetries lists entries that have failed at least n times, FIFO.
func (r *Repository) AtLeastRetries(ctx context.Context, n int) ([]entities.SyncQueueEntry, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var entries []entities.SyncQueueEntry
	err = db.Where("retries >= ?", n).Order("created_at ASC, id ASC").Find(&entries).Error
	if err != nil {
		return nil, database.Classify("list stuck", entities.CollectionSyncQueue, err)
	}
	return entries, nil
}
