// Package ledger provides database operations for the transaction ledger.
//
// Amounts arrive here already encrypted; this package never sees plaintext.
//
// # Usage
//
//	repo := ledger.NewRepository(store)
//	err := repo.Insert(ctx, &tx)
//	err = repo.MarkSynced(ctx, tx.ID, remoteID)
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/entities"
)

// ErrAlreadySynced is returned when a different remote ID is attached to a
// row that is already synced.
var ErrAlreadySynced = errors.New("transaction already synced")

// Repository handles all ledger database operations.
type Repository struct {
	store *database.Store
}

// NewRepository creates a new ledger repository.
func NewRepository(store *database.Store) *Repository {
	return &Repository{store: store}
}

// Insert stores a new, unsynced transaction and sets its ID.
func (r *Repository) Insert(ctx context.Context, tx *entities.Transaction) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	tx.ID = 0
	tx.RemoteID = nil
	tx.Synced = false
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	return database.Classify("insert", entities.CollectionTransactions, db.Create(tx).Error)
}

// Get returns a transaction by local ID.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.Transaction, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var tx entities.Transaction
	if err := db.First(&tx, id).Error; err != nil {
		return nil, database.Classify("get", entities.CollectionTransactions, err)
	}
	return &tx, nil
}

// UpdateFields changes description, category and encrypted amount. Sync
// state is left alone.
func (r *Repository) UpdateFields(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	for column := range updates {
		switch column {
		case "description", "category", "amount", "date":
		default:
			return fmt.Errorf("column %q cannot be updated", column)
		}
	}
	result := db.Model(&entities.Transaction{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return database.Classify("update", entities.CollectionTransactions, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update transaction %d: %w", id, database.ErrNotFound)
	}
	return nil
}

// Delete removes a transaction. Deleting a missing row is not an error.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	return database.Classify("delete", entities.CollectionTransactions,
		db.Delete(&entities.Transaction{}, id).Error)
}

// MarkSynced attaches the remote ID and flips Synced. Marking a row again
// with the same remote ID is a no-op.
func (r *Repository) MarkSynced(ctx context.Context, id uint, remoteID string) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&entities.Transaction{}).
		Where("id = ? AND remote_id IS NULL", id).
		Updates(map[string]any{
			"remote_id": remoteID,
			"synced":    true,
		})
	if result.Error != nil {
		return database.Classify("mark synced", entities.CollectionTransactions, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	existing, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.RemoteID != nil && *existing.RemoteID == remoteID {
		return nil
	}
	return fmt.Errorf("mark transaction %d synced: %w", id, ErrAlreadySynced)
}

// All returns every ledger row in one query, oldest first.
func (r *Repository) All(ctx context.Context) ([]entities.Transaction, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []entities.Transaction
	if err := db.Order("date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, database.Classify("list", entities.CollectionTransactions, err)
	}
	return rows, nil
}

// Unsynced returns rows that have not reached the remote store yet.
func (r *Repository) Unsynced(ctx context.Context) ([]entities.Transaction, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []entities.Transaction
	if err := db.Where("synced = ?", false).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, database.Classify("list unsynced", entities.CollectionTransactions, err)
	}
	return rows, nil
}

// Recent returns rows ordered by occurrence date, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]entities.Transaction, error) {
	return database.QueryRecent[entities.Transaction](ctx, r.store, limit)
}

// Search matches description and category.
func (r *Repository) Search(ctx context.Context, query string) ([]entities.Transaction, error) {
	return database.Search[entities.Transaction](ctx, r.store, query)
}
