// Package preferences provides database operations for key-value
// preferences. Values are stored as JSON text.
//
// # Usage
//
//	repo := preferences.NewRepository(store)
//	err := repo.Set(ctx, "language", "hi")
//	var lang string
//	found, err := repo.Get(ctx, "language", &lang)
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/entities"
)

// Repository handles all preference database operations.
type Repository struct {
	store *database.Store
}

// NewRepository creates a new preferences repository.
func NewRepository(store *database.Store) *Repository {
	return &Repository{store: store}
}

// GetRaw retrieves a preference row by key.
func (r *Repository) GetRaw(ctx context.Context, key string) (*entities.Preference, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var pref entities.Preference
	if err := db.Where("key = ?", key).First(&pref).Error; err != nil {
		return nil, database.Classify("get", entities.CollectionPreferences, err)
	}
	return &pref, nil
}

// Get decodes the preference stored under key into out. It reports false
// when the key is not set.
func (r *Repository) Get(ctx context.Context, key string, out any) (bool, error) {
	pref, err := r.GetRaw(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(pref.Value), out); err != nil {
		return true, fmt.Errorf("decode preference %q: %w", key, err)
	}
	return true, nil
}

// Set creates or replaces a preference; the last write wins.
func (r *Repository) Set(ctx context.Context, key string, value any) error {
	if key == "" {
		return errors.New("preference key is required")
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode preference %q: %w", key, err)
	}
	return database.UpsertMany(ctx, r.store, []entities.Preference{{
		Key:       key,
		Value:     string(encoded),
		UpdatedAt: time.Now().UTC(),
	}})
}

// Delete removes a preference by key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return err
	}
	return database.Classify("delete", entities.CollectionPreferences,
		db.Where("key = ?", key).Delete(&entities.Preference{}).Error)
}

// All returns every preference ordered by key.
func (r *Repository) All(ctx context.Context) ([]entities.Preference, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var prefs []entities.Preference
	if err := db.Order("key ASC").Find(&prefs).Error; err != nil {
		return nil, database.Classify("list", entities.CollectionPreferences, err)
	}
	return prefs, nil
}

// SecretHash returns the stored secret check hash for a user, or "" when none
// has been recorded.
func (r *Repository) SecretHash(ctx context.Context, userID string) (string, error) {
	var hash string
	if _, err := r.Get(ctx, entities.PreferenceKeySecretHashPrefix+userID, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// SaveSecretHash records the secret check hash for a user.
func (r *Repository) SaveSecretHash(ctx context.Context, userID, hash string) error {
	return r.Set(ctx, entities.PreferenceKeySecretHashPrefix+userID, hash)
}
