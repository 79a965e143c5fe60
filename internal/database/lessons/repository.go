// Package lessons provides database operations for learning progress.
// Progress rows are upserted by lesson ID and never expire.
package lessons

import (
	"context"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/entities"
)

// Repository handles all lesson progress database operations.
type Repository struct {
	store *database.Store
}

// NewRepository creates a new lessons repository.
func NewRepository(store *database.Store) *Repository {
	return &Repository{store: store}
}

// Upsert records progress for one or more lessons.
func (r *Repository) Upsert(ctx context.Context, rows ...entities.LessonProgress) error {
	return database.UpsertMany(ctx, r.store, rows)
}

// Get returns progress for a lesson.
func (r *Repository) Get(ctx context.Context, lessonID string) (*entities.LessonProgress, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var p entities.LessonProgress
	if err := db.Where("lesson_id = ?", lessonID).First(&p).Error; err != nil {
		return nil, database.Classify("get", entities.CollectionLessons, err)
	}
	return &p, nil
}

// Recent returns lessons ordered by last access.
func (r *Repository) Recent(ctx context.Context, limit int) ([]entities.LessonProgress, error) {
	return database.QueryRecent[entities.LessonProgress](ctx, r.store, limit)
}

// CompletedCount returns how many lessons are marked complete.
func (r *Repository) CompletedCount(ctx context.Context) (int64, error) {
	db, err := r.store.Conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Model(&entities.LessonProgress{}).Where("completed = ?", true).Count(&n).Error
	return n, database.Classify("count completed", entities.CollectionLessons, err)
}
