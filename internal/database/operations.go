package database

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/krishi/internal/entities"
)

// SearchLimit caps the number of rows Search returns.
const SearchLimit = 50

// UpsertMany inserts rows or replaces the existing rows with the same key.
// All rows are written in one transaction: on failure nothing changes.
func UpsertMany[T entities.Record](ctx context.Context, s *Store, rows []T) error {
	var zero T
	c := zero.Collection()
	spec, err := specFor(c)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	db, err := s.Conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(spec.onConflict()).Create(&rows).Error
	})
	return Classify("upsert", c, err)
}

// QueryRecent returns up to limit rows, newest first. A limit of zero or
// less returns every row.
func QueryRecent[T entities.Record](ctx context.Context, s *Store, limit int) ([]T, error) {
	var zero T
	c := zero.Collection()
	spec, err := specFor(c)
	if err != nil {
		return nil, err
	}

	db, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	query := db.Order(spec.recentOrder())
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		return nil, Classify("query recent", c, err)
	}
	return rows, nil
}

// Search scans the whole collection, newest first, and returns up to
// SearchLimit rows with a search field containing query, ignoring case.
// An empty query matches every row.
func Search[T entities.Searchable](ctx context.Context, s *Store, query string) ([]T, error) {
	return SearchFunc(ctx, s, func(row T) bool {
		return ContainsFold(query, row.SearchFields()...)
	})
}

// SearchFunc is Search with an arbitrary predicate.
func SearchFunc[T entities.Record](ctx context.Context, s *Store, match func(T) bool) ([]T, error) {
	rows, err := QueryRecent[T](ctx, s, 0)
	if err != nil {
		return nil, err
	}

	matches := make([]T, 0)
	for _, row := range rows {
		if !match(row) {
			continue
		}
		matches = append(matches, row)
		if len(matches) == SearchLimit {
			break
		}
	}
	return matches, nil
}

// ContainsFold reports whether any field contains query, ignoring case.
func ContainsFold(query string, fields ...string) bool {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// DeleteOlderThan removes rows whose recency field is strictly before cutoff
// and returns how many were removed.
func DeleteOlderThan[T entities.Record](ctx context.Context, s *Store, cutoff time.Time) (int64, error) {
	var zero T
	c := zero.Collection()
	spec, err := specFor(c)
	if err != nil {
		return 0, err
	}

	db, err := s.Conn(ctx)
	if err != nil {
		return 0, err
	}
	result := db.Where(spec.recencyColumn+" < ?", cutoff.UTC()).Delete(new(T))
	if result.Error != nil {
		return 0, Classify("delete older than", c, result.Error)
	}
	return result.RowsAffected, nil
}

// ClearAll empties every collection. Each collection is cleared in its own
// transaction; after a failure, calling ClearAll again finishes the wipe.
func (s *Store) ClearAll(ctx context.Context) error {
	db, err := s.Conn(ctx)
	if err != nil {
		return err
	}
	for _, c := range entities.AllCollections {
		spec, err := specFor(c)
		if err != nil {
			return err
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			return tx.Exec("DELETE FROM " + spec.table).Error
		})
		if err != nil {
			return Classify("clear", c, err)
		}
	}
	return nil
}

// ExportSnapshot reads the user-owned collections in a single transaction so
// the three lists are consistent with each other.
func (s *Store) ExportSnapshot(ctx context.Context) (*entities.Snapshot, error) {
	db, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &entities.Snapshot{
		Transactions: []entities.Transaction{},
		Lessons:      []entities.LessonProgress{},
		Preferences:  []entities.Preference{},
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("date ASC, id ASC").Find(&snapshot.Transactions).Error; err != nil {
			return err
		}
		if err := tx.Order("lesson_id ASC").Find(&snapshot.Lessons).Error; err != nil {
			return err
		}
		return tx.Order("key ASC").Find(&snapshot.Preferences).Error
	})
	if err != nil {
		return nil, Classify("export", "", err)
	}
	snapshot.ExportedAt = time.Now().UTC()
	return snapshot, nil
}

// Count returns the number of rows in a collection.
func Count[T entities.Record](ctx context.Context, s *Store) (int64, error) {
	var zero T
	db, err := s.Conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(new(T)).Count(&n).Error; err != nil {
		return 0, Classify("count", zero.Collection(), err)
	}
	return n, nil
}
