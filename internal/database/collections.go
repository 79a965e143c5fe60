package database

import (
	"gorm.io/gorm/clause"

	"github.com/mrlokans/krishi/internal/entities"
)

// collectionSpec describes how a collection is keyed and ordered.
type collectionSpec struct {
	table      string
	keyColumns []string
	// recencyColumn orders QueryRecent and bounds DeleteOlderThan.
	recencyColumn string
}

var collections = map[entities.Collection]collectionSpec{
	entities.CollectionPrices: {
		table:         entities.CachedPrice{}.TableName(),
		keyColumns:    []string{"commodity", "market", "district", "state"},
		recencyColumn: "cached_at",
	},
	entities.CollectionWeather: {
		table:         entities.CachedWeather{}.TableName(),
		keyColumns:    []string{"location"},
		recencyColumn: "cached_at",
	},
	entities.CollectionLessons: {
		table:         entities.LessonProgress{}.TableName(),
		keyColumns:    []string{"lesson_id"},
		recencyColumn: "last_accessed",
	},
	entities.CollectionTransactions: {
		table:         entities.Transaction{}.TableName(),
		keyColumns:    []string{"id"},
		recencyColumn: "date",
	},
	entities.CollectionPreferences: {
		table:         entities.Preference{}.TableName(),
		keyColumns:    []string{"key"},
		recencyColumn: "updated_at",
	},
	entities.CollectionSyncQueue: {
		table:         entities.SyncQueueEntry{}.TableName(),
		keyColumns:    []string{"id"},
		recencyColumn: "created_at",
	},
}

func specFor(c entities.Collection) (collectionSpec, error) {
	spec, ok := collections[c]
	if !ok {
		return collectionSpec{}, ErrUnknownCollection
	}
	return spec, nil
}

func (c collectionSpec) onConflict() clause.OnConflict {
	cols := make([]clause.Column, 0, len(c.keyColumns))
	for _, name := range c.keyColumns {
		cols = append(cols, clause.Column{Name: name})
	}
	return clause.OnConflict{Columns: cols, UpdateAll: true}
}

// recentOrder sorts newest first; rows with equal timestamps keep insertion order.
func (c collectionSpec) recentOrder() string {
	return c.recencyColumn + " DESC, rowid ASC"
}
