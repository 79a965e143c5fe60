package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/entities"
)

// PriceLookup is a cached price and whether it must be refetched. Price is
// nil when nothing is cached for the key; Stale is then true.
type PriceLookup struct {
	Price *entities.CachedPrice `json:"price"`
	Stale bool                  `json:"stale"`
	Age   time.Duration         `json:"age"`
}

// PriceList is a set of cached prices. Stale is true when the list is empty
// or any price in it is older than the TTL.
type PriceList struct {
	Prices []entities.CachedPrice `json:"prices"`
	Stale  bool                   `json:"stale"`
}

// WeatherLookup is the cached weather for a location.
type WeatherLookup struct {
	Weather *entities.CachedWeather `json:"weather"`
	Stale   bool                    `json:"stale"`
	Age     time.Duration           `json:"age"`
}

// SweepResult counts rows removed by SweepCaches.
type SweepResult struct {
	Prices  int64 `json:"prices"`
	Weather int64 `json:"weather"`
}

func (f *Facade) stale(cachedAt time.Time, ttl time.Duration) (bool, time.Duration) {
	age := f.now().Sub(cachedAt)
	return age > ttl, age
}

// Price looks up a cached price by natural key.
func (f *Facade) Price(ctx context.Context, key entities.PriceKey) (PriceLookup, error) {
	price, err := f.prices.Get(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return PriceLookup{Stale: true}, nil
	}
	if err != nil {
		return PriceLookup{}, err
	}
	stale, age := f.stale(price.CachedAt, f.cfg.PriceTTL)
	return PriceLookup{Price: price, Stale: stale, Age: age}, nil
}

// RecentPrices returns the most recently cached prices.
func (f *Facade) RecentPrices(ctx context.Context, limit int) (PriceList, error) {
	rows, err := f.prices.Recent(ctx, limit)
	if err != nil {
		return PriceList{}, err
	}
	return f.priceList(rows), nil
}

// SearchPrices matches commodity, market and district.
func (f *Facade) SearchPrices(ctx context.Context, query string) (PriceList, error) {
	rows, err := f.prices.Search(ctx, query)
	if err != nil {
		return PriceList{}, err
	}
	return f.priceList(rows), nil
}

func (f *Facade) priceList(rows []entities.CachedPrice) PriceList {
	list := PriceList{Prices: rows, Stale: len(rows) == 0}
	for _, row := range rows {
		if stale, _ := f.stale(row.CachedAt, f.cfg.PriceTTL); stale {
			list.Stale = true
			break
		}
	}
	return list
}

// StorePrices caches freshly fetched prices. Rows without CachedAt are
// stamped with the current time.
func (f *Facade) StorePrices(ctx context.Context, rows []entities.CachedPrice) error {
	now := f.now()
	for i := range rows {
		r := &rows[i]
		if strings.TrimSpace(r.Commodity) == "" || strings.TrimSpace(r.Market) == "" {
			return fmt.Errorf("%w: price %d has no commodity or market", ErrInvalidInput, i)
		}
		r.ID = 0
		if r.CachedAt.IsZero() {
			r.CachedAt = now
		}
		r.CachedAt = r.CachedAt.UTC()
	}
	return f.prices.Upsert(ctx, rows)
}

// Weather looks up cached weather for a location label.
func (f *Facade) Weather(ctx context.Context, location string) (WeatherLookup, error) {
	w, err := f.weather.Get(ctx, location)
	if errors.Is(err, database.ErrNotFound) {
		return WeatherLookup{Stale: true}, nil
	}
	if err != nil {
		return WeatherLookup{}, err
	}
	stale, age := f.stale(w.CachedAt, f.cfg.WeatherTTL)
	return WeatherLookup{Weather: w, Stale: stale, Age: age}, nil
}

// StoreWeather replaces the cached weather for a location.
func (f *Facade) StoreWeather(ctx context.Context, location string, payload json.RawMessage) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if !json.Valid(payload) {
		return fmt.Errorf("%w: weather payload is not valid JSON", ErrInvalidInput)
	}
	return f.weather.Put(ctx, entities.CachedWeather{
		Location: location,
		Payload:  string(payload),
		CachedAt: f.now(),
	})
}

// SweepCaches deletes prices older than PriceMaxAge and weather older than
// WeatherTTL, measured from now.
func (f *Facade) SweepCaches(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	var err error
	if result.Prices, err = f.prices.DeleteOlderThan(ctx, now.Add(-f.cfg.PriceMaxAge)); err != nil {
		return result, err
	}
	if result.Weather, err = f.weather.DeleteOlderThan(ctx, now.Add(-f.cfg.WeatherTTL)); err != nil {
		return result, err
	}
	return result, nil
}

// RecordProgress upserts lesson progress. Progress of 1 marks the lesson
// complete.
func (f *Facade) RecordProgress(ctx context.Context, p entities.LessonProgress) (*entities.LessonProgress, error) {
	if strings.TrimSpace(p.LessonID) == "" {
		return nil, fmt.Errorf("%w: lesson id is required", ErrInvalidInput)
	}
	if p.Progress < 0 || p.Progress > 1 {
		return nil, fmt.Errorf("%w: progress must be between 0 and 1", ErrInvalidInput)
	}
	if p.Progress == 1 {
		p.Completed = true
	}
	p.LastAccessed = f.now()
	if err := f.lessons.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Lesson returns progress for one lesson.
func (f *Facade) Lesson(ctx context.Context, lessonID string) (*entities.LessonProgress, error) {
	return f.lessons.Get(ctx, lessonID)
}

// Lessons returns lessons by last access, newest first.
func (f *Facade) Lessons(ctx context.Context, limit int) ([]entities.LessonProgress, error) {
	return f.lessons.Recent(ctx, limit)
}

// SetPreference stores a JSON-encodable value; the last write wins.
func (f *Facade) SetPreference(ctx context.Context, key string, value any) error {
	if strings.HasPrefix(key, entities.PreferenceKeySecretHashPrefix) {
		return fmt.Errorf("%w: preference key %q is reserved", ErrInvalidInput, key)
	}
	return f.prefs.Set(ctx, key, value)
}

// Preference decodes a stored preference into out and reports whether it
// was set.
func (f *Facade) Preference(ctx context.Context, key string, out any) (bool, error) {
	return f.prefs.Get(ctx, key, out)
}

// Preferences returns every preference except the reserved secret hashes.
func (f *Facade) Preferences(ctx context.Context) ([]entities.Preference, error) {
	all, err := f.prefs.All(ctx)
	if err != nil {
		return nil, err
	}
	return userPreferences(all), nil
}

func userPreferences(all []entities.Preference) []entities.Preference {
	out := make([]entities.Preference, 0, len(all))
	for _, p := range all {
		if strings.HasPrefix(p.Key, entities.PreferenceKeySecretHashPrefix) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Recent returns the newest rows of any collection by name. Ledger rows are
// returned decrypted.
func (f *Facade) Recent(ctx context.Context, c entities.Collection, limit int) (any, error) {
	switch c {
	case entities.CollectionPrices:
		return f.RecentPrices(ctx, limit)
	case entities.CollectionWeather:
		return database.QueryRecent[entities.CachedWeather](ctx, f.store, limit)
	case entities.CollectionLessons:
		return f.Lessons(ctx, limit)
	case entities.CollectionTransactions:
		return f.Transactions(ctx, limit)
	case entities.CollectionPreferences:
		rows, err := database.QueryRecent[entities.Preference](ctx, f.store, limit)
		if err != nil {
			return nil, err
		}
		return userPreferences(rows), nil
	case entities.CollectionSyncQueue:
		return database.QueryRecent[entities.SyncQueueEntry](ctx, f.store, limit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
}
