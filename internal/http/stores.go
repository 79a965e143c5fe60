package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mrlokans/krishi/internal/crypto"
	"github.com/mrlokans/krishi/internal/entities"
	"github.com/mrlokans/krishi/internal/offline"
	"github.com/mrlokans/krishi/internal/syncqueue"
)

// Each controller depends only on the facade operations it calls.
// *offline.Facade implements all of them.

// LedgerService backs the ledger endpoints.
type LedgerService interface {
	AddTransaction(ctx context.Context, in offline.NewTransaction) (*offline.TransactionView, error)
	UpdateTransaction(ctx context.Context, id uint, in offline.TransactionUpdate) (*offline.TransactionView, error)
	DeleteTransaction(ctx context.Context, id uint) error
	Transaction(ctx context.Context, id uint) (*offline.TransactionView, error)
	Transactions(ctx context.Context, limit int) ([]offline.TransactionView, error)
	SearchTransactions(ctx context.Context, query string) ([]offline.TransactionView, error)
	Balance(ctx context.Context) (offline.Balance, error)
}

// CacheService backs the price, weather, lesson and preference endpoints.
type CacheService interface {
	Price(ctx context.Context, key entities.PriceKey) (offline.PriceLookup, error)
	RecentPrices(ctx context.Context, limit int) (offline.PriceList, error)
	SearchPrices(ctx context.Context, query string) (offline.PriceList, error)
	StorePrices(ctx context.Context, rows []entities.CachedPrice) error
	Weather(ctx context.Context, location string) (offline.WeatherLookup, error)
	StoreWeather(ctx context.Context, location string, payload json.RawMessage) error
	SweepCaches(ctx context.Context, now time.Time) (offline.SweepResult, error)

	RecordProgress(ctx context.Context, p entities.LessonProgress) (*entities.LessonProgress, error)
	Lesson(ctx context.Context, lessonID string) (*entities.LessonProgress, error)
	Lessons(ctx context.Context, limit int) ([]entities.LessonProgress, error)

	SetPreference(ctx context.Context, key string, value any) error
	Preference(ctx context.Context, key string, out any) (bool, error)
	Preferences(ctx context.Context) ([]entities.Preference, error)

	Recent(ctx context.Context, c entities.Collection, limit int) (any, error)
}

// SyncService backs the sync status and queue management endpoints.
type SyncService interface {
	Status() offline.Status
	RefreshStatus(ctx context.Context) error
	SyncNow(ctx context.Context) (syncqueue.Result, error)
	PendingEntries(ctx context.Context) ([]entities.SyncQueueEntry, error)
	StuckEntries(ctx context.Context) ([]entities.SyncQueueEntry, error)
	DiscardEntry(ctx context.Context, id uint) error
	RetryEntry(ctx context.Context, id uint) (syncqueue.Result, error)
}

// SessionService backs unlocking, export and wipe.
type SessionService interface {
	Unlock(ctx context.Context, userID, secret string) (crypto.InitResult, error)
	RestoreSession(ctx context.Context, userID string) (crypto.InitResult, error)
	Lock()
	Export(ctx context.Context) (*offline.ExportData, error)
	Wipe(ctx context.Context) error
}

// ConnectivitySink receives the platform's network signal.
type ConnectivitySink interface {
	Online() bool
	Set(online bool) bool
}
