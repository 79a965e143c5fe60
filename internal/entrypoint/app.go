package entrypoint

import (
	"fmt"
	"log"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/krishi/internal/config"
	"github.com/mrlokans/krishi/internal/connectivity"
	"github.com/mrlokans/krishi/internal/crypto"
	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/database/preferences"
	"github.com/mrlokans/krishi/internal/offline"
	"github.com/mrlokans/krishi/internal/remote"
)

// App is the data layer assembled from configuration. The server and the
// CLI commands share it.
type App struct {
	Store   *database.Store
	Crypto  *crypto.Service
	Monitor *connectivity.Monitor
	Remote  remote.Store
	Facade  *offline.Facade
}

// Build opens the local store and wires the facade around it. Call Close
// when done.
func Build(cfg *config.Config) (*App, error) {
	logLevel := logger.Warn
	if cfg.Database.Debug {
		logLevel = logger.Info
	}
	store := database.New(cfg.Database.Path, database.Options{LogLevel: logLevel})
	if err := store.Init(); err != nil {
		return nil, err
	}

	remoteStore, err := newRemote(cfg.Sync.Remote)
	if err != nil {
		store.Shutdown()
		return nil, err
	}

	enc := crypto.NewService(preferences.NewRepository(store), cfg.Encryption.Iterations)
	monitor := connectivity.NewMonitor(cfg.Connectivity.AssumeOnline)
	facade := offline.New(store, enc, monitor, remoteStore, FacadeConfig(cfg))

	return &App{
		Store:   store,
		Crypto:  enc,
		Monitor: monitor,
		Remote:  remoteStore,
		Facade:  facade,
	}, nil
}

// FacadeConfig extracts the cache and sync policies.
func FacadeConfig(cfg *config.Config) offline.Config {
	return offline.Config{
		PriceTTL:      cfg.Cache.PriceTTL,
		WeatherTTL:    cfg.Cache.WeatherTTL,
		PriceMaxAge:   cfg.Cache.PriceMaxAge,
		MaxRetries:    cfg.Sync.MaxRetries,
		ReplayTimeout: cfg.Sync.ReplayTimeout,
	}
}

func newRemote(mode config.RemoteMode) (remote.Store, error) {
	switch mode {
	case config.RemoteNone, "":
		log.Printf("[SYNC] No remote store configured: mutations stay queued")
		return nil, nil
	case config.RemoteMemory:
		log.Printf("[SYNC] Using the in-memory remote store")
		return remote.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown SYNC_REMOTE %q", mode)
	}
}

// Close stops the facade and closes the store.
func (a *App) Close() {
	a.Facade.Stop()
	a.Facade.Wait()
	if err := a.Store.Shutdown(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
