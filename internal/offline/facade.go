// Package offline is the API the application uses for on-device data.
//
// Reads are served from the local store. Cached remote data (prices,
// weather) is reported stale once older than its TTL, and the caller fetches
// and stores a fresh copy. Ledger writes land locally first and are queued
// for the remote store; the queue drains whenever connectivity returns.
package offline

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrlokans/krishi/internal/connectivity"
	"github.com/mrlokans/krishi/internal/crypto"
	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/database/ledger"
	"github.com/mrlokans/krishi/internal/database/lessons"
	"github.com/mrlokans/krishi/internal/database/preferences"
	"github.com/mrlokans/krishi/internal/database/prices"
	"github.com/mrlokans/krishi/internal/database/queue"
	"github.com/mrlokans/krishi/internal/database/weather"
	"github.com/mrlokans/krishi/internal/remote"
	"github.com/mrlokans/krishi/internal/syncqueue"
)

var (
	ErrOffline            = errors.New("device is offline")
	ErrNoRemote           = errors.New("no remote store configured")
	ErrLocked             = errors.New("ledger is locked: unlock with the account secret first")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownCollection  = database.ErrUnknownCollection
)

// Config holds the facade's cache and sync policies.
type Config struct {
	// PriceTTL is the age after which a cached price must be refetched. Default: 24h
	PriceTTL time.Duration
	// WeatherTTL is the age after which cached weather must be refetched. Default: 3h
	WeatherTTL time.Duration
	// PriceMaxAge is the cutoff used by SweepCaches for prices. Default: 24h
	PriceMaxAge time.Duration
	// MaxRetries stops automatic replay of an entry after that many failures.
	// Zero retries forever. Default: 10
	MaxRetries int
	// ReplayTimeout bounds one remote mutation. Zero disables it. Default: 30s
	ReplayTimeout time.Duration
}

// DefaultConfig returns the default policies.
func DefaultConfig() Config {
	return Config{
		PriceTTL:      24 * time.Hour,
		WeatherTTL:    3 * time.Hour,
		PriceMaxAge:   24 * time.Hour,
		MaxRetries:    10,
		ReplayTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PriceTTL <= 0 {
		c.PriceTTL = d.PriceTTL
	}
	if c.WeatherTTL <= 0 {
		c.WeatherTTL = d.WeatherTTL
	}
	if c.PriceMaxAge <= 0 {
		c.PriceMaxAge = d.PriceMaxAge
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.ReplayTimeout < 0 {
		c.ReplayTimeout = 0
	}
	return c
}

// Facade composes the local store, sync queue, encryption service and
// connectivity monitor.
type Facade struct {
	cfg     Config
	store   *database.Store
	crypto  *crypto.Service
	monitor *connectivity.Monitor
	remote  remote.Store
	queue   *syncqueue.Queue
	now     func() time.Time

	prices  *prices.Repository
	weather *weather.Repository
	lessons *lessons.Repository
	ledger  *ledger.Repository
	prefs   *preferences.Repository

	statusMu        sync.Mutex
	status          Status
	nextListenerID  uint64
	statusListeners map[uint64]func(Status)

	// drainScheduled is set while a background drain goroutine runs.
	drainScheduled atomic.Bool
	drainRequested atomic.Bool

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

// New creates a facade. remoteStore may be nil, in which case entries are
// queued but never delivered.
func New(store *database.Store, enc *crypto.Service, monitor *connectivity.Monitor, remoteStore remote.Store, cfg Config) *Facade {
	return &Facade{
		cfg:             cfg.withDefaults(),
		store:           store,
		crypto:          enc,
		monitor:         monitor,
		remote:          remoteStore,
		queue:           syncqueue.New(queue.NewRepository(store)),
		now:             func() time.Time { return time.Now().UTC() },
		prices:          prices.NewRepository(store),
		weather:         weather.NewRepository(store),
		lessons:         lessons.NewRepository(store),
		ledger:          ledger.NewRepository(store),
		prefs:           preferences.NewRepository(store),
		statusListeners: make(map[uint64]func(Status)),
	}
}

// Config returns the effective policies.
func (f *Facade) Config() Config {
	return f.cfg
}

// Start subscribes to connectivity transitions. Every transition to online
// schedules one drain pass. If the device is already online a pass is
// scheduled immediately.
func (f *Facade) Start(ctx context.Context) {
	f.lifecycleMu.Lock()
	if f.cancel != nil {
		f.lifecycleMu.Unlock()
		return
	}
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.unsubscribe = f.monitor.Subscribe(f.onConnectivity)
	started := f.ctx
	f.lifecycleMu.Unlock()

	if err := f.RefreshStatus(started); err != nil {
		log.Printf("[SYNC] Failed to read sync status: %v", err)
	}
	if f.monitor.Online() {
		f.scheduleDrain()
	}
}

// Stop unsubscribes from connectivity and cancels background drains between
// entries. Call Wait to block until they return.
func (f *Facade) Stop() {
	f.lifecycleMu.Lock()
	defer f.lifecycleMu.Unlock()
	if f.cancel == nil {
		return
	}
	f.unsubscribe()
	f.cancel()
	f.cancel = nil
}

// Wait blocks until every background drain has returned.
func (f *Facade) Wait() {
	f.wg.Wait()
}

func (f *Facade) onConnectivity(online bool) {
	f.updateStatus(func(s *Status) { s.Online = online })
	if online {
		log.Printf("[SYNC] Back online, draining sync queue")
		f.scheduleDrain()
	}
}

// scheduleDrain starts a background pass unless one is already running. A
// request that arrives while a pass runs makes that goroutine run one more
// pass once it finishes.
func (f *Facade) scheduleDrain() {
	if f.remote == nil {
		return
	}
	f.lifecycleMu.Lock()
	ctx := f.ctx
	f.lifecycleMu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	f.drainRequested.Store(true)
	if !f.drainScheduled.CompareAndSwap(false, true) {
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			f.drainRequested.Store(false)
			f.backgroundDrain(ctx)
			f.drainScheduled.Store(false)

			if ctx.Err() != nil || !f.drainRequested.Load() || !f.drainScheduled.CompareAndSwap(false, true) {
				return
			}
		}
	}()
}

func (f *Facade) backgroundDrain(ctx context.Context) {
	_, err := f.SyncNow(ctx)
	switch {
	case err == nil, errors.Is(err, ErrOffline), errors.Is(err, syncqueue.ErrDrainInProgress),
		errors.Is(err, context.Canceled):
	default:
		log.Printf("[SYNC] Background drain failed: %v", err)
	}
}
