package database

import (
	"context"
	"fmt"
	"log"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/krishi/internal/entities"
)

// Options tune how the store opens its SQLite file.
type Options struct {
	// LogLevel controls gorm's SQL logging. Default: logger.Warn
	LogLevel logger.LogLevel
}

// Store is the on-device database holding every collection. It is created
// closed: call Init before use and Shutdown when the process exits.
// Operations on a store that is not initialized fail with ErrStorageUnavailable.
type Store struct {
	path string
	opts Options

	mu sync.RWMutex
	db *gorm.DB

	// tx is set on the views handed out by Atomic.
	tx *gorm.DB
}

// New creates a store for the SQLite file at path without opening it.
func New(path string, opts Options) *Store {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	return &Store{path: path, opts: opts}
}

// Init opens the database and migrates every collection. Calling Init on an
// open store is a no-op.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := gorm.Open(sqlite.Open(s.dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(s.opts.LogLevel),
	})
	if err != nil {
		return Classify("open", "", fmt.Errorf("failed to connect to database: %w", err))
	}

	// A single connection serializes writers; SQLite allows only one anyway.
	sqlDB, err := db.DB()
	if err != nil {
		return Classify("open", "", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models()...); err != nil {
		_ = sqlDB.Close()
		return Classify("migrate", "", fmt.Errorf("failed to migrate database: %w", err))
	}

	s.db = db
	log.Printf("Local store initialized at %s", s.path)
	return nil
}

// Shutdown closes the database. The store can be re-opened with Init.
func (s *Store) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ready reports whether the store is open.
func (s *Store) Ready() bool {
	if s.tx != nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// Path returns the SQLite file path.
func (s *Store) Path() string {
	return s.path
}

// Conn returns a context-bound handle, or ErrStorageUnavailable when the
// store is not open. Repositories use it for every query.
func (s *Store) Conn(ctx context.Context) (*gorm.DB, error) {
	if s.tx != nil {
		return s.tx.WithContext(ctx), nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized: %w", ErrStorageUnavailable)
	}
	return s.db.WithContext(ctx), nil
}

// Ping checks that the database file answers queries.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.Conn(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return Classify("ping", "", err)
	}
	return Classify("ping", "", sqlDB.PingContext(ctx))
}

// Atomic runs fn inside a single transaction. The store passed to fn is
// bound to that transaction; fn must not use the outer store.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	db, err := s.Conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{path: s.path, opts: s.opts, tx: tx})
	})
	return Classify("transaction", "", err)
}

func (s *Store) dsn() string {
	return s.path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

func models() []any {
	return []any{
		&entities.CachedPrice{},
		&entities.CachedWeather{},
		&entities.LessonProgress{},
		&entities.Transaction{},
		&entities.Preference{},
		&entities.SyncQueueEntry{},
	}
}
