package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs durable background jobs on a backlite queue kept in its own
// SQLite file, so a wipe of the local store never touches job state.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int
	started  atomic.Bool
}

// DBPath returns the task database path for a local store file: the same
// directory and name with a "-tasks" suffix.
func DBPath(storePath string) string {
	ext := filepath.Ext(storePath)
	return strings.TrimSuffix(storePath, ext) + "-tasks" + ext
}

func openTaskDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open tasks database: %w", err)
	}
	// Workers plus the enqueuing caller and the cleanup loop.
	db.SetMaxOpenConns(workers + 2)
	db.SetMaxIdleConns(workers + 1)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// NewClient opens the task database next to storePath and installs the
// backlite schema.
func NewClient(storePath string, cfg Config) (*Client, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}

	db, err := openTaskDB(DBPath(storePath), cfg.Workers)
	if err != nil {
		return nil, err
	}

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          taskLogger{},
	})
	if err == nil {
		err = bl.Install()
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set up task queue: %w", err)
	}

	return &Client{backlite: bl, db: db, workers: cfg.Workers}, nil
}

// Register adds queues to the client. Must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start begins processing jobs. Non-blocking; calling it twice is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[TASK] Task queue started with %d workers", c.workers)
	c.backlite.Start(ctx)
}

// Stop waits for running jobs until ctx is done. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.started.Load() {
		return true
	}
	if !c.backlite.Stop(ctx) {
		log.Println("[TASK] Task queue stopped with jobs still running")
		return false
	}
	log.Println("[TASK] Task queue stopped")
	return true
}

// Close releases the task database. Call after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Enqueue saves one or more jobs and returns their IDs.
func (c *Client) Enqueue(jobs ...backlite.Task) ([]string, error) {
	ids, err := c.backlite.Add(jobs...).Save()
	if err != nil {
		return nil, fmt.Errorf("enqueue task: %w", err)
	}
	return ids, nil
}

// EnqueueSweep schedules one cache sweep and returns its job ID.
func (c *Client) EnqueueSweep(trigger string) (string, error) {
	ids, err := c.Enqueue(SweepCacheTask{Trigger: trigger})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// Status returns the status of a job by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.backlite.Status(ctx, taskID)
}

// taskLogger routes backlite logs through the standard logger.
type taskLogger struct{}

func (taskLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (taskLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
