package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// StatusRefresher re-reads the sync queue counters.
type StatusRefresher interface {
	RefreshStatus(ctx context.Context) error
}

// SweepFunc starts a cache sweep, either inline or by enqueuing a job.
type SweepFunc func(ctx context.Context) error

// Config controls the periodic jobs.
type Config struct {
	// ReconcileInterval is how often the pending count is re-read. Default: 30s
	ReconcileInterval time.Duration
	// SweepSchedule is a cron expression for cache sweeps. Empty disables
	// them. Default: "@hourly"
	SweepSchedule string
}

func DefaultConfig() Config {
	return Config{
		ReconcileInterval: 30 * time.Second,
		SweepSchedule:     "@hourly",
	}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Reconciler keeps the sync indicator honest even when a connectivity event
// is missed, and runs periodic cache sweeps.
type Reconciler struct {
	cfg       Config
	refresher StatusRefresher
	sweep     SweepFunc

	cron       *cron.Cron
	reconcile  cron.EntryID
	sweepEntry cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	runCtx     context.Context
	cancelFunc context.CancelFunc
}

// New creates a reconciler. sweep may be nil.
func New(cfg Config, refresher StatusRefresher, sweep SweepFunc) *Reconciler {
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = DefaultConfig().ReconcileInterval
	}
	return &Reconciler{
		cfg:       cfg,
		refresher: refresher,
		sweep:     sweep,
		cron:      cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the jobs and begins running them. Jobs stop when ctx is
// done or Stop is called.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return nil
	}
	if r.sweep != nil && r.cfg.SweepSchedule != "" {
		if err := ValidateSchedule(r.cfg.SweepSchedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s': %w", r.cfg.SweepSchedule, err)
		}
	}

	jobCtx, cancel := context.WithCancel(ctx)

	every := fmt.Sprintf("@every %s", r.cfg.ReconcileInterval)
	id, err := r.cron.AddFunc(every, func() { r.runReconcile(jobCtx) })
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}
	r.reconcile = id

	if r.sweep != nil && r.cfg.SweepSchedule != "" {
		sweepID, err := r.cron.AddFunc(r.cfg.SweepSchedule, func() { r.runSweep(jobCtx) })
		if err != nil {
			r.cron.Remove(id)
			cancel()
			return fmt.Errorf("failed to schedule cache sweep: %w", err)
		}
		r.sweepEntry = sweepID
	}

	r.runCtx, r.cancelFunc = jobCtx, cancel
	r.cron.Start()
	r.isRunning = true
	log.Printf("Reconciler: started, pending count every %s, cache sweep '%s'",
		r.cfg.ReconcileInterval, r.cfg.SweepSchedule)

	go func() {
		<-jobCtx.Done()
		r.stop(jobCtx)
	}()
	return nil
}

// Stop cancels running jobs, waits for them and stops the scheduler.
func (r *Reconciler) Stop() {
	r.stop(nil)
}

// stop stops the current run. A non-nil run only stops the run it names.
func (r *Reconciler) stop(run context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning || (run != nil && run != r.runCtx) {
		return
	}

	r.cancelFunc()
	done := r.cron.Stop()
	<-done.Done()
	r.cron.Remove(r.reconcile)
	if r.sweepEntry != 0 {
		r.cron.Remove(r.sweepEntry)
		r.sweepEntry = 0
	}

	r.isRunning = false
	r.runCtx, r.cancelFunc = nil, nil
	log.Printf("Reconciler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (r *Reconciler) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRunning
}

// NextSweep returns when the next cache sweep will run, or nil.
func (r *Reconciler) NextSweep() *time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.isRunning || r.sweepEntry == 0 {
		return nil
	}
	t := r.cron.Entry(r.sweepEntry).Next
	return &t
}

func (r *Reconciler) runReconcile(ctx context.Context) {
	if err := r.refresher.RefreshStatus(ctx); err != nil {
		log.Printf("Reconciler: failed to refresh sync status: %v", err)
	}
}

func (r *Reconciler) runSweep(ctx context.Context) {
	if err := r.sweep(ctx); err != nil {
		log.Printf("Reconciler: cache sweep failed: %v", err)
	}
}
