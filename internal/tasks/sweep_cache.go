package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/krishi/internal/offline"
)

// CacheSweeper deletes expired cache rows.
type CacheSweeper interface {
	SweepCaches(ctx context.Context, now time.Time) (offline.SweepResult, error)
}

// SweepCacheTask purges prices and weather past their retention.
type SweepCacheTask struct {
	// Trigger names what enqueued the sweep, for the log.
	Trigger string `json:"trigger,omitempty"`
}

// Config returns the queue configuration for cache sweeps.
func (t SweepCacheTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sweep_cache",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   6 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepCacheProcessor creates the processor for SweepCacheTask.
func SweepCacheProcessor(sweeper CacheSweeper) backlite.QueueProcessor[SweepCacheTask] {
	return func(ctx context.Context, task SweepCacheTask) error {
		if sweeper == nil {
			return fmt.Errorf("cache sweeper not configured")
		}

		result, err := sweeper.SweepCaches(ctx, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("sweep caches: %w", err)
		}

		trigger := task.Trigger
		if trigger == "" {
			trigger = "manual"
		}
		log.Printf("[TASK] Swept %d prices and %d weather entries (%s)", result.Prices, result.Weather, trigger)
		return nil
	}
}

// NewSweepCacheQueue creates a backlite queue for cache sweeps.
func NewSweepCacheQueue(sweeper CacheSweeper) backlite.Queue {
	return backlite.NewQueue(SweepCacheProcessor(sweeper))
}
