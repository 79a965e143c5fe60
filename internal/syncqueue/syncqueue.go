// Package syncqueue delivers locally applied mutations to the remote store.
//
// Entries are replayed in FIFO order. A failing entry has its retry counter
// bumped and stays queued; the pass moves on to the next entry. Only one
// drain runs at a time.
package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/database/queue"
	"github.com/mrlokans/krishi/internal/entities"
)

var (
	// ErrDrainInProgress is returned when a drain or retry is already running.
	ErrDrainInProgress = errors.New("sync drain already in progress")

	// ErrSkip tells the queue to leave an entry untouched: no delete and no
	// retry increment.
	ErrSkip = errors.New("skip entry")

	// ErrInvalidEntry is returned by NewEntry for an action, collection or
	// remote id combination the queue cannot replay.
	ErrInvalidEntry = errors.New("invalid sync queue entry")
)

// ReplayFunc performs the remote mutation for one entry.
type ReplayFunc func(ctx context.Context, entry entities.SyncQueueEntry) error

// EntryError records the failure of one entry during a pass.
type EntryError struct {
	EntryID uint
	Err     error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.EntryID, e.Err)
}

func (e EntryError) Unwrap() error { return e.Err }

// Result summarizes one drain pass.
type Result struct {
	Attempted int          `json:"attempted"`
	Delivered int          `json:"delivered"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Errors    []EntryError `json:"-"`
}

// LastError returns the most recent entry failure of the pass, or nil.
func (r Result) LastError() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[len(r.Errors)-1]
}

// NewEntry builds a validated entry with a fresh operation ID. Creates must
// not carry a remote ID; updates and deletes must.
func NewEntry(action entities.SyncAction, target entities.Collection, payload []byte, remoteID *string) (*entities.SyncQueueEntry, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidEntry, action)
	}
	if !target.Valid() || target == entities.CollectionSyncQueue {
		return nil, fmt.Errorf("%w: collection %q cannot be synced", ErrInvalidEntry, target)
	}
	hasRemote := remoteID != nil && *remoteID != ""
	switch {
	case action == entities.SyncActionCreate && hasRemote:
		return nil, fmt.Errorf("%w: create must not carry a remote id", ErrInvalidEntry)
	case action != entities.SyncActionCreate && !hasRemote:
		return nil, fmt.Errorf("%w: %s requires a remote id", ErrInvalidEntry, action)
	}

	return &entities.SyncQueueEntry{
		OperationID: uuid.NewString(),
		Action:      action,
		Target:      target,
		RemoteID:    remoteID,
		Payload:     string(payload),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Queue is the durable sync queue.
type Queue struct {
	repo     *queue.Repository
	draining atomic.Bool
}

func New(repo *queue.Repository) *Queue {
	return &Queue{repo: repo}
}

// Enqueue appends an entry with zero retries. It does not attempt delivery.
func (q *Queue) Enqueue(ctx context.Context, action entities.SyncAction, target entities.Collection, payload []byte, remoteID *string) (*entities.SyncQueueEntry, error) {
	entry, err := NewEntry(action, target, payload, remoteID)
	if err != nil {
		return nil, err
	}
	if err := q.repo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Drain replays every pending entry once, oldest first. Per-entry replay
// failures are counted in the result, not returned. Storage failures of the
// queue itself abort the pass and are returned.
//
// Cancelling ctx stops the pass between entries. An entry whose replay has
// started always runs to completion.
func (q *Queue) Drain(ctx context.Context, replay ReplayFunc) (Result, error) {
	if !q.draining.CompareAndSwap(false, true) {
		return Result{}, ErrDrainInProgress
	}
	defer q.draining.Store(false)

	var result Result
	entries, err := q.repo.Pending(ctx)
	if err != nil {
		return result, err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := q.process(ctx, entry, replay, &result); err != nil {
			return result, err
		}
	}

	if result.Attempted > 0 {
		log.Printf("[SYNC] Drain finished: %d delivered, %d failed, %d skipped",
			result.Delivered, result.Failed, result.Skipped)
	}
	return result, nil
}

// Retry replays a single entry immediately, regardless of its retry count.
func (q *Queue) Retry(ctx context.Context, id uint, replay ReplayFunc) (Result, error) {
	if !q.draining.CompareAndSwap(false, true) {
		return Result{}, ErrDrainInProgress
	}
	defer q.draining.Store(false)

	var result Result
	entry, err := q.repo.Get(ctx, id)
	if err != nil {
		return result, err
	}
	err = q.process(ctx, *entry, replay, &result)
	return result, err
}

// process replays one entry and records its outcome. It returns only
// storage errors.
func (q *Queue) process(ctx context.Context, entry entities.SyncQueueEntry, replay ReplayFunc, result *Result) error {
	inflight := context.WithoutCancel(ctx)

	err := replay(inflight, entry)
	if errors.Is(err, ErrSkip) {
		result.Skipped++
		return nil
	}
	result.Attempted++

	if err == nil {
		if err := q.repo.Delete(inflight, entry.ID); err != nil {
			return fmt.Errorf("remove delivered entry %d: %w", entry.ID, err)
		}
		result.Delivered++
		return nil
	}

	result.Failed++
	result.Errors = append(result.Errors, EntryError{EntryID: entry.ID, Err: err})
	log.Printf("[SYNC] Entry %d (%s %s) failed, attempt %d: %v",
		entry.ID, entry.Action, entry.Target, entry.Retries+1, err)

	if err := q.repo.IncrementRetries(inflight, entry.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Discarded while its replay was running.
			return nil
		}
		return fmt.Errorf("record failure of entry %d: %w", entry.ID, err)
	}
	return nil
}

// PendingCount returns the number of undelivered entries.
func (q *Queue) PendingCount(ctx context.Context) (int64, error) {
	return q.repo.Count(ctx)
}

// Pending lists undelivered entries in FIFO order.
func (q *Queue) Pending(ctx context.Context) ([]entities.SyncQueueEntry, error) {
	return q.repo.Pending(ctx)
}

// StuckCount returns how many entries have failed at least maxRetries times.
func (q *Queue) StuckCount(ctx context.Context, maxRetries int) (int64, error) {
	if maxRetries <= 0 {
		return 0, nil
	}
	return q.repo.CountAtLeastRetries(ctx, maxRetries)
}

// Stuck lists entries that have failed at least maxRetries times.
func (q *Queue) Stuck(ctx context.Context, maxRetries int) ([]entities.SyncQueueEntry, error) {
	if maxRetries <= 0 {
		return []entities.SyncQueueEntry{}, nil
	}
	return q.repo.AtLeastRetries(ctx, maxRetries)
}

// Remove deletes an entry without delivering it.
func (q *Queue) Remove(ctx context.Context, id uint) error {
	if _, err := q.repo.Get(ctx, id); err != nil {
		return err
	}
	return q.repo.Delete(ctx, id)
}

// Draining reports whether a pass is running.
func (q *Queue) Draining() bool {
	return q.draining.Load()
}
