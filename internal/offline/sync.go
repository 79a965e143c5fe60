package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/database/ledger"
	"github.com/mrlokans/krishi/internal/database/queue"
	"github.com/mrlokans/krishi/internal/entities"
	"github.com/mrlokans/krishi/internal/remote"
	"github.com/mrlokans/krishi/internal/syncqueue"
)

// Status drives the sync indicator.
type Status struct {
	Online  bool  `json:"online"`
	Pending int64 `json:"pending"`
	// Stuck counts entries that reached MaxRetries and need the user.
	Stuck    int64 `json:"stuck"`
	Draining bool  `json:"draining"`
	// Unlocked reports whether ledger amounts can be read and written.
	Unlocked      bool      `json:"unlocked"`
	SecretChanged bool      `json:"secret_changed"`
	LastDrainAt   time.Time `json:"last_drain_at"`
	LastError     string    `json:"last_error,omitempty"`
}

// Status returns the last known sync status without touching the store.
func (f *Facade) Status() Status {
	f.statusMu.Lock()
	defer f.statusMu.Unlock()
	s := f.status
	s.Online = f.monitor.Online()
	s.Draining = f.queue.Draining()
	s.Unlocked = f.crypto.Ready()
	return s
}

// RefreshStatus re-reads the pending and stuck counts and notifies status
// subscribers if anything changed.
func (f *Facade) RefreshStatus(ctx context.Context) error {
	pending, err := f.queue.PendingCount(ctx)
	if err != nil {
		return err
	}
	stuck, err := f.queue.StuckCount(ctx, f.cfg.MaxRetries)
	if err != nil {
		return err
	}
	f.updateStatus(func(s *Status) {
		s.Pending = pending
		s.Stuck = stuck
	})
	return nil
}

// PendingCount returns the number of undelivered queue entries.
func (f *Facade) PendingCount(ctx context.Context) (int64, error) {
	return f.queue.PendingCount(ctx)
}

// SubscribeStatus registers fn for status changes and returns a function
// that unregisters it.
func (f *Facade) SubscribeStatus(fn func(Status)) (unsubscribe func()) {
	f.statusMu.Lock()
	id := f.nextListenerID
	f.nextListenerID++
	f.statusListeners[id] = fn
	f.statusMu.Unlock()

	return func() {
		f.statusMu.Lock()
		delete(f.statusListeners, id)
		f.statusMu.Unlock()
	}
}

func (f *Facade) updateStatus(mutate func(*Status)) {
	f.statusMu.Lock()
	before := f.status
	mutate(&f.status)
	f.status.Online = f.monitor.Online()
	f.status.Draining = f.queue.Draining()
	f.status.Unlocked = f.crypto.Ready()
	after := f.status
	listeners := make([]func(Status), 0, len(f.statusListeners))
	for _, l := range f.statusListeners {
		listeners = append(listeners, l)
	}
	f.statusMu.Unlock()

	if before == after {
		return
	}
	for _, l := range listeners {
		l(after)
	}
}

// SyncNow runs one drain pass. It fails with ErrOffline while the monitor
// reports offline and with syncqueue.ErrDrainInProgress if a pass is running.
func (f *Facade) SyncNow(ctx context.Context) (syncqueue.Result, error) {
	if f.remote == nil {
		return syncqueue.Result{}, ErrNoRemote
	}
	if !f.monitor.Online() {
		return syncqueue.Result{}, ErrOffline
	}

	result, err := f.queue.Drain(ctx, f.replay)
	if errors.Is(err, syncqueue.ErrDrainInProgress) {
		return result, err
	}
	f.recordPass(ctx, result, err)
	return result, err
}

// StuckEntries lists entries no longer replayed automatically.
func (f *Facade) StuckEntries(ctx context.Context) ([]entities.SyncQueueEntry, error) {
	return f.queue.Stuck(ctx, f.cfg.MaxRetries)
}

// PendingEntries lists every undelivered entry in replay order.
func (f *Facade) PendingEntries(ctx context.Context) ([]entities.SyncQueueEntry, error) {
	return f.queue.Pending(ctx)
}

// DiscardEntry drops a queued mutation without delivering it. A discarded
// ledger create leaves the local row unsynced.
func (f *Facade) DiscardEntry(ctx context.Context, id uint) error {
	if err := f.queue.Remove(ctx, id); err != nil {
		return err
	}
	log.Printf("[SYNC] Entry %d discarded by user", id)
	return f.RefreshStatus(ctx)
}

// RetryEntry replays one entry immediately, ignoring MaxRetries.
func (f *Facade) RetryEntry(ctx context.Context, id uint) (syncqueue.Result, error) {
	if f.remote == nil {
		return syncqueue.Result{}, ErrNoRemote
	}
	if !f.monitor.Online() {
		return syncqueue.Result{}, ErrOffline
	}
	result, err := f.queue.Retry(ctx, id, f.deliver)
	if errors.Is(err, syncqueue.ErrDrainInProgress) {
		return result, err
	}
	f.recordPass(ctx, result, err)
	return result, err
}

func (f *Facade) recordPass(ctx context.Context, result syncqueue.Result, err error) {
	lastErr := err
	if lastErr == nil {
		lastErr = result.LastError()
	}
	f.updateStatus(func(s *Status) {
		s.LastDrainAt = f.now()
		s.LastError = ""
		if lastErr != nil {
			s.LastError = lastErr.Error()
		}
	})
	if err := f.RefreshStatus(context.WithoutCancel(ctx)); err != nil {
		log.Printf("[SYNC] Failed to refresh sync status: %v", err)
	}
}

// replay is the drain callback: entries past the retry ceiling are left for
// the user.
func (f *Facade) replay(ctx context.Context, entry entities.SyncQueueEntry) error {
	if f.cfg.MaxRetries > 0 && entry.Retries >= f.cfg.MaxRetries {
		return syncqueue.ErrSkip
	}
	return f.deliver(ctx, entry)
}

func (f *Facade) deliver(ctx context.Context, entry entities.SyncQueueEntry) error {
	if f.cfg.ReplayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.ReplayTimeout)
		defer cancel()
	}

	if entry.Target == entities.CollectionTransactions && entry.Action == entities.SyncActionCreate {
		return f.replayTransactionCreate(ctx, entry)
	}
	_, err := remote.Dispatch(ctx, f.remote, entry)
	return err
}

// replayTransactionCreate sends the current state of the row, so edits made
// before the first sync ride along with the create.
func (f *Facade) replayTransactionCreate(ctx context.Context, entry entities.SyncQueueEntry) error {
	var queued transactionPayload
	if err := json.Unmarshal([]byte(entry.Payload), &queued); err != nil {
		return fmt.Errorf("decode payload of entry %d: %w", entry.ID, err)
	}

	row, err := f.ledger.Get(ctx, queued.LocalID)
	if errors.Is(err, database.ErrNotFound) {
		log.Printf("[SYNC] Transaction %d was deleted before sync, dropping create", queued.LocalID)
		return nil
	}
	if err != nil {
		return err
	}
	if row.Synced {
		return nil
	}

	body, err := json.Marshal(payloadFor(row))
	if err != nil {
		return err
	}
	remoteID, err := f.remote.Create(remote.WithOperationID(ctx, entry.OperationID), entry.Target, body)
	if err != nil {
		return err
	}
	return f.settleCreate(ctx, row.ID, remoteID, body)
}

// settleCreate records a delivered create against the row as it is now. The
// row may have been edited or deleted while the create was in flight: an
// edit queues an update with the current values, a delete queues a remote
// delete for the new document.
func (f *Facade) settleCreate(ctx context.Context, localID uint, remoteID string, sent []byte) error {
	var followUp entities.SyncAction
	err := f.store.Atomic(ctx, func(tx *database.Store) error {
		repo := ledger.NewRepository(tx)
		current, err := repo.Get(ctx, localID)
		if errors.Is(err, database.ErrNotFound) {
			entry, err := syncqueue.NewEntry(entities.SyncActionDelete, entities.CollectionTransactions, nil, &remoteID)
			if err != nil {
				return err
			}
			followUp = entities.SyncActionDelete
			return queue.NewRepository(tx).Append(ctx, entry)
		}
		if err != nil {
			return err
		}

		if err := repo.MarkSynced(ctx, localID, remoteID); err != nil {
			return err
		}
		current.RemoteID = &remoteID
		now, err := json.Marshal(payloadFor(current))
		if err != nil {
			return err
		}
		if bytes.Equal(now, sent) {
			return nil
		}
		followUp = entities.SyncActionUpdate
		return enqueueFor(ctx, tx, entities.SyncActionUpdate, current)
	})
	if err != nil {
		return err
	}

	if followUp != "" {
		log.Printf("[SYNC] Transaction %d changed while its create was in flight, queued %s", localID, followUp)
		f.scheduleDrain()
	}
	return nil
}
