// Package remote defines the three mutation primitives the offline layer
// needs from the remote store, and a dispatcher that replays queued entries
// over them.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/krishi/internal/entities"
)

// ErrRejected matches every *RejectedError.
var ErrRejected = errors.New("remote store rejected mutation")

// RejectedError means the remote store refused a mutation, for example on
// validation. It is not a connectivity failure.
type RejectedError struct {
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote store rejected mutation (%d): %s", e.Status, e.Reason)
	}
	return "remote store rejected mutation: " + e.Reason
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Store is the remote collaborator. Implementations must treat the operation
// ID carried in ctx (see OperationID) as an idempotency key: the queue
// delivers at least once.
type Store interface {
	Create(ctx context.Context, collection entities.Collection, payload []byte) (remoteID string, err error)
	Update(ctx context.Context, collection entities.Collection, remoteID string, payload []byte) error
	Delete(ctx context.Context, collection entities.Collection, remoteID string) error
}

type operationIDKey struct{}

// WithOperationID attaches a queue entry's operation ID to ctx.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey{}, id)
}

// OperationID returns the operation ID attached to ctx, or "".
func OperationID(ctx context.Context) string {
	id, _ := ctx.Value(operationIDKey{}).(string)
	return id
}

// Dispatch performs the remote mutation described by entry. For creates it
// returns the remote ID assigned by the store.
func Dispatch(ctx context.Context, store Store, entry entities.SyncQueueEntry) (string, error) {
	ctx = WithOperationID(ctx, entry.OperationID)

	switch entry.Action {
	case entities.SyncActionCreate:
		return store.Create(ctx, entry.Target, []byte(entry.Payload))
	case entities.SyncActionUpdate:
		if entry.RemoteID == nil {
			return "", fmt.Errorf("update entry %d has no remote id", entry.ID)
		}
		return *entry.RemoteID, store.Update(ctx, entry.Target, *entry.RemoteID, []byte(entry.Payload))
	case entities.SyncActionDelete:
		if entry.RemoteID == nil {
			return "", fmt.Errorf("delete entry %d has no remote id", entry.ID)
		}
		return *entry.RemoteID, store.Delete(ctx, entry.Target, *entry.RemoteID)
	default:
		return "", fmt.Errorf("unknown sync action %q", entry.Action)
	}
}
