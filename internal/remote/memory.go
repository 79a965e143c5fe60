package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mrlokans/krishi/internal/entities"
)

// ErrUnreachable is what MemoryStore returns while it is set offline.
var ErrUnreachable = errors.New("remote store unreachable")

// Call records one mutation received by a MemoryStore.
type Call struct {
	Action      entities.SyncAction
	Collection  entities.Collection
	RemoteID    string
	OperationID string
	Payload     []byte
}

// MemoryStore is an in-process Store used for local development and tests.
// Replaying an operation ID it has already applied returns the first result
// without applying it twice.
type MemoryStore struct {
	mu        sync.Mutex
	docs      map[string][]byte
	applied   map[string]string
	calls     []Call
	reachable bool
	reject    func(Call) *RejectedError
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string][]byte),
		applied:   make(map[string]string),
		reachable: true,
	}
}

// SetReachable toggles simulated network failures.
func (m *MemoryStore) SetReachable(reachable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reachable = reachable
}

// RejectWhen installs a validation hook; a non-nil result rejects the call.
func (m *MemoryStore) RejectWhen(fn func(Call) *RejectedError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reject = fn
}

// Calls returns every call received, including failed ones.
func (m *MemoryStore) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Document returns the current payload stored under remoteID.
func (m *MemoryStore) Document(remoteID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[remoteID]
	return doc, ok
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func (m *MemoryStore) Create(ctx context.Context, collection entities.Collection, payload []byte) (string, error) {
	call := Call{Action: entities.SyncActionCreate, Collection: collection, OperationID: OperationID(ctx), Payload: payload}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.admit(ctx, call); err != nil {
		return "", err
	}
	if id, ok := m.applied[call.OperationID]; ok && call.OperationID != "" {
		return id, nil
	}

	id := uuid.NewString()
	m.docs[id] = append([]byte(nil), payload...)
	if call.OperationID != "" {
		m.applied[call.OperationID] = id
	}
	return id, nil
}

func (m *MemoryStore) Update(ctx context.Context, collection entities.Collection, remoteID string, payload []byte) error {
	call := Call{Action: entities.SyncActionUpdate, Collection: collection, RemoteID: remoteID, OperationID: OperationID(ctx), Payload: payload}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.admit(ctx, call); err != nil {
		return err
	}
	if _, ok := m.docs[remoteID]; !ok {
		return &RejectedError{Status: 404, Reason: fmt.Sprintf("document %s not found", remoteID)}
	}
	m.docs[remoteID] = append([]byte(nil), payload...)
	return nil
}

// Delete removes a document. Deleting a missing document succeeds.
func (m *MemoryStore) Delete(ctx context.Context, collection entities.Collection, remoteID string) error {
	call := Call{Action: entities.SyncActionDelete, Collection: collection, RemoteID: remoteID, OperationID: OperationID(ctx)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.admit(ctx, call); err != nil {
		return err
	}
	delete(m.docs, remoteID)
	return nil
}

// admit records the call and applies simulated failures. Caller holds mu.
func (m *MemoryStore) admit(ctx context.Context, call Call) error {
	m.calls = append(m.calls, call)
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.reachable {
		return ErrUnreachable
	}
	if m.reject != nil {
		if rejected := m.reject(call); rejected != nil {
			return rejected
		}
	}
	return nil
}
