// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - SecretHashStore: persists the per-user secret check hash (internal/crypto/service.go)
//   - CacheSweeper: deletes expired cache rows (internal/tasks/sweep_cache.go)
//   - StatusRefresher: re-reads sync queue counters (internal/scheduler/reconciler.go)
//
// ## Remote Store Interface
//
//   - remote.Store: create, update and delete documents on the server
//     (internal/remote/remote.go). Every call carries the queue entry's
//     operation ID, see remote.OperationID.
//
// ## API Service Interfaces
//
//   - LedgerService, CacheService, SyncService, SessionService: the facade
//     operations each controller uses (internal/http/stores.go)
//   - ConnectivitySink: receives the platform network signal
//   - TaskQueue: enqueues and inspects background jobs
//
// ## Export Interfaces
//
//   - DataExporter: writes a user-data export (internal/exporters/generic.go)
//
// # Adding a Remote Store
//
// To replay the sync queue against a real server:
//
//  1. Implement remote.Store in internal/remote/
//
//     type FirestoreStore struct {
//         client *firestore.Client
//     }
//
//     func (s *FirestoreStore) Create(ctx context.Context, c entities.Collection, payload []byte) (string, error)
//     func (s *FirestoreStore) Update(ctx context.Context, c entities.Collection, remoteID string, payload []byte) error
//     func (s *FirestoreStore) Delete(ctx context.Context, c entities.Collection, remoteID string) error
//
//     Use remote.OperationID(ctx) as the idempotency key so a replay after a
//     lost response does not create a duplicate. Return a *remote.RejectedError
//     when the server refuses a mutation so it counts as a failed attempt.
//
//  2. Add a SYNC_REMOTE mode in internal/config and construct it in
//     entrypoint.newRemote
//
// # Adding a Collection
//
//  1. Define the entity in internal/entities/ with TableName and Collection
//  2. Register table, key columns and recency column in
//     internal/database/collections.go and add the model to database.models
//  3. Create sub-package internal/database/<name>/ with a Repository built on
//     the generic operations (UpsertMany, QueryRecent, Search, DeleteOlderThan)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
