// Package database provides the on-device data layer for the application.
//
// # Architecture
//
// The database layer is organized into collection-specific sub-packages:
//
//	database/
//	├── database.go      # Store lifecycle: Init, Shutdown, Conn, Atomic
//	├── collections.go   # Table, natural key and recency column per collection
//	├── operations.go    # Generic UpsertMany, QueryRecent, Search, DeleteOlderThan
//	├── errors.go        # Storage error taxonomy and driver error mapping
//	├── prices/          # Cached market prices
//	├── weather/         # Cached weather payloads
//	├── lessons/         # Lesson progress
//	├── ledger/          # Encrypted transaction ledger
//	├── preferences/     # Key-value preferences
//	└── queue/           # Sync queue entries
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type bound to a shared *Store:
//
//	store := database.New("./krishi.db", database.Options{})
//	if err := store.Init(); err != nil {
//		return err
//	}
//	defer store.Shutdown()
//
//	prices := prices.NewRepository(store)
//	rows, err := prices.Recent(ctx, 20)
//
// # Errors
//
// Every driver failure leaves this package classified: ErrStorageUnavailable
// for a closed, busy or failing store, ErrQuotaExceeded when the device is
// full and ErrNotFound for keyed lookups that match nothing. Callers test
// with errors.Is.
//
// # Adding a New Collection
//
//  1. Add the entity to internal/entities with TableName and Collection
//  2. Register it in collections.go and add the model to models()
//  3. Create a sub-package with a Repository built on the generic operations
//  4. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
