package http

import (
	"github.com/mrlokans/krishi/internal/exporters"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies. *offline.Facade satisfies all four services.
	Ledger  LedgerService
	Cache   CacheService
	Sync    SyncService
	Session SessionService

	// Native connectivity signal sink
	Connectivity ConnectivitySink

	// Health check target
	Database Pinger

	// Export destination (optional)
	Exporter exporters.DataExporter

	// Task queue client (optional)
	TaskClient TaskQueue

	// Application info
	Version string

	// RequestLogging enables gin's access log.
	RequestLogging bool
}
