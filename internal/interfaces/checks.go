package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/krishi/internal/connectivity"
	"github.com/mrlokans/krishi/internal/crypto"
	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/database/preferences"
	"github.com/mrlokans/krishi/internal/exporters"
	"github.com/mrlokans/krishi/internal/http"
	"github.com/mrlokans/krishi/internal/offline"
	"github.com/mrlokans/krishi/internal/remote"
	"github.com/mrlokans/krishi/internal/scheduler"
	"github.com/mrlokans/krishi/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// SecretHashStore implementations
var _ crypto.SecretHashStore = (*preferences.Repository)(nil)

// =============================================================================
// Remote Store
// =============================================================================

var _ remote.Store = (*remote.MemoryStore)(nil)

// =============================================================================
// Facade Services
// =============================================================================

var _ http.LedgerService = (*offline.Facade)(nil)
var _ http.CacheService = (*offline.Facade)(nil)
var _ http.SyncService = (*offline.Facade)(nil)
var _ http.SessionService = (*offline.Facade)(nil)
var _ http.StatusReporter = (*offline.Facade)(nil)
var _ http.ConnectivitySink = (*connectivity.Monitor)(nil)
var _ http.Pinger = (*database.Store)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.CacheSweeper = (*offline.Facade)(nil)
var _ scheduler.StatusRefresher = (*offline.Facade)(nil)

// =============================================================================
// Export
// =============================================================================

var _ exporters.DataExporter = (*exporters.SnapshotExporter)(nil)
var _ exporters.DataExporter = (*exporters.MarkdownExporter)(nil)
