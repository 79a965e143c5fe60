package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if cfg.RequestLogging {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Sync, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Ledger
	if cfg.Ledger != nil {
		ledger := NewLedgerController(cfg.Ledger)
		api.GET("/ledger", ledger.ListTransactions)
		api.POST("/ledger", ledger.AddTransaction)
		api.GET("/ledger/:id", ledger.GetTransaction)
		api.PATCH("/ledger/:id", ledger.UpdateTransaction)
		api.DELETE("/ledger/:id", ledger.DeleteTransaction)
		api.GET("/balance", ledger.GetBalance)
	}

	// Caches, lessons and preferences
	if cfg.Cache != nil {
		cache := NewCacheController(cfg.Cache)
		api.GET("/prices", cache.ListPrices)
		api.PUT("/prices", cache.StorePrices)
		api.GET("/prices/lookup", cache.LookupPrice)
		api.GET("/weather/:location", cache.GetWeather)
		api.PUT("/weather/:location", cache.StoreWeather)
		api.POST("/cache/sweep", cache.SweepCaches)

		api.GET("/lessons", cache.ListLessons)
		api.GET("/lessons/:id", cache.GetLesson)
		api.POST("/lessons/:id/progress", cache.RecordProgress)

		api.GET("/preferences", cache.ListPreferences)
		api.GET("/preferences/:key", cache.GetPreference)
		api.PUT("/preferences/:key", cache.SetPreference)

		api.GET("/collections/:collection/recent", cache.RecentRows)
	}

	// Sync queue
	if cfg.Sync != nil {
		sync := NewSyncController(cfg.Sync)
		api.GET("/sync/status", sync.GetStatus)
		api.POST("/sync/now", sync.SyncNow)
		api.GET("/sync/entries", sync.ListEntries)
		api.DELETE("/sync/entries/:id", sync.DiscardEntry)
		api.POST("/sync/entries/:id/retry", sync.RetryEntry)
	}

	// Session, export and wipe
	if cfg.Session != nil {
		session := NewSessionController(cfg.Session, cfg.Exporter)
		api.POST("/session/unlock", session.Unlock)
		api.POST("/session/restore", session.Restore)
		api.POST("/session/lock", session.Lock)
		api.POST("/export", session.Export)
		api.POST("/wipe", session.Wipe)
	}

	if cfg.Connectivity != nil {
		connectivity := NewConnectivityController(cfg.Connectivity)
		api.GET("/connectivity", connectivity.GetConnectivity)
		api.POST("/connectivity", connectivity.SetConnectivity)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
