package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/offline"
)

func setupHealthTestDB(t *testing.T) (*database.Store, func()) {
	t.Helper()
	store := database.New(filepath.Join(t.TempDir(), "health.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, store.Init())
	return store, func() { store.Shutdown() }
}

func getHealth(t *testing.T, controller *HealthController) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is open", func(t *testing.T) {
		store, cleanup := setupHealthTestDB(t)
		defer cleanup()

		w, response := getHealth(t, NewHealthController(store, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "ok", response.Checks["database"])
	})

	t.Run("returns healthy when database is not configured", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(nil, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "not configured", response.Checks["database"])
	})

	t.Run("returns unhealthy when database is closed", func(t *testing.T) {
		store, _ := setupHealthTestDB(t)
		require.NoError(t, store.Shutdown())

		w, response := getHealth(t, NewHealthController(store, nil, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("includes version and timestamp", func(t *testing.T) {
		store, cleanup := setupHealthTestDB(t)
		defer cleanup()

		_, response := getHealth(t, NewHealthController(store, nil, "2.5.3"))

		assert.Equal(t, "2.5.3", response.Version)
		assert.Contains(t, response.Time, "T")
	})
}

func TestHealthResponse_OmitsEmptyVersion(t *testing.T) {
	jsonBytes, err := json.Marshal(HealthResponse{Status: "healthy", Checks: map[string]string{}})
	require.NoError(t, err)
	assert.NotContains(t, string(jsonBytes), "version")
}

type fixedStatus offline.Status

func (f fixedStatus) Status() offline.Status { return offline.Status(f) }

func TestHealthController_SyncStatus(t *testing.T) {
	store, cleanup := setupHealthTestDB(t)
	defer cleanup()

	t.Run("reports pending entries", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(store, fixedStatus{Pending: 3}, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, response.Sync)
		assert.Equal(t, int64(3), response.Sync.Pending)
		assert.Equal(t, "ok", response.Checks["sync"])
	})

	t.Run("stuck entries stay healthy", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(store, fixedStatus{Pending: 2, Stuck: 2}, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "2 entries need attention", response.Checks["sync"])
	})

	t.Run("last error is surfaced", func(t *testing.T) {
		_, response := getHealth(t, NewHealthController(store, fixedStatus{LastError: "remote rejected"}, "1.0.0"))

		assert.Equal(t, "last pass failed: remote rejected", response.Checks["sync"])
	})

	t.Run("omitted without a reporter", func(t *testing.T) {
		_, response := getHealth(t, NewHealthController(store, nil, "1.0.0"))

		assert.Nil(t, response.Sync)
		assert.NotContains(t, response.Checks, "sync")
	})
}
