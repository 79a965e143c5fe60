package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/krishi/internal/connectivity"
	"github.com/mrlokans/krishi/internal/crypto"
	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/database/preferences"
	"github.com/mrlokans/krishi/internal/exporters"
	"github.com/mrlokans/krishi/internal/offline"
	"github.com/mrlokans/krishi/internal/remote"
	"github.com/mrlokans/krishi/internal/tasks"
)

type apiEnv struct {
	router    *gin.Engine
	facade    *offline.Facade
	monitor   *connectivity.Monitor
	remote    *remote.MemoryStore
	exportDir string
}

func setupTestAPI(t *testing.T) (*apiEnv, func()) {
	t.Helper()
	dir := t.TempDir()
	store := database.New(filepath.Join(dir, "api.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, store.Init())

	enc := crypto.NewService(preferences.NewRepository(store), crypto.MinIterations)
	monitor := connectivity.NewMonitor(false)
	remoteStore := remote.NewMemoryStore()
	facade := offline.New(store, enc, monitor, remoteStore, offline.DefaultConfig())
	facade.Start(context.Background())

	exportDir := filepath.Join(dir, "exports")
	env := &apiEnv{
		router: NewRouter(RouterConfig{
			Ledger:       facade,
			Cache:        facade,
			Sync:         facade,
			Session:      facade,
			Connectivity: monitor,
			Database:     store,
			Exporter:     exporters.NewSnapshotExporter(exportDir),
			Version:      "test",
		}),
		facade:    facade,
		monitor:   monitor,
		remote:    remoteStore,
		exportDir: exportDir,
	}
	cleanup := func() {
		facade.Stop()
		facade.Wait()
		store.Shutdown()
	}
	return env, cleanup
}

func (env *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (env *apiEnv) unlock(t *testing.T) {
	t.Helper()
	w := env.do(t, "POST", "/api/session/unlock", gin.H{"user_id": "farmer-1", "secret": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLedgerAPI(t *testing.T) {
	t.Run("locked ledger rejects writes", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()

		w := env.do(t, "POST", "/api/ledger", gin.H{"type": "expense", "amount": "500", "description": "Fertilizer"})

		assert.Equal(t, http.StatusLocked, w.Code)
		assert.Equal(t, "locked", decode[ErrorResponse](t, w).Code)
	})

	t.Run("add, get, list and balance", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()
		env.unlock(t)

		w := env.do(t, "POST", "/api/ledger", gin.H{"type": "income", "amount": "1200.50", "description": "Wheat sale"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created := decode[offline.TransactionView](t, w)
		require.NotNil(t, created.Amount)
		assert.Equal(t, "1200.5", created.Amount.String())

		w = env.do(t, "POST", "/api/ledger", gin.H{"type": "expense", "amount": 500, "description": "Fertilizer"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(t, "GET", "/api/ledger/1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Wheat sale", decode[offline.TransactionView](t, w).Description)

		w = env.do(t, "GET", "/api/ledger?limit=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[struct {
			Transactions []offline.TransactionView `json:"transactions"`
			Count        int                      `json:"count"`
		}](t, w)
		assert.Equal(t, 2, list.Count)

		w = env.do(t, "GET", "/api/ledger?q=fert", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Fertilizer")
		assert.NotContains(t, w.Body.String(), "Wheat sale")

		w = env.do(t, "GET", "/api/balance", nil)
		require.Equal(t, http.StatusOK, w.Code)
		balance := decode[BalanceResponse](t, w)
		assert.Equal(t, "700.5", balance.Net.String())
		assert.True(t, balance.Complete)
	})

	t.Run("update and delete", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()
		env.unlock(t)

		require.Equal(t, http.StatusCreated,
			env.do(t, "POST", "/api/ledger", gin.H{"type": "expense", "amount": "80", "description": "Diesel"}).Code)

		w := env.do(t, "PATCH", "/api/ledger/1", gin.H{"amount": "95", "description": "Diesel 2L"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[offline.TransactionView](t, w)
		assert.Equal(t, "95", updated.Amount.String())
		assert.Equal(t, "Diesel 2L", updated.Description)

		assert.Equal(t, http.StatusOK, env.do(t, "DELETE", "/api/ledger/1", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/ledger/1", nil).Code)
	})

	t.Run("validation", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()
		env.unlock(t)

		assert.Equal(t, http.StatusBadRequest,
			env.do(t, "POST", "/api/ledger", gin.H{"type": "gift", "amount": "10"}).Code)
		assert.Equal(t, http.StatusBadRequest,
			env.do(t, "POST", "/api/ledger", gin.H{"type": "expense", "amount": "-10"}).Code)
		assert.Equal(t, http.StatusBadRequest,
			env.do(t, "POST", "/api/ledger", "{not json").Code)
		assert.Equal(t, http.StatusBadRequest,
			env.do(t, "GET", "/api/ledger/abc", nil).Code)
	})
}

func TestOfflineWriteSyncsOnConnectivityEvent(t *testing.T) {
	env, cleanup := setupTestAPI(t)
	defer cleanup()
	env.unlock(t)

	require.Equal(t, http.StatusCreated,
		env.do(t, "POST", "/api/ledger", gin.H{"type": "expense", "amount": "500", "description": "Fertilizer"}).Code)

	w := env.do(t, "GET", "/api/sync/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[offline.Status](t, w)
	assert.False(t, status.Online)
	assert.Equal(t, int64(1), status.Pending)

	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, "POST", "/api/sync/now", nil).Code)

	w = env.do(t, "POST", "/api/connectivity", gin.H{"online": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"changed":true`)

	assert.Eventually(t, func() bool {
		return env.remote.Len() == 1
	}, 5*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		w := env.do(t, "GET", "/api/sync/status", nil)
		return decode[offline.Status](t, w).Pending == 0
	}, 5*time.Second, 20*time.Millisecond)

	w = env.do(t, "GET", "/api/ledger/1", nil)
	assert.True(t, decode[offline.TransactionView](t, w).Synced)
}

func TestSyncAPI(t *testing.T) {
	t.Run("sync now delivers and reports the pass", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()
		env.unlock(t)

		env.remote.SetReachable(false)
		env.monitor.Set(true)
		require.Equal(t, http.StatusCreated,
			env.do(t, "POST", "/api/ledger", gin.H{"type": "income", "amount": "10"}).Code)

		env.remote.SetReachable(true)
		assert.Eventually(t, func() bool {
			w := env.do(t, "POST", "/api/sync/now", nil)
			if w.Code != http.StatusOK {
				return false
			}
			return env.remote.Len() == 1
		}, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("list, retry and discard entries", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()
		env.unlock(t)

		require.Equal(t, http.StatusCreated,
			env.do(t, "POST", "/api/ledger", gin.H{"type": "income", "amount": "10"}).Code)

		w := env.do(t, "GET", "/api/sync/entries", nil)
		require.Equal(t, http.StatusOK, w.Code)
		entries := decode[struct {
			Count int `json:"count"`
		}](t, w)
		assert.Equal(t, 1, entries.Count)

		w = env.do(t, "GET", "/api/sync/entries?stuck=true", nil)
		assert.Equal(t, 0, decode[struct {
			Count int `json:"count"`
		}](t, w).Count)

		assert.Equal(t, http.StatusServiceUnavailable, env.do(t, "POST", "/api/sync/entries/1/retry", nil).Code)

		assert.Equal(t, http.StatusOK, env.do(t, "DELETE", "/api/sync/entries/1", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, "DELETE", "/api/sync/entries/1", nil).Code)
	})
}

func TestCacheAPI(t *testing.T) {
	t.Run("prices", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()

		w := env.do(t, "GET", "/api/prices", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[offline.PriceList](t, w).Stale, "an empty cache is stale")

		body := `[{"commodity":"Onion","market":"Lasalgaon","district":"Nashik","state":"MH","modal_price":"1850"}]`
		require.Equal(t, http.StatusOK, env.do(t, "PUT", "/api/prices", body).Code)
		require.Equal(t, http.StatusOK, env.do(t, "PUT", "/api/prices", body).Code)

		w = env.do(t, "GET", "/api/prices", nil)
		list := decode[offline.PriceList](t, w)
		require.Len(t, list.Prices, 1)
		assert.False(t, list.Stale)

		w = env.do(t, "GET", "/api/prices/lookup?commodity=Onion&market=Lasalgaon&district=Nashik&state=MH", nil)
		require.Equal(t, http.StatusOK, w.Code)
		lookup := decode[offline.PriceLookup](t, w)
		require.NotNil(t, lookup.Price)
		assert.Equal(t, "1850", lookup.Price.ModalPrice.String())

		assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/api/prices/lookup?commodity=Onion", nil).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, "PUT", "/api/prices", `[{"market":"x"}]`).Code)
	})

	t.Run("weather", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()

		w := env.do(t, "GET", "/api/weather/Nashik", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[offline.WeatherLookup](t, w).Stale)

		require.Equal(t, http.StatusOK, env.do(t, "PUT", "/api/weather/Nashik", `{"temp_c":31}`).Code)
		w = env.do(t, "GET", "/api/weather/Nashik", nil)
		lookup := decode[offline.WeatherLookup](t, w)
		require.NotNil(t, lookup.Weather)
		assert.JSONEq(t, `{"temp_c":31}`, lookup.Weather.Payload)
		assert.False(t, lookup.Stale)

		assert.Equal(t, http.StatusBadRequest, env.do(t, "PUT", "/api/weather/Nashik", "not json").Code)
	})

	t.Run("lessons and preferences", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()

		w := env.do(t, "POST", "/api/lessons/soil-101/progress", gin.H{"progress": 1})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"completed":true`)
		assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/lessons/soil-101/progress", gin.H{"progress": 2}).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/lessons/missing", nil).Code)

		require.Equal(t, http.StatusOK, env.do(t, "PUT", "/api/preferences/language", `"hi"`).Code)
		w = env.do(t, "GET", "/api/preferences/language", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"value":"hi"`)
		assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/preferences/district", nil).Code)
		assert.Equal(t, http.StatusBadRequest,
			env.do(t, "PUT", "/api/preferences/encryption_secret_hash:farmer-1", `"x"`).Code)

		assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/collections/lessons/recent", nil).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/api/collections/tractors/recent", nil).Code)
	})
}

func TestSessionAPI(t *testing.T) {
	t.Run("unlock requires user and secret", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()

		assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/session/unlock", gin.H{"user_id": "farmer-1"}).Code)
	})

	t.Run("unlock reports a changed secret", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()

		w := env.do(t, "POST", "/api/session/unlock", gin.H{"user_id": "farmer-1", "secret": "one"})
		assert.True(t, decode[crypto.InitResult](t, w).FirstUse)

		w = env.do(t, "POST", "/api/session/unlock", gin.H{"user_id": "farmer-1", "secret": "two"})
		assert.True(t, decode[crypto.InitResult](t, w).SecretChanged)
	})

	t.Run("restore and lock", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()

		require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/session/restore", gin.H{"user_id": "google-123"}).Code)
		assert.True(t, env.facade.Status().Unlocked)

		require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/session/lock", nil).Code)
		assert.False(t, env.facade.Status().Unlocked)
	})

	t.Run("export writes a file", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()
		env.unlock(t)
		require.Equal(t, http.StatusCreated,
			env.do(t, "POST", "/api/ledger", gin.H{"type": "income", "amount": "10"}).Code)

		w := env.do(t, "POST", "/api/export", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decode[exporters.ExportResult](t, w)
		assert.Equal(t, 1, result.TransactionsExported)
		assert.FileExists(t, result.Path)
		assert.Equal(t, env.exportDir, filepath.Dir(result.Path))
	})

	t.Run("wipe needs confirmation", func(t *testing.T) {
		env, cleanup := setupTestAPI(t)
		defer cleanup()
		env.unlock(t)
		require.Equal(t, http.StatusCreated,
			env.do(t, "POST", "/api/ledger", gin.H{"type": "income", "amount": "10"}).Code)

		assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/wipe", nil).Code)
		require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/wipe", gin.H{"confirm": true}).Code)

		w := env.do(t, "GET", "/api/sync/status", nil)
		status := decode[offline.Status](t, w)
		assert.Equal(t, int64(0), status.Pending)
		assert.False(t, status.Unlocked)

		w = env.do(t, "GET", "/api/ledger", nil)
		assert.Contains(t, w.Body.String(), `"count":0`)
	})
}

func TestConnectivityAPI(t *testing.T) {
	env, cleanup := setupTestAPI(t)
	defer cleanup()

	w := env.do(t, "GET", "/api/connectivity", nil)
	assert.JSONEq(t, `{"online":false}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/connectivity", gin.H{}).Code)

	w = env.do(t, "POST", "/api/connectivity", gin.H{"online": false})
	assert.Contains(t, w.Body.String(), `"changed":false`)
}

type fakeTaskQueue struct {
	enqueued []backlite.Task
}

func (f *fakeTaskQueue) Enqueue(jobs ...backlite.Task) ([]string, error) {
	f.enqueued = append(f.enqueued, jobs...)
	return []string{"task-1"}, nil
}

func (f *fakeTaskQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	if taskID == "task-1" {
		return backlite.TaskStatusSuccess, nil
	}
	return backlite.TaskStatusNotFound, nil
}

func TestTasksAPI(t *testing.T) {
	queue := &fakeTaskQueue{}
	router := NewRouter(RouterConfig{TaskClient: queue})

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := do("GET", "/api/tasks/types")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sweep_cache")

	w = do("POST", "/api/tasks/sweep_cache/run")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, queue.enqueued, 1)

	trigger, ok := queue.enqueued[0].(tasks.SweepCacheTask)
	require.True(t, ok)
	assert.Equal(t, "api", trigger.Trigger)

	assert.Equal(t, http.StatusNotFound, do("POST", "/api/tasks/reindex/run").Code)

	w = do("GET", "/api/tasks/task-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success"`)
	w = do("GET", "/api/tasks/other")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"not_found"`)
}
