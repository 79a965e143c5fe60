package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/krishi/internal/offline"
)

// HealthResponse reports store liveness and, when available, the sync
// indicator. Stuck entries are reported but do not make the store unhealthy.
type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Sync    *offline.Status   `json:"sync,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// Pinger is anything whose liveness can be checked. *database.Store is one.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusReporter exposes the last known sync status.
type StatusReporter interface {
	Status() offline.Status
}

type HealthController struct {
	db      Pinger
	sync    StatusReporter
	version string
}

func NewHealthController(db Pinger, sync StatusReporter, version string) *HealthController {
	return &HealthController{db: db, sync: sync, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  map[string]string{"database": "not configured"},
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Checks["database"] = "error: " + err.Error()
			resp.Status = "unhealthy"
		} else {
			resp.Checks["database"] = "ok"
		}
	}

	if h.sync != nil {
		status := h.sync.Status()
		resp.Sync = &status
		switch {
		case status.Stuck > 0:
			resp.Checks["sync"] = fmt.Sprintf("%d entries need attention", status.Stuck)
		case status.LastError != "":
			resp.Checks["sync"] = "last pass failed: " + status.LastError
		default:
			resp.Checks["sync"] = "ok"
		}
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}
