package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/krishi/internal/entities"
	"github.com/mrlokans/krishi/internal/syncqueue"
)

// SyncController reports reconciliation state and manages the queue.
type SyncController struct {
	sync SyncService
}

func NewSyncController(sync SyncService) *SyncController {
	return &SyncController{sync: sync}
}

// PassResponse summarizes one drain or retry.
type PassResponse struct {
	Attempted int      `json:"attempted"`
	Delivered int      `json:"delivered"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

func passResponse(result syncqueue.Result) PassResponse {
	resp := PassResponse{
		Attempted: result.Attempted,
		Delivered: result.Delivered,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	return resp
}

// GetStatus refreshes counts from the store and returns the sync status.
// GET /api/sync/status
func (sc *SyncController) GetStatus(c *gin.Context) {
	if err := sc.sync.RefreshStatus(c.Request.Context()); err != nil {
		respondServiceError(c, err, "sync status")
		return
	}
	c.JSON(http.StatusOK, sc.sync.Status())
}

// SyncNow runs a drain pass and waits for it.
// POST /api/sync/now
func (sc *SyncController) SyncNow(c *gin.Context) {
	result, err := sc.sync.SyncNow(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "sync now")
		return
	}
	c.JSON(http.StatusOK, passResponse(result))
}

// ListEntries returns queued entries. With stuck=true only the ones no
// longer retried automatically.
// GET /api/sync/entries?stuck=true
func (sc *SyncController) ListEntries(c *gin.Context) {
	var (
		entries []entities.SyncQueueEntry
		err     error
	)
	if c.Query("stuck") == "true" {
		entries, err = sc.sync.StuckEntries(c.Request.Context())
	} else {
		entries, err = sc.sync.PendingEntries(c.Request.Context())
	}
	if err != nil {
		respondServiceError(c, err, "list entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// DiscardEntry drops an entry without delivering it.
// DELETE /api/sync/entries/:id
func (sc *SyncController) DiscardEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := sc.sync.DiscardEntry(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "discard entry")
		return
	}
	respondSuccess(c, "entry discarded")
}

// RetryEntry replays one entry now, even if it is stuck.
// POST /api/sync/entries/:id/retry
func (sc *SyncController) RetryEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := sc.sync.RetryEntry(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "retry entry")
		return
	}
	c.JSON(http.StatusOK, passResponse(result))
}
