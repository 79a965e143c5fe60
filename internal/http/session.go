package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/krishi/internal/exporters"
)

// SessionController unlocks the ledger and handles whole-store operations.
type SessionController struct {
	session  SessionService
	exporter exporters.DataExporter
}

func NewSessionController(session SessionService, exporter exporters.DataExporter) *SessionController {
	return &SessionController{session: session, exporter: exporter}
}

type unlockRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

type restoreRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Unlock derives the ledger key from the user's secret.
// POST /api/session/unlock
func (sc *SessionController) Unlock(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id and secret are required")
		return
	}
	result, err := sc.session.Unlock(c.Request.Context(), req.UserID, req.Secret)
	if err != nil {
		respondServiceError(c, err, "unlock")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Restore unlocks an account that signs in without a secret of its own.
// POST /api/session/restore
func (sc *SessionController) Restore(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id is required")
		return
	}
	result, err := sc.session.RestoreSession(c.Request.Context(), req.UserID)
	if err != nil {
		respondServiceError(c, err, "restore session")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Lock drops the ledger key.
// POST /api/session/lock
func (sc *SessionController) Lock(c *gin.Context) {
	sc.session.Lock()
	respondSuccess(c, "ledger locked")
}

// Export writes the user's data to the export directory.
// POST /api/export
func (sc *SessionController) Export(c *gin.Context) {
	if sc.exporter == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "export is not configured"})
		return
	}
	data, err := sc.session.Export(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "export")
		return
	}
	result, err := sc.exporter.Export(data)
	if err != nil {
		respondInternalError(c, err, "write export")
		return
	}
	c.JSON(http.StatusOK, result)
}

type wipeRequest struct {
	Confirm bool `json:"confirm"`
}

// Wipe deletes every local collection, including undelivered mutations.
// POST /api/wipe
func (sc *SessionController) Wipe(c *gin.Context) {
	var req wipeRequest
	_ = c.ShouldBindJSON(&req)
	if !req.Confirm {
		respondBadRequest(c, `wipe requires {"confirm": true}`)
		return
	}
	if err := sc.session.Wipe(c.Request.Context()); err != nil {
		respondServiceError(c, err, "wipe")
		return
	}
	respondSuccess(c, "local data wiped")
}
