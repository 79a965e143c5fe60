package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/krishi/internal/crypto"
	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/offline"
	"github.com/mrlokans/krishi/internal/syncqueue"
)

// DefaultListLimit applies when a list endpoint gets no limit parameter.
const DefaultListLimit = 50

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_request"})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// errorStatus maps the data layer's error taxonomy onto HTTP. ok is false
// for errors with no specific mapping.
func errorStatus(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, database.ErrQuotaExceeded):
		return http.StatusInsufficientStorage, "quota_exceeded", true
	case errors.Is(err, database.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable", true
	case errors.Is(err, offline.ErrLocked), errors.Is(err, crypto.ErrNotInitialized):
		return http.StatusLocked, "locked", true
	case errors.Is(err, syncqueue.ErrDrainInProgress):
		return http.StatusConflict, "drain_in_progress", true
	case errors.Is(err, offline.ErrOffline):
		return http.StatusServiceUnavailable, "offline", true
	case errors.Is(err, offline.ErrNoRemote):
		return http.StatusNotImplemented, "no_remote", true
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "not_found", true
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return http.StatusUnprocessableEntity, "decryption_failed", true
	case errors.Is(err, offline.ErrInvalidTransaction), errors.Is(err, offline.ErrInvalidInput),
		errors.Is(err, offline.ErrUnknownCollection), errors.Is(err, syncqueue.ErrInvalidEntry),
		errors.Is(err, crypto.ErrEmptySecret), errors.Is(err, crypto.ErrEmptyUserID):
		return http.StatusBadRequest, "invalid_request", true
	}
	return 0, "", false
}

// respondServiceError sends the mapped status for known errors and a 500 for
// everything else.
func respondServiceError(c *gin.Context, err error, context string) {
	status, code, ok := errorStatus(err)
	if !ok {
		respondInternalError(c, err, context)
		return
	}
	if status == http.StatusServiceUnavailable || status == http.StatusInsufficientStorage {
		log.Printf("Request failed (%s): %v", context, err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseLimit reads the limit query parameter. Zero means no limit.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return DefaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		respondBadRequest(c, "invalid limit")
		return 0, false
	}
	return limit, true
}
