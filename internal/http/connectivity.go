package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ConnectivityController struct {
	sink ConnectivitySink
}

func NewConnectivityController(sink ConnectivitySink) *ConnectivityController {
	return &ConnectivityController{sink: sink}
}

type connectivityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// GetConnectivity reports the current network state.
// GET /api/connectivity
func (cc *ConnectivityController) GetConnectivity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": cc.sink.Online()})
}

// SetConnectivity receives the platform's network change events. Going
// online triggers a drain of the sync queue.
// POST /api/connectivity
func (cc *ConnectivityController) SetConnectivity(c *gin.Context) {
	var req connectivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "online is required")
		return
	}
	changed := cc.sink.Set(*req.Online)
	c.JSON(http.StatusOK, gin.H{"online": *req.Online, "changed": changed})
}
