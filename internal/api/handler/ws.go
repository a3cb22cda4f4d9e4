package handler

import (
	"github.com/gin-gonic/gin"

	"civicledger/backend/internal/feed"
)

// ServeWebSocket upgrades the connection and streams the officer's status
// events. RequireRole has already authenticated the request.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	officerID := subject(c)
	if err := feed.ServeWS(h.Hub, c.Writer, c.Request, officerID); err != nil {
		// the upgrader has already written the HTTP error
		h.Log.WithError(err).WithField("officer_id", officerID).Warn("WebSocket upgrade failed")
	}
}
