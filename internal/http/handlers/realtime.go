package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/platform/ctxutil"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
	"github.com/evarahealth/clinic-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log: log.With("handler", "RealtimeHandler"),
		hub: hub,
	}
}

// Stream opens the caller's SSE connection, subscribed to their own channel.
func (rh *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	client := rh.hub.NewSSEClient(rd.UserID)
	rh.hub.AddChannel(client, realtime.UserChannel(rd.UserID))
	rh.log.Info("SSE stream open", "user_id", rd.UserID, "client_id", client.ID)

	rh.hub.ServeHTTP(c.Writer, c.Request, client)
	rh.hub.CloseClient(client)
	rh.log.Info("SSE stream closed", "user_id", rd.UserID, "client_id", client.ID)
}
