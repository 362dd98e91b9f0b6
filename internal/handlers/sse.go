package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/requestdata"
	"github.com/jasperedu/jasper-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{log: log.With("handler", "SSEHandler"), hub: hub}
}

// Stream subscribes the caller to their own channel and blocks until the
// connection drops.
func (sh *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	client := sh.hub.NewSSEClient(rd.UserID)
	sh.hub.AddChannel(client, rd.UserID.String())
	defer sh.hub.CloseClient(client)

	sh.hub.ServeHTTP(c.Writer, c.Request, client)
}
