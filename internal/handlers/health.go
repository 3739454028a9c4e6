package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashradio/chat-server/internal/services"
	ws "github.com/ashradio/chat-server/internal/websocket"
)

type HealthHandler struct {
	store services.Store
	hub   *ws.Hub
}

func NewHealthHandler(store services.Store, hub *ws.Hub) *HealthHandler {
	return &HealthHandler{store: store, hub: hub}
}

// Health expose l'état du serveur pour la supervision.
func (h *HealthHandler) Health(c *gin.Context) {
	channels, err := h.store.CountChannels()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	messages, err := h.store.CountMessages()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"onlineUsers": h.hub.OnlineCount(),
		"channels":    channels,
		"messages":    messages,
	})
}
