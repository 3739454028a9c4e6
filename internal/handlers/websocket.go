package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ashradio/chat-server/internal/middleware"
	"github.com/ashradio/chat-server/internal/roles"
	"github.com/ashradio/chat-server/internal/services"
	ws "github.com/ashradio/chat-server/internal/websocket"
)

// WebSocketHandler ouvre les sessions temps réel.
type WebSocketHandler struct {
	hub      *ws.Hub
	store    services.Store
	chat     *ChatHandler
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, store services.Store, chat *ChatHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		store: store,
		chat:  chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restreindre l'origine en production
				return true
			},
		},
	}
}

// HandleWebSocket vérifie que le compte peut tenir une session puis
// effectue l'upgrade. Un banni est refusé avant l'upgrade.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	user, err := h.store.GetUser(userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "utilisateur inconnu"})
		return
	}
	if roles.Parse(user.Role) == roles.Banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "vous êtes banni du serveur"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, user.ID, user.Username)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.chat)
}
