package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/handlers/dto"
	"github.com/ashradio/chat-server/internal/middleware"
	"github.com/ashradio/chat-server/internal/services"
	ws "github.com/ashradio/chat-server/internal/websocket"
	"github.com/ashradio/chat-server/pkg/apperr"
)

type ChannelHandler struct {
	channels *services.ChannelService
	hub      *ws.Hub
	logger   *zap.Logger
}

func NewChannelHandler(channels *services.ChannelService, hub *ws.Hub, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{channels: channels, hub: hub, logger: logger}
}

type channelListItem struct {
	services.ChannelInfo
	OnlineCount int `json:"onlineCount"`
}

// List retourne les channels publics, compteur de présence inclus.
func (h *ChannelHandler) List(c *gin.Context) {
	infos, err := h.channels.ListPublicChannels()
	if err != nil {
		h.logger.Error("échec de listage des channels", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "impossible de lister les channels"})
		return
	}

	items := make([]channelListItem, 0, len(infos))
	for _, info := range infos {
		items = append(items, channelListItem{
			ChannelInfo: info,
			OnlineCount: h.hub.Presence.Count(info.ID),
		})
	}
	c.JSON(http.StatusOK, gin.H{"channels": items})
}

// Create ouvre un channel ; le créateur devient propriétaire et
// membre avec droits d'écriture et d'invitation.
func (h *ChannelHandler) Create(c *gin.Context) {
	var req dto.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	channel, err := h.channels.CreateChannel(services.CreateChannelSpec{
		Name:        req.Name,
		Description: req.Description,
		Topic:       req.Topic,
		Type:        req.Type,
		IsPrivate:   req.IsPrivate,
		Password:    req.Password,
		Color:       req.Color,
		MaxMembers:  req.MaxMembers,
	}, ownerID)
	if err != nil {
		switch apperr.CodeOf(err) {
		case apperr.CodeAlreadyExists:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case apperr.CodeInvalidArgument:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("échec de création de channel", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "impossible de créer le channel"})
		}
		return
	}

	channel.Password = ""
	c.JSON(http.StatusCreated, gin.H{"channel": channel})
}
