package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/handlers/dto"
	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
	"github.com/ashradio/chat-server/internal/services"
	ws "github.com/ashradio/chat-server/internal/websocket"
	"github.com/ashradio/chat-server/pkg/apperr"
)

// ChatHandler branche les événements de session sur les services.
// Toute erreur retournée à ReadPump devient un événement error pour
// la session émettrice, jamais une diffusion.
type ChatHandler struct {
	store      services.Store
	channels   *services.ChannelService
	messages   *services.MessageService
	commands   *services.CommandService
	moderation *services.ModerationService
	xp         *services.XPService
	hub        *ws.Hub
	logger     *zap.Logger
}

func NewChatHandler(
	store services.Store,
	channels *services.ChannelService,
	messages *services.MessageService,
	commands *services.CommandService,
	moderation *services.ModerationService,
	xp *services.XPService,
	hub *ws.Hub,
	logger *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		store:      store,
		channels:   channels,
		messages:   messages,
		commands:   commands,
		moderation: moderation,
		xp:         xp,
		hub:        hub,
		logger:     logger,
	}
}

func presenceEntry(user *models.User) ws.PresenceEntry {
	return ws.PresenceEntry{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Color:    user.Color,
		Avatar:   user.Avatar,
		Level:    user.Level,
		JoinedAt: time.Now(),
	}
}

// HandleConnect place la session dans #general, lui envoie la liste
// des channels puis l'historique, et annonce l'arrivée.
func (h *ChatHandler) HandleConnect(client *ws.Client) {
	user, err := h.store.GetUser(client.UserID)
	if err != nil || roles.Parse(user.Role) == roles.Banned {
		client.SendError("session refusée")
		client.Conn.Close()
		return
	}

	client.SendEvent(ws.EventChannelsList, nil, h.channelsList())

	channel, err := h.channels.DefaultChannel()
	if err != nil {
		h.logger.Error("channel par défaut introuvable", zap.Error(err))
		client.SendError("channel par défaut introuvable")
		return
	}

	if _, err := h.channels.JoinChannel(channel.ID, user.ID, ""); err != nil &&
		!apperr.Is(err, apperr.CodeAlreadyExists) {
		client.SendError(err.Error())
		return
	}

	h.switchToChannel(client, user, channel)

	// L'annonce d'arrivée ne concerne que le channel par défaut.
	if _, err := h.messages.AppendSystem(channel.ID, fmt.Sprintf(
		"🎧 %s vient de rejoindre la radio ! Bienvenue dans la communauté !", user.Username)); err != nil {
		h.logger.Warn("échec de l'annonce d'arrivée", zap.Error(err))
	}

	h.broadcastChannelsList()
}

// HandleDisconnect annonce le départ et libère la présence avant que
// le hub ne désenregistre la connexion.
func (h *ChatHandler) HandleDisconnect(client *ws.Client) {
	channelID := h.hub.LeaveChannel(client)
	if channelID == uuid.Nil {
		return
	}

	h.broadcastUsers(channelID)
	if _, err := h.messages.AppendSystem(channelID, fmt.Sprintf(
		"👋 %s a quitté la radio. À bientôt !", client.Username)); err != nil {
		h.logger.Warn("échec de l'annonce de départ", zap.Error(err))
	}
	h.broadcastChannelsList()
}

// HandleEvent route un événement entrant.
func (h *ChatHandler) HandleEvent(client *ws.Client, msg *ws.Message) error {
	user, err := h.store.GetUser(client.UserID)
	if err != nil {
		return apperr.Unauthorized("utilisateur inconnu")
	}
	if roles.Parse(user.Role) == roles.Banned {
		client.Conn.Close()
		return nil
	}

	switch msg.Type {
	case ws.EventSendMessage:
		return h.onSendMessage(client, user, msg)
	case ws.EventJoinChannel:
		return h.onJoinChannel(client, user, msg)
	case ws.EventTypingStart:
		return h.onTyping(client, user, true)
	case ws.EventTypingStop:
		return h.onTyping(client, user, false)
	case ws.EventModerateUser:
		return h.onModerate(client, user, msg)
	default:
		return apperr.InvalidArg(fmt.Sprintf("événement '%s' inconnu", msg.Type))
	}
}

func (h *ChatHandler) onSendMessage(client *ws.Client, user *models.User, msg *ws.Message) error {
	var payload dto.SendMessagePayload
	if err := ws.DecodeData(msg, &payload); err != nil {
		return apperr.InvalidArg("charge utile send_message invalide")
	}

	channelID := client.Channel()
	if channelID == uuid.Nil {
		return apperr.FailedPrecondition("aucun channel courant")
	}

	// L'envoi clôt l'indicateur de frappe.
	h.hub.Typing.Stop(channelID, user.ID)
	h.hub.BroadcastToChannel(channelID, ws.EventUserStopTyping, dto.TypingPayload{
		UserID: user.ID, Username: user.Username, Channel: channelID,
	})

	if strings.HasPrefix(payload.Content, services.CommandPrefix) {
		h.runCommand(client, user, channelID, payload.Content)
		return nil
	}

	_, err := h.messages.Append(channelID, user, services.SendMessageInput{
		Content:         payload.Content,
		Type:            payload.Type,
		ImageURL:        payload.ImageURL,
		AudioURL:        payload.AudioURL,
		DurationSeconds: payload.DurationSeconds,
	})
	return err
}

func (h *ChatHandler) onJoinChannel(client *ws.Client, user *models.User, msg *ws.Message) error {
	var payload dto.JoinChannelPayload
	if err := ws.DecodeData(msg, &payload); err != nil {
		return apperr.InvalidArg("charge utile join_channel invalide")
	}

	channel, err := h.channels.GetChannel(payload.ChannelID)
	if err != nil {
		return err
	}

	if _, err := h.channels.JoinChannel(channel.ID, user.ID, payload.Password); err != nil {
		// Déjà membre : c'est un simple changement de channel.
		if !apperr.Is(err, apperr.CodeAlreadyExists) {
			return err
		}
	} else if _, err := h.xp.AwardChannelJoinXP(user.ID); err != nil {
		h.logger.Warn("échec d'attribution d'XP", zap.Error(err))
	}

	h.switchToChannel(client, user, channel)
	h.broadcastChannelsList()
	return nil
}

func (h *ChatHandler) onTyping(client *ws.Client, user *models.User, start bool) error {
	channelID := client.Channel()
	if channelID == uuid.Nil {
		return nil
	}

	payload := dto.TypingPayload{UserID: user.ID, Username: user.Username, Channel: channelID}
	if start {
		h.hub.Typing.Start(channelID, user.ID, user.Username)
		h.hub.BroadcastToChannel(channelID, ws.EventUserTyping, payload)
	} else {
		h.hub.Typing.Stop(channelID, user.ID)
		h.hub.BroadcastToChannel(channelID, ws.EventUserStopTyping, payload)
	}
	return nil
}

// onModerate traite la variante bouton du panneau de modération.
// Même moteur que les commandes slash, mêmes refus.
func (h *ChatHandler) onModerate(client *ws.Client, actor *models.User, msg *ws.Message) error {
	var payload dto.ModeratePayload
	if err := ws.DecodeData(msg, &payload); err != nil {
		return apperr.InvalidArg("charge utile moderate_user invalide")
	}

	channelID := client.Channel()
	if payload.Channel != nil {
		channelID = *payload.Channel
	}
	if channelID == uuid.Nil {
		return apperr.FailedPrecondition("aucun channel courant")
	}

	// La cible arrive par id ; le pseudo est le repli.
	targetName := payload.Username
	if payload.UserID != nil {
		target, err := h.store.GetUser(*payload.UserID)
		if err != nil {
			return apperr.NotFound("Utilisateur introuvable.")
		}
		targetName = target.Username
	}
	if targetName == "" {
		return apperr.InvalidArg("cible de modération manquante")
	}

	var (
		text string
		err  error
	)
	switch payload.Action {
	case "warn":
		text, err = h.moderation.Warn(actor, targetName, payload.Reason, channelID)
	case "kick":
		text, err = h.moderation.Kick(actor, targetName, payload.Reason, channelID)
	case "mute":
		text, err = h.moderation.Mute(actor, targetName, payload.DurationMinutes, payload.Reason, channelID)
	case "unmute":
		text, err = h.moderation.Unmute(actor, targetName, channelID)
	case "ban":
		text, err = h.moderation.Ban(actor, targetName, payload.Reason, channelID)
	case "promote":
		text, err = h.moderation.Promote(actor, targetName, channelID)
	case "demote":
		text, err = h.moderation.Demote(actor, targetName, channelID)
	default:
		return apperr.InvalidArg(fmt.Sprintf("action de modération '%s' inconnue", payload.Action))
	}
	if err != nil {
		return err
	}

	if _, err := h.messages.AppendSystem(channelID, text); err != nil {
		h.logger.Warn("échec de l'annonce de modération", zap.Error(err))
	}
	h.broadcastUsers(channelID)
	return nil
}

// runCommand exécute une commande slash. Le résultat revient toujours
// à l'émetteur ; la diffusion éventuelle passe par un message système.
func (h *ChatHandler) runCommand(client *ws.Client, user *models.User, channelID uuid.UUID, content string) {
	result := h.commands.Execute(user, channelID, content)
	if result == nil {
		return
	}

	client.SendEvent(ws.EventCommandResult, nil, result)

	if result.Success && result.BroadcastToChannel && result.SystemMessage {
		if _, err := h.messages.AppendSystem(channelID, result.Message); err != nil {
			h.logger.Warn("échec de diffusion du résultat de commande", zap.Error(err))
		}
		h.broadcastUsers(channelID)
	}

	if result.JoinChannel != nil {
		if channel, err := h.channels.GetChannel(*result.JoinChannel); err == nil {
			h.switchToChannel(client, user, channel)
			h.broadcastChannelsList()
		}
	}

	if result.LeftChannel {
		if previous := h.hub.LeaveChannel(client); previous != uuid.Nil {
			h.broadcastUsers(previous)
		}
		h.broadcastChannelsList()
	}
}

// switchToChannel bascule atomiquement la session : channel_changed et
// l'historique partent d'un bloc avant tout événement du nouveau
// channel, puis les deux listes de présence sont rediffusées.
func (h *ChatHandler) switchToChannel(client *ws.Client, user *models.User, channel *models.Channel) {
	history, err := h.messages.History(channel.ID)
	if err != nil {
		h.logger.Error("échec de lecture de l'historique", zap.Error(err))
		client.SendError("impossible de charger l'historique")
		return
	}

	previous := h.hub.SwitchChannel(client, channel.ID, channel.Name, presenceEntry(user), history)
	if previous != uuid.Nil && previous != channel.ID {
		h.broadcastUsers(previous)
	}
	h.broadcastUsers(channel.ID)
}

func (h *ChatHandler) broadcastUsers(channelID uuid.UUID) {
	h.hub.BroadcastToChannel(channelID, ws.EventChannelUsersUpdate, h.hub.Presence.List(channelID))
}

func (h *ChatHandler) channelsList() []channelListItem {
	infos, err := h.channels.ListPublicChannels()
	if err != nil {
		h.logger.Error("échec de listage des channels", zap.Error(err))
		return nil
	}

	items := make([]channelListItem, 0, len(infos))
	for _, info := range infos {
		items = append(items, channelListItem{
			ChannelInfo: info,
			OnlineCount: h.hub.Presence.Count(info.ID),
		})
	}
	return items
}

func (h *ChatHandler) broadcastChannelsList() {
	h.hub.BroadcastAll(ws.EventChannelsList, h.channelsList())
}
