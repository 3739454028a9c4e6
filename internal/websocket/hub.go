package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Événements sortants vers les clients.
const (
	EventChannelsList       = "channels_list"
	EventChannelChanged     = "channel_changed"
	EventMessageHistory     = "message_history"
	EventNewMessage         = "new_message"
	EventChannelUsersUpdate = "channel_users_update"
	EventUserTyping         = "user_typing"
	EventUserStopTyping     = "user_stop_typing"
	EventCommandResult      = "command_result"
	EventError              = "error"
	EventPing               = "ping"
	EventPong               = "pong"
)

// Événements entrants depuis les clients.
const (
	EventJoinChannel  = "join_channel"
	EventSendMessage  = "send_message"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
	EventModerateUser = "moderate_user"
)

// Message est l'enveloppe commune des deux sens.
type Message struct {
	Type      string          `json:"type"`
	Channel   *uuid.UUID      `json:"channel,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Client est une connexion WebSocket authentifiée. Un utilisateur
// occupe au plus un channel à la fois ; Channel vaut uuid.Nil tant
// qu'il n'en a rejoint aucun.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub

	mu      sync.RWMutex
	channel uuid.UUID
	closed  bool
}

// Channel retourne le channel courant du client.
func (c *Client) Channel() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

func (c *Client) setChannel(id uuid.UUID) {
	c.mu.Lock()
	c.channel = id
	c.mu.Unlock()
}

// Hub distribue les événements aux sessions. Il porte aussi l'état
// éphémère : présence par channel et indicateurs de frappe.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Plusieurs connexions possibles par utilisateur.
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Connexions présentes dans chaque channel.
	channelClients map[uuid.UUID]map[uuid.UUID]*Client

	Presence *PresenceRegistry
	Typing   *TypingTracker

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:        make(map[uuid.UUID]*Client),
		userClients:    make(map[uuid.UUID]map[uuid.UUID]*Client),
		channelClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		Presence:       NewPresenceRegistry(),
		Typing:         NewTypingTracker(),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		ctx:            ctx,
		cancel:         cancel,
		logger:         logger,
	}
}

// Run boucle jusqu'à Stop. Le ticker sert de battement de cœur
// applicatif en plus des ping/pong du protocole.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.heartbeat()
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.closeSend()
		client.Conn.Close()
	}
	h.clients = make(map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	h.logger.Info("client connecté",
		zap.String("client", client.ID.String()),
		zap.String("user", client.Username))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	h.leaveChannelLocked(client)

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	client.closeSend()

	h.logger.Info("client déconnecté",
		zap.String("client", client.ID.String()),
		zap.String("user", client.Username))
}

// leaveChannelLocked retire le client de son channel courant :
// map de diffusion, présence et frappe. Appelant détient h.mu.
func (h *Hub) leaveChannelLocked(client *Client) uuid.UUID {
	channelID := client.Channel()
	if channelID == uuid.Nil {
		return uuid.Nil
	}

	if room, ok := h.channelClients[channelID]; ok {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(h.channelClients, channelID)
		}
	}
	client.setChannel(uuid.Nil)

	// La présence est par utilisateur : elle ne tombe que quand la
	// dernière connexion de cet utilisateur quitte le channel.
	if !h.userInChannelLocked(client.UserID, channelID) {
		h.Presence.Remove(channelID, client.UserID)
		h.Typing.Stop(channelID, client.UserID)
	}
	return channelID
}

func (h *Hub) userInChannelLocked(userID, channelID uuid.UUID) bool {
	for _, c := range h.userClients[userID] {
		if c.Channel() == channelID {
			return true
		}
	}
	return false
}

// SwitchChannel déplace atomiquement le client : sous le verrou, il
// quitte l'ancien channel et le couple channel_changed + historique
// est mis en file avant tout autre événement du nouveau channel.
func (h *Hub) SwitchChannel(client *Client, channelID uuid.UUID, channelName string, entry PresenceEntry, history interface{}) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	previous := h.leaveChannelLocked(client)

	if _, ok := h.channelClients[channelID]; !ok {
		h.channelClients[channelID] = make(map[uuid.UUID]*Client)
	}
	h.channelClients[channelID][client.ID] = client
	client.setChannel(channelID)
	h.Presence.Register(channelID, entry)

	client.enqueue(envelope(EventChannelChanged, &channelID, map[string]interface{}{
		"channelId":   channelID,
		"channelName": channelName,
	}))
	client.enqueue(envelope(EventMessageHistory, &channelID, history))

	return previous
}

// LeaveChannel sort le client de son channel courant sans le
// déconnecter. Retourne le channel quitté, uuid.Nil si aucun.
func (h *Hub) LeaveChannel(client *Client) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveChannelLocked(client)
}

// BroadcastToChannel diffuse un événement aux sessions présentes.
func (h *Hub) BroadcastToChannel(channelID uuid.UUID, event string, payload interface{}) {
	data := envelope(event, &channelID, payload)
	if data == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.channelClients[channelID] {
		client.enqueue(data)
	}
}

// BroadcastAll diffuse à toutes les sessions connectées, quel que
// soit leur channel. Sert aux mises à jour de la liste des channels.
func (h *Hub) BroadcastAll(event string, payload interface{}) {
	data := envelope(event, nil, payload)
	if data == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		client.enqueue(data)
	}
}

// SendToUser vise toutes les connexions d'un utilisateur.
func (h *Hub) SendToUser(userID uuid.UUID, event string, payload interface{}) {
	data := envelope(event, nil, payload)
	if data == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[userID] {
		client.enqueue(data)
	}
}

// KickFromChannel éjecte les sessions d'un utilisateur d'un channel.
// Best-effort : l'état persistant a déjà été modifié par l'appelant.
func (h *Hub) KickFromChannel(userID, channelID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.userClients[userID] {
		if client.Channel() != channelID {
			continue
		}
		h.leaveChannelLocked(client)
		client.enqueue(envelope(EventError, &channelID, map[string]string{
			"message": "Vous avez été expulsé du channel.",
		}))
	}
}

// Disconnect ferme toutes les connexions d'un utilisateur. La fermeture
// du socket fait sortir son ReadPump, qui déclenche unregister.
func (h *Hub) Disconnect(userID uuid.UUID) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.userClients[userID]))
	for _, client := range h.userClients[userID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.enqueue(envelope(EventError, nil, map[string]string{
			"message": "Vous avez été banni du serveur.",
		}))
		client.Conn.Close()
	}
}

// CurrentChannel retourne le channel occupé par un utilisateur
// connecté, uuid.Nil et false s'il est hors ligne ou sans channel.
func (h *Hub) CurrentChannel(userID uuid.UUID) (uuid.UUID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[userID] {
		if ch := client.Channel(); ch != uuid.Nil {
			return ch, true
		}
	}
	return uuid.Nil, false
}

// ChannelUserIDs retourne les utilisateurs distincts présents.
func (h *Hub) ChannelUserIDs(channelID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	for _, client := range h.channelClients[channelID] {
		seen[client.UserID] = true
	}

	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

// OnlineCount retourne le nombre d'utilisateurs connectés.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients)
}

func (h *Hub) heartbeat() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data := envelope(EventPing, nil, nil)
	for _, client := range h.clients {
		client.enqueue(data)
	}
}

// envelope sérialise un événement complet. Retourne nil si la charge
// utile n'est pas sérialisable, cas traité comme un drop silencieux.
func envelope(event string, channelID *uuid.UUID, payload interface{}) []byte {
	msg := Message{
		Type:      event,
		Channel:   channelID,
		Timestamp: time.Now(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil
		}
		msg.Data = data
	}

	out, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return out
}
