package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Délai d'écriture sur le socket.
	writeWait = 10 * time.Second

	// Délai d'attente du pong client.
	pongWait = 60 * time.Second

	// Intervalle d'envoi des ping protocole.
	pingPeriod = (pongWait * 9) / 10

	// Taille maximale d'un message entrant.
	maxMessageSize = 64 * 1024
)

// EventHandler branche la logique applicative sur le cycle de vie
// d'une connexion. HandleConnect et HandleDisconnect tournent dans la
// goroutine de lecture du client, les événements aussi.
type EventHandler interface {
	HandleConnect(client *Client)
	HandleEvent(client *Client, msg *Message) error
	HandleDisconnect(client *Client)
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, username string) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Username: username,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
	}
}

// ReadPump lit les événements du client jusqu'à la fermeture du socket.
func (c *Client) ReadPump(handler EventHandler) {
	defer func() {
		handler.HandleDisconnect(c)
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	handler.HandleConnect(c)

	for {
		var msg Message
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("erreur de lecture WebSocket",
					zap.String("user", c.Username), zap.Error(err))
			}
			break
		}

		if msg.Type == EventPong {
			continue
		}

		if err := handler.HandleEvent(c, &msg); err != nil {
			c.Hub.logger.Info("événement refusé",
				zap.String("user", c.Username),
				zap.String("event", msg.Type),
				zap.Error(err))
			c.SendError(err.Error())
		}
	}
}

// WritePump pousse la file Send vers le socket et entretient les ping.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Le hub a fermé la file.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeSend ferme la file d'envoi une seule fois. Les envois
// ultérieurs deviennent des no-op au lieu d'une panique : ReadPump
// peut encore appeler SendEvent pendant l'arrêt du hub.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// enqueue pousse un message déjà sérialisé sans jamais bloquer :
// un client qui ne lit plus perd des événements, pas le serveur.
func (c *Client) enqueue(data []byte) {
	if data == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		c.Hub.logger.Warn("file d'envoi pleine, événement perdu",
			zap.String("user", c.Username))
	}
}

// SendEvent sérialise et envoie un événement à ce seul client.
func (c *Client) SendEvent(event string, channelID *uuid.UUID, payload interface{}) error {
	data := envelope(event, channelID, payload)
	if data == nil {
		return ErrInvalidMessage
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// SendError notifie le client d'un refus, sans fermer la connexion.
func (c *Client) SendError(message string) {
	c.SendEvent(EventError, nil, map[string]string{"message": message})
}

// DecodeData désérialise la charge utile d'un événement entrant.
func DecodeData(msg *Message, v interface{}) error {
	if len(msg.Data) == 0 {
		return ErrInvalidMessage
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return ErrInvalidMessage
	}
	return nil
}
