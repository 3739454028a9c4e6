package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/database"
	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
)

type broadcastEvent struct {
	ChannelID uuid.UUID
	Event     string
	Payload   interface{}
}

type userEvent struct {
	UserID  uuid.UUID
	Event   string
	Payload interface{}
}

// fakeBroadcaster enregistre les diffusions au lieu de les envoyer.
type fakeBroadcaster struct {
	events []broadcastEvent
	sent   []userEvent
}

func (f *fakeBroadcaster) BroadcastToChannel(channelID uuid.UUID, event string, payload interface{}) {
	f.events = append(f.events, broadcastEvent{ChannelID: channelID, Event: event, Payload: payload})
}

func (f *fakeBroadcaster) BroadcastAll(event string, payload interface{}) {
	f.events = append(f.events, broadcastEvent{Event: event, Payload: payload})
}

func (f *fakeBroadcaster) SendToUser(userID uuid.UUID, event string, payload interface{}) {
	f.sent = append(f.sent, userEvent{UserID: userID, Event: event, Payload: payload})
}

// fakeSessions enregistre les éjections et déconnexions forcées, et
// répond à la localisation via la map channels.
type fakeSessions struct {
	kicked       []uuid.UUID
	disconnected []uuid.UUID
	channels     map[uuid.UUID]uuid.UUID
}

func (f *fakeSessions) KickFromChannel(userID, channelID uuid.UUID) {
	f.kicked = append(f.kicked, userID)
}

func (f *fakeSessions) Disconnect(userID uuid.UUID) {
	f.disconnected = append(f.disconnected, userID)
}

func (f *fakeSessions) CurrentChannel(userID uuid.UUID) (uuid.UUID, bool) {
	channelID, ok := f.channels[userID]
	return channelID, ok
}

func seedUser(t *testing.T, store *database.Memory, username string, role roles.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username:  username,
		Email:     username + "@ashradio.fr",
		Role:      string(role),
		Color:     roles.Color(role),
		Avatar:    roles.Avatar(username),
		Level:     1,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.SaveUser(user))
	return user
}

func seedChannel(t *testing.T, store *database.Memory, name string) *models.Channel {
	t.Helper()
	channel := &models.Channel{
		Name:       NormalizeName(name),
		Type:       models.ChannelTypePublic,
		MaxMembers: 100,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.CreateChannel(channel))
	return channel
}

func join(t *testing.T, svc *ChannelService, channelID, userID uuid.UUID) {
	t.Helper()
	_, err := svc.JoinChannel(channelID, userID, "")
	require.NoError(t, err)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
