package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/database"
	"github.com/ashradio/chat-server/internal/handlers/dto"
	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
	"github.com/ashradio/chat-server/internal/services"
	ws "github.com/ashradio/chat-server/internal/websocket"
	"github.com/ashradio/chat-server/pkg/apperr"
)

type chatFixture struct {
	store    *database.Memory
	channels *services.ChannelService
	hub      *ws.Hub
	chat     *ChatHandler
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	logger := zap.NewNop()
	store := database.NewMemory()
	hub := ws.NewHub(logger)
	channels := services.NewChannelService(store, logger)
	xp := services.NewXPService(store, logger)
	messages := services.NewMessageService(store, hub, xp, logger)
	moderation := services.NewModerationService(store, channels, hub, logger)
	commands := services.NewCommandService(store, channels, moderation, xp, hub, logger)
	chat := NewChatHandler(store, channels, messages, commands, moderation, xp, hub, logger)
	return &chatFixture{store: store, channels: channels, hub: hub, chat: chat}
}

func (f *chatFixture) seedUser(t *testing.T, username string, role roles.Role) *models.User {
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
	require.NoError(t, f.store.SaveUser(user))
	return user
}

func (f *chatFixture) seedChannel(t *testing.T) *models.Channel {
	t.Helper()
	channel := &models.Channel{
		Name:       "#general",
		Type:       models.ChannelTypePublic,
		MaxMembers: 100,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.store.CreateChannel(channel))
	return channel
}

// connect attache une session au channel sans passer par le réseau.
func (f *chatFixture) connect(t *testing.T, user *models.User, channel *models.Channel) *ws.Client {
	t.Helper()
	client := ws.NewClient(f.hub, nil, user.ID, user.Username)
	f.hub.SwitchChannel(client, channel.ID, channel.Name, ws.PresenceEntry{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		JoinedAt: time.Now(),
	}, nil)
	return client
}

func moderateEvent(t *testing.T, payload dto.ModeratePayload) *ws.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &ws.Message{Type: ws.EventModerateUser, Data: data, Timestamp: time.Now()}
}

func TestModerateUserByID(t *testing.T) {
	f := newChatFixture(t)
	ashley := f.seedUser(t, "ashley", roles.Admin)
	troll := f.seedUser(t, "troll123", roles.User)
	channel := f.seedChannel(t)

	_, err := f.channels.JoinChannel(channel.ID, ashley.ID, "")
	require.NoError(t, err)
	_, err = f.channels.JoinChannel(channel.ID, troll.ID, "")
	require.NoError(t, err)

	client := f.connect(t, ashley, channel)

	// La cible est désignée par son id, sans pseudo dans la charge utile.
	err = f.chat.HandleEvent(client, moderateEvent(t, dto.ModeratePayload{
		UserID: &troll.ID,
		Action: "kick",
		Reason: "spam",
	}))
	require.NoError(t, err)

	// L'expulsion a bien retiré l'adhésion de la cible.
	_, err = f.store.GetMembership(troll.ID, channel.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	logs, err := f.store.ListModerationLogs(channel.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "kick", logs[0].Action)
	assert.Equal(t, troll.ID, logs[0].TargetUserID)
}

func TestModerateUserByUsernameFallback(t *testing.T) {
	f := newChatFixture(t)
	ashley := f.seedUser(t, "ashley", roles.Admin)
	troll := f.seedUser(t, "troll123", roles.User)
	channel := f.seedChannel(t)

	_, err := f.channels.JoinChannel(channel.ID, ashley.ID, "")
	require.NoError(t, err)
	_, err = f.channels.JoinChannel(channel.ID, troll.ID, "")
	require.NoError(t, err)

	client := f.connect(t, ashley, channel)

	err = f.chat.HandleEvent(client, moderateEvent(t, dto.ModeratePayload{
		Username: "troll123",
		Action:   "warn",
		Reason:   "flood",
	}))
	require.NoError(t, err)

	logs, err := f.store.ListModerationLogs(channel.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "warn", logs[0].Action)
}

func TestModerateUserBadTarget(t *testing.T) {
	f := newChatFixture(t)
	ashley := f.seedUser(t, "ashley", roles.Admin)
	channel := f.seedChannel(t)

	_, err := f.channels.JoinChannel(channel.ID, ashley.ID, "")
	require.NoError(t, err)

	client := f.connect(t, ashley, channel)

	t.Run("id inconnu", func(t *testing.T) {
		ghost := uuid.New()
		err := f.chat.HandleEvent(client, moderateEvent(t, dto.ModeratePayload{
			UserID: &ghost,
			Action: "kick",
		}))
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("cible absente", func(t *testing.T) {
		err := f.chat.HandleEvent(client, moderateEvent(t, dto.ModeratePayload{
			Action: "kick",
		}))
		require.Error(t, err)
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	})
}
