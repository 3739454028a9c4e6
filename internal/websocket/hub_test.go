package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendAfterCloseIsNoop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := NewClient(hub, nil, uuid.New(), "fan42")

	client.closeSend()

	// Fermeture idempotente.
	assert.NotPanics(t, func() { client.closeSend() })

	// ReadPump peut encore tenter d'envoyer pendant l'arrêt :
	// l'événement est perdu, jamais de panique sur file fermée.
	assert.NotPanics(t, func() {
		client.enqueue([]byte(`{"type":"ping"}`))
	})

	err := client.SendEvent(EventError, nil, map[string]string{"message": "au revoir"})
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestSendEventQueues(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := NewClient(hub, nil, uuid.New(), "fan42")

	require.NoError(t, client.SendEvent(EventPing, nil, nil))
	assert.Len(t, client.Send, 1)
}

func TestCurrentChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := NewClient(hub, nil, uuid.New(), "fan42")
	hub.registerClient(client)

	_, online := hub.CurrentChannel(client.UserID)
	assert.False(t, online)

	channelID := uuid.New()
	hub.SwitchChannel(client, channelID, "#general", PresenceEntry{
		UserID:   client.UserID,
		Username: client.Username,
	}, nil)

	got, online := hub.CurrentChannel(client.UserID)
	assert.True(t, online)
	assert.Equal(t, channelID, got)

	hub.LeaveChannel(client)
	_, online = hub.CurrentChannel(client.UserID)
	assert.False(t, online)
}
