package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTypingExpiry(t *testing.T) {
	tracker := NewTypingTracker()
	now := time.Now()
	tracker.now = func() time.Time { return now }

	channelID := uuid.New()
	userID := uuid.New()
	tracker.Start(channelID, userID, "fan42")

	assert.Equal(t, []string{"fan42"}, tracker.List(channelID))

	// Avance de 4 secondes sans rafraîchissement : l'entrée est périmée
	// sans aucun typing_stop explicite.
	now = now.Add(4 * time.Second)
	assert.Empty(t, tracker.List(channelID))
}

func TestTypingRefresh(t *testing.T) {
	tracker := NewTypingTracker()
	now := time.Now()
	tracker.now = func() time.Time { return now }

	channelID := uuid.New()
	userID := uuid.New()
	tracker.Start(channelID, userID, "fan42")

	// Un nouveau start repousse l'expiration.
	now = now.Add(2 * time.Second)
	tracker.Start(channelID, userID, "fan42")
	now = now.Add(2 * time.Second)
	assert.Equal(t, []string{"fan42"}, tracker.List(channelID))
}

func TestTypingStop(t *testing.T) {
	tracker := NewTypingTracker()
	channelID := uuid.New()
	userID := uuid.New()

	tracker.Start(channelID, userID, "fan42")
	tracker.Stop(channelID, userID)
	assert.Empty(t, tracker.List(channelID))

	// Stop sans entrée est un no-op.
	tracker.Stop(channelID, userID)
	tracker.Stop(uuid.New(), userID)
}

func TestTypingScopedPerChannel(t *testing.T) {
	tracker := NewTypingTracker()
	a := uuid.New()
	b := uuid.New()
	userID := uuid.New()

	tracker.Start(a, userID, "fan42")
	assert.Equal(t, []string{"fan42"}, tracker.List(a))
	assert.Empty(t, tracker.List(b))
}
