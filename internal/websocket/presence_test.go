package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(username, role string, level int, joinedAt time.Time) PresenceEntry {
	return PresenceEntry{
		UserID:   uuid.New(),
		Username: username,
		Role:     role,
		Level:    level,
		JoinedAt: joinedAt,
	}
}

func TestPresenceOrdering(t *testing.T) {
	registry := NewPresenceRegistry()
	channelID := uuid.New()
	base := time.Now()

	// Inséré dans le désordre exprès.
	registry.Register(channelID, entry("fan-recent", "user", 3, base.Add(3*time.Second)))
	registry.Register(channelID, entry("kisslove", "moderator", 2, base.Add(2*time.Second)))
	registry.Register(channelID, entry("fan-veteran", "user", 9, base.Add(4*time.Second)))
	registry.Register(channelID, entry("ashley", "admin", 1, base.Add(5*time.Second)))
	registry.Register(channelID, entry("fan-senior", "user", 3, base.Add(time.Second)))

	list := registry.List(channelID)
	require.Len(t, list, 5)

	// Rang de rôle, puis niveau décroissant, puis ancienneté.
	assert.Equal(t, "ashley", list[0].Username)
	assert.Equal(t, "kisslove", list[1].Username)
	assert.Equal(t, "fan-veteran", list[2].Username)
	assert.Equal(t, "fan-senior", list[3].Username)
	assert.Equal(t, "fan-recent", list[4].Username)
}

func TestPresenceRegisterIdempotent(t *testing.T) {
	registry := NewPresenceRegistry()
	channelID := uuid.New()

	e := entry("fan42", "user", 1, time.Now())
	registry.Register(channelID, e)
	registry.Register(channelID, e)

	assert.Equal(t, 1, registry.Count(channelID))
}

func TestPresenceRemoveNoop(t *testing.T) {
	registry := NewPresenceRegistry()
	channelID := uuid.New()

	// Retirer une présence absente n'est pas une erreur.
	registry.Remove(channelID, uuid.New())
	assert.Equal(t, 0, registry.Count(channelID))

	e := entry("fan42", "user", 1, time.Now())
	registry.Register(channelID, e)
	registry.Remove(channelID, e.UserID)
	registry.Remove(channelID, e.UserID)
	assert.Empty(t, registry.List(channelID))
}
