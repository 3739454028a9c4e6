package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TypingTTL : au-delà, une entrée de frappe est périmée. Le client
// envoie normalement typing_stop, mais le serveur n'en dépend pas.
const TypingTTL = 3 * time.Second

type typingEntry struct {
	username string
	at       time.Time
}

// TypingTracker garde l'état "est en train d'écrire" par channel.
// Expiration paresseuse : les entrées périmées sont filtrées et
// purgées à la lecture, jamais via un timer.
type TypingTracker struct {
	mu        sync.Mutex
	byChannel map[uuid.UUID]map[uuid.UUID]typingEntry
	now       func() time.Time
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{
		byChannel: make(map[uuid.UUID]map[uuid.UUID]typingEntry),
		now:       time.Now,
	}
}

// Start enregistre ou rafraîchit l'horodatage de frappe.
func (t *TypingTracker) Start(channelID, userID uuid.UUID, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	channel, ok := t.byChannel[channelID]
	if !ok {
		channel = make(map[uuid.UUID]typingEntry)
		t.byChannel[channelID] = channel
	}
	channel[userID] = typingEntry{username: username, at: t.now()}
}

// Stop supprime l'entrée ; no-op si elle n'existe pas.
func (t *TypingTracker) Stop(channelID, userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if channel, ok := t.byChannel[channelID]; ok {
		delete(channel, userID)
		if len(channel) == 0 {
			delete(t.byChannel, channelID)
		}
	}
}

// List retourne les noms des utilisateurs en train d'écrire, entrées
// plus jeunes que TypingTTL seulement.
func (t *TypingTracker) List(channelID uuid.UUID) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	channel := t.byChannel[channelID]
	cutoff := t.now().Add(-TypingTTL)

	names := make([]string, 0, len(channel))
	for userID, entry := range channel {
		if entry.at.Before(cutoff) {
			delete(channel, userID)
			continue
		}
		names = append(names, entry.username)
	}
	if len(channel) == 0 {
		delete(t.byChannel, channelID)
	}
	return names
}
