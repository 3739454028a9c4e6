package websocket

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashradio/chat-server/internal/roles"
)

// PresenceEntry est l'instantané d'un utilisateur présent dans un
// channel, suffisant pour la liste "en ligne" sans retour au store.
type PresenceEntry struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Color    string    `json:"color"`
	Avatar   string    `json:"avatar"`
	Level    int       `json:"level"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PresenceRegistry suit qui occupe quel channel. Les écritures sont
// idempotentes : un double join réécrit la même entrée.
type PresenceRegistry struct {
	mu        sync.RWMutex
	byChannel map[uuid.UUID]map[uuid.UUID]PresenceEntry
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byChannel: make(map[uuid.UUID]map[uuid.UUID]PresenceEntry),
	}
}

// Register insère ou réécrit l'entrée de l'utilisateur.
func (r *PresenceRegistry) Register(channelID uuid.UUID, entry PresenceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channel, ok := r.byChannel[channelID]
	if !ok {
		channel = make(map[uuid.UUID]PresenceEntry)
		r.byChannel[channelID] = channel
	}
	channel[entry.UserID] = entry
}

// Remove est un no-op si l'entrée n'existe pas : les courses à la
// déconnexion ne doivent pas produire d'erreur.
func (r *PresenceRegistry) Remove(channelID, userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if channel, ok := r.byChannel[channelID]; ok {
		delete(channel, userID)
		if len(channel) == 0 {
			delete(r.byChannel, channelID)
		}
	}
}

// List retourne les présents triés : rang de rôle croissant, puis
// niveau décroissant, puis ancienneté d'arrivée. C'est l'ordre
// d'affichage de la liste "en ligne", il fait partie du contrat.
func (r *PresenceRegistry) List(channelID uuid.UUID) []PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channel := r.byChannel[channelID]
	entries := make([]PresenceEntry, 0, len(channel))
	for _, entry := range channel {
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := roles.Rank(roles.Parse(entries[i].Role)), roles.Rank(roles.Parse(entries[j].Role))
		if ri != rj {
			return ri < rj
		}
		if entries[i].Level != entries[j].Level {
			return entries[i].Level > entries[j].Level
		}
		return entries[i].JoinedAt.Before(entries[j].JoinedAt)
	})
	return entries
}

// Count retourne le nombre d'utilisateurs présents dans un channel.
func (r *PresenceRegistry) Count(channelID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byChannel[channelID])
}
