package services

import "github.com/google/uuid"

// Broadcaster diffuse des événements vers les sessions connectées.
// Implémenté par le hub WebSocket ; les tests branchent un fake.
type Broadcaster interface {
	// BroadcastToChannel envoie aux seules sessions présentes dans le channel.
	BroadcastToChannel(channelID uuid.UUID, event string, payload interface{})
	// BroadcastAll envoie à toutes les sessions connectées.
	BroadcastAll(event string, payload interface{})
	// SendToUser envoie à toutes les connexions d'un seul utilisateur.
	SendToUser(userID uuid.UUID, event string, payload interface{})
}

// Sessions expose les opérations de session requises par la modération
// et les commandes. Déconnexion best-effort : l'état persisté reste la
// source de vérité.
type Sessions interface {
	KickFromChannel(userID, channelID uuid.UUID)
	Disconnect(userID uuid.UUID)
	// CurrentChannel localise un utilisateur connecté, false sinon.
	CurrentChannel(userID uuid.UUID) (uuid.UUID, bool)
}
