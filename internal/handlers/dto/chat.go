package dto

import "github.com/google/uuid"

// JoinChannelPayload : événement entrant join_channel.
type JoinChannelPayload struct {
	ChannelID uuid.UUID `json:"channelId"`
	Password  string    `json:"password,omitempty"`
}

// SendMessagePayload : événement entrant send_message. Le contenu
// peut être une commande slash, interceptée avant l'append.
type SendMessagePayload struct {
	Content         string `json:"content"`
	Type            string `json:"type,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
	AudioURL        string `json:"audioUrl,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

// ModeratePayload : événement entrant moderate_user, variante
// bouton du panneau de modération (même circuit que les commandes).
// La cible est désignée par userId ; username reste accepté pour
// les clients qui n'ont que le pseudo.
type ModeratePayload struct {
	UserID          *uuid.UUID `json:"userId,omitempty"`
	Username        string     `json:"username,omitempty"`
	Action          string     `json:"action"`
	Reason          string     `json:"reason,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	Channel         *uuid.UUID `json:"channel,omitempty"`
}

// TypingPayload : événements sortants user_typing / user_stop_typing.
type TypingPayload struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Channel  uuid.UUID `json:"channel"`
}

type CreateChannelRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Description string `json:"description,omitempty"`
	Topic       string `json:"topic,omitempty"`
	Type        string `json:"type,omitempty"`
	IsPrivate   bool   `json:"isPrivate,omitempty"`
	Password    string `json:"password,omitempty"`
	Color       string `json:"color,omitempty"`
	MaxMembers  int    `json:"maxMembers,omitempty"`
}
