package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/pkg/apperr"
)

// HistoryLimit borne les lectures d'historique.
const HistoryLimit = 50

type MessageService struct {
	store       Store
	broadcaster Broadcaster
	xp          *XPService
	logger      *zap.Logger
}

func NewMessageService(store Store, broadcaster Broadcaster, xp *XPService, logger *zap.Logger) *MessageService {
	return &MessageService{store: store, broadcaster: broadcaster, xp: xp, logger: logger}
}

// SendMessageInput : charge utile d'un send_message.
type SendMessageInput struct {
	Content         string
	Type            string
	ImageURL        string
	AudioURL        string
	DurationSeconds int
}

// Append valide l'éligibilité d'écriture puis enregistre et diffuse.
// Un expéditeur muet est refusé tant que muteUntil n'est pas passé ;
// l'expiration est constatée ici, à l'écriture, sans timer.
func (s *MessageService) Append(channelID uuid.UUID, sender *models.User, input SendMessageInput) (*models.Message, error) {
	if strings.TrimSpace(input.Content) == "" && input.ImageURL == "" && input.AudioURL == "" {
		return nil, apperr.InvalidArg("message vide")
	}

	member, err := s.store.GetMembership(sender.ID, channelID)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, apperr.Forbidden("vous n'êtes pas membre de ce channel")
		}
		return nil, err
	}
	if member.Muted(time.Now()) {
		return nil, apperr.Forbidden("vous êtes actuellement muet dans ce channel")
	}
	if !member.CanWrite {
		return nil, apperr.Forbidden("vous n'avez pas le droit d'écrire dans ce channel")
	}

	msgType := input.Type
	if msgType == "" {
		msgType = models.MessageText
	}

	message := &models.Message{
		ChannelID:       channelID,
		UserID:          sender.ID.String(),
		Username:        sender.Username,
		UserRole:        sender.Role,
		Type:            msgType,
		Content:         input.Content,
		ImageURL:        input.ImageURL,
		AudioURL:        input.AudioURL,
		DurationSeconds: input.DurationSeconds,
		CreatedAt:       time.Now(),
	}

	if err := s.store.SaveMessage(message); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToChannel(channelID, "new_message", message)

	s.awardXP(sender.ID, message)

	return message, nil
}

// awardXP est best-effort : un échec XP n'invalide pas le message.
// Un passage de niveau notifie l'utilisateur sur toutes ses connexions.
func (s *MessageService) awardXP(userID uuid.UUID, message *models.Message) {
	var (
		result *XPResult
		err    error
	)
	switch message.Type {
	case models.MessageImage:
		result, err = s.xp.AwardImageXP(userID)
	case models.MessageVoice:
		result, err = s.xp.AwardVoiceXP(userID, message.DurationSeconds)
	default:
		result, err = s.xp.AwardMessageXP(userID, message.Content)
	}
	if err != nil {
		s.logger.Warn("attribution XP échouée", zap.Error(err))
		return
	}
	if result != nil && result.LeveledUp {
		s.broadcaster.SendToUser(userID, "level_up", map[string]interface{}{
			"level":   result.NewLevel,
			"totalXP": result.TotalXP,
			"message": fmt.Sprintf("🎉 Félicitations ! Vous êtes maintenant niveau %d !", result.NewLevel),
		})
	}
}

// AppendSystem enregistre et diffuse un message système.
func (s *MessageService) AppendSystem(channelID uuid.UUID, text string) (*models.Message, error) {
	message := &models.Message{
		ChannelID: channelID,
		UserID:    models.SystemUserID,
		Username:  models.SystemUsername,
		Type:      models.MessageSystem,
		Content:   text,
		CreatedAt: time.Now(),
	}

	if err := s.store.SaveMessage(message); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToChannel(channelID, "new_message", message)
	return message, nil
}

// History : les 50 derniers messages, du plus ancien au plus récent.
func (s *MessageService) History(channelID uuid.UUID) ([]models.Message, error) {
	return s.store.GetChannelMessages(channelID, HistoryLimit)
}
