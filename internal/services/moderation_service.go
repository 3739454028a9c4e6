package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
	"github.com/ashradio/chat-server/pkg/apperr"
)

// DefaultReason remplace une raison absente dans le journal.
const DefaultReason = "Aucune raison spécifiée"

// DefaultMuteMinutes : durée de mute quand aucune n'est fournie.
const DefaultMuteMinutes = 10

// ModerationService applique la matrice de permissions, modifie l'état
// visé et journalise chaque action. La diffusion du message retourné
// est à la charge de l'appelant.
type ModerationService struct {
	store    Store
	channels *ChannelService
	sessions Sessions
	logger   *zap.Logger
}

func NewModerationService(store Store, channels *ChannelService, sessions Sessions, logger *zap.Logger) *ModerationService {
	return &ModerationService{store: store, channels: channels, sessions: sessions, logger: logger}
}

func orDefault(reason string) string {
	if reason == "" {
		return DefaultReason
	}
	return reason
}

// resolveTarget retrouve la cible et vérifie la matrice de permissions.
// Auto-ciblage et rôle égal ou supérieur sont refusés pour toutes les
// actions, ban compris.
func (s *ModerationService) resolveTarget(actor *models.User, targetUsername string, action roles.Action) (*models.User, error) {
	target, err := s.store.FindUserByUsername(targetUsername)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("Utilisateur '%s' introuvable.", targetUsername))
		}
		return nil, err
	}

	if actor.ID == target.ID {
		return nil, apperr.Forbidden("Permissions insuffisantes.")
	}

	actorRole := roles.Parse(actor.Role)
	targetRole := roles.Parse(target.Role)
	if !roles.Allows(actorRole, targetRole, action) {
		if action == roles.ActionBan {
			if actorRole != roles.Admin {
				return nil, apperr.Forbidden("Seuls les administrateurs peuvent bannir des utilisateurs.")
			}
			return nil, apperr.Forbidden("Impossible de bannir un administrateur ou modérateur.")
		}
		return nil, apperr.Forbidden("Permissions insuffisantes.")
	}

	return target, nil
}

func (s *ModerationService) log(entry *models.ModerationLog) error {
	entry.CreatedAt = time.Now()
	if err := s.store.SaveModerationLog(entry); err != nil {
		return err
	}
	s.logger.Info("action de modération",
		zap.String("action", entry.Action),
		zap.String("moderator", entry.ModeratorID.String()),
		zap.String("target", entry.TargetUserID.String()),
	)
	return nil
}

// Warn journalise un avertissement sans changer l'état de la cible.
func (s *ModerationService) Warn(actor *models.User, targetUsername, reason string, channelID uuid.UUID) (string, error) {
	target, err := s.resolveTarget(actor, targetUsername, roles.ActionWarn)
	if err != nil {
		return "", err
	}
	reason = orDefault(reason)

	if err := s.log(&models.ModerationLog{
		Action:       "warn",
		Reason:       reason,
		ModeratorID:  actor.ID,
		TargetUserID: target.ID,
		ChannelID:    channelID,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("⚠️ %s a reçu un avertissement de %s. Raison: %s",
		target.Username, actor.Username, reason), nil
}

// Kick retire l'adhésion puis coupe la session sur ce channel.
// La déconnexion est best-effort : l'adhésion supprimée fait foi.
func (s *ModerationService) Kick(actor *models.User, targetUsername, reason string, channelID uuid.UUID) (string, error) {
	target, err := s.resolveTarget(actor, targetUsername, roles.ActionKick)
	if err != nil {
		return "", err
	}
	reason = orDefault(reason)

	if err := s.channels.LeaveChannel(channelID, target.ID); err != nil {
		return "", err
	}
	s.sessions.KickFromChannel(target.ID, channelID)

	if err := s.log(&models.ModerationLog{
		Action:       "kick",
		Reason:       reason,
		ModeratorID:  actor.ID,
		TargetUserID: target.ID,
		ChannelID:    channelID,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("🚫 %s a été expulsé par %s. Raison: %s",
		target.Username, actor.Username, reason), nil
}

// Mute pose un mute borné ; l'expiration sera constatée à l'écriture.
func (s *ModerationService) Mute(actor *models.User, targetUsername string, durationMinutes int, reason string, channelID uuid.UUID) (string, error) {
	target, err := s.resolveTarget(actor, targetUsername, roles.ActionMute)
	if err != nil {
		return "", err
	}
	if durationMinutes <= 0 {
		durationMinutes = DefaultMuteMinutes
	}
	reason = orDefault(reason)

	until := time.Now().Add(time.Duration(durationMinutes) * time.Minute)
	if err := s.channels.MuteMember(channelID, target.ID, until); err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return "", apperr.NotFound(fmt.Sprintf("%s n'est pas membre de ce channel.", target.Username))
		}
		return "", err
	}

	if err := s.log(&models.ModerationLog{
		Action:          "mute",
		Reason:          reason,
		ModeratorID:     actor.ID,
		TargetUserID:    target.ID,
		ChannelID:       channelID,
		DurationSeconds: durationMinutes * 60,
		ExpiresAt:       &until,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("🔇 %s a été rendu muet pour %d minutes par %s. Raison: %s",
		target.Username, durationMinutes, actor.Username, reason), nil
}

// Unmute lève le mute sans attendre l'expiration.
func (s *ModerationService) Unmute(actor *models.User, targetUsername string, channelID uuid.UUID) (string, error) {
	target, err := s.resolveTarget(actor, targetUsername, roles.ActionUnmute)
	if err != nil {
		return "", err
	}

	if err := s.channels.UnmuteMember(channelID, target.ID); err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return "", apperr.NotFound(fmt.Sprintf("%s n'est pas membre de ce channel.", target.Username))
		}
		return "", err
	}

	if err := s.log(&models.ModerationLog{
		Action:       "unmute",
		ModeratorID:  actor.ID,
		TargetUserID: target.ID,
		ChannelID:    channelID,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("🔊 %s peut de nouveau parler grâce à %s.",
		target.Username, actor.Username), nil
}

// Ban est définitif : rôle banni, refus à l'authentification,
// session coupée immédiatement.
func (s *ModerationService) Ban(actor *models.User, targetUsername, reason string, channelID uuid.UUID) (string, error) {
	target, err := s.resolveTarget(actor, targetUsername, roles.ActionBan)
	if err != nil {
		return "", err
	}
	reason = orDefault(reason)

	target.Role = string(roles.Banned)
	if err := s.store.UpdateUser(target); err != nil {
		return "", err
	}
	s.sessions.Disconnect(target.ID)

	if err := s.log(&models.ModerationLog{
		Action:       "ban",
		Reason:       reason,
		ModeratorID:  actor.ID,
		TargetUserID: target.ID,
		ChannelID:    channelID,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("🔨 %s a été banni définitivement par %s. Raison: %s",
		target.Username, actor.Username, reason), nil
}

// Promote élève un utilisateur au rang de modérateur.
func (s *ModerationService) Promote(actor *models.User, targetUsername string, channelID uuid.UUID) (string, error) {
	target, err := s.resolveTarget(actor, targetUsername, roles.ActionPromote)
	if err != nil {
		return "", err
	}
	if roles.Parse(target.Role) != roles.User {
		return "", apperr.InvalidArg(fmt.Sprintf("%s est déjà modérateur ou plus.", target.Username))
	}

	target.Role = string(roles.Moderator)
	target.Color = roles.Color(roles.Moderator)
	if err := s.store.UpdateUser(target); err != nil {
		return "", err
	}

	if err := s.log(&models.ModerationLog{
		Action:       "promote",
		ModeratorID:  actor.ID,
		TargetUserID: target.ID,
		ChannelID:    channelID,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("⭐ %s a été promu modérateur par %s.",
		target.Username, actor.Username), nil
}

// Demote ramène un modérateur au rang d'utilisateur.
func (s *ModerationService) Demote(actor *models.User, targetUsername string, channelID uuid.UUID) (string, error) {
	target, err := s.resolveTarget(actor, targetUsername, roles.ActionDemote)
	if err != nil {
		return "", err
	}
	if roles.Parse(target.Role) != roles.Moderator {
		return "", apperr.InvalidArg(fmt.Sprintf("%s n'est pas modérateur.", target.Username))
	}

	target.Role = string(roles.User)
	target.Color = roles.Color(roles.User)
	if err := s.store.UpdateUser(target); err != nil {
		return "", err
	}

	if err := s.log(&models.ModerationLog{
		Action:       "demote",
		ModeratorID:  actor.ID,
		TargetUserID: target.ID,
		ChannelID:    channelID,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("📉 %s a été rétrogradé simple utilisateur par %s.",
		target.Username, actor.Username), nil
}
