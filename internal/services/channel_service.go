package services

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
	"github.com/ashradio/chat-server/pkg/apperr"
)

// Channels par défaut d'Ash-Radio, créés au démarrage s'ils n'existent pas.
var DefaultChannels = []models.Channel{
	{
		Name:        "#general",
		Description: "Canal principal de la communauté Ash-Radio",
		Topic:       "🎧 Bienvenue sur Ash-Radio ! Discutez, partagez et profitez de la musique ensemble !",
		Type:        "public",
		Color:       "#3B82F6",
	},
	{
		Name:        "#musique",
		Description: "Partagez vos découvertes musicales et coups de cœur",
		Topic:       "🎵 Tout sur la musique : découvertes, recommandations, clips !",
		Type:        "thematic",
		Color:       "#10B981",
	},
	{
		Name:        "#radio",
		Description: "Discussions sur les émissions et contenus radio",
		Topic:       "📻 Parlons radio ! Émissions, programmation, suggestions...",
		Type:        "thematic",
		Color:       "#F59E0B",
	},
	{
		Name:        "#détente",
		Description: "Canal pour discussions détendues et hors-sujet",
		Topic:       "☕ Zone détente pour papoter de tout et de rien !",
		Type:        "public",
		Color:       "#8B5CF6",
	},
	{
		Name:        "#vocal",
		Description: "Messages vocaux et discussions audio",
		Topic:       "🎤 Exprimez-vous avec des messages vocaux !",
		Type:        "voice",
		Color:       "#EF4444",
	},
}

// DefaultChannelName : channel rejoint automatiquement à la connexion.
const DefaultChannelName = "#general"

type ChannelService struct {
	store  Store
	logger *zap.Logger
}

func NewChannelService(store Store, logger *zap.Logger) *ChannelService {
	return &ChannelService{store: store, logger: logger}
}

// CreateChannelSpec : paramètres de création d'un channel custom.
type CreateChannelSpec struct {
	Name        string
	Description string
	Topic       string
	Type        string
	IsPrivate   bool
	Password    string
	Color       string
	MaxMembers  int
}

// NormalizeName garantit le préfixe conventionnel "#".
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if !strings.HasPrefix(name, "#") {
		return "#" + name
	}
	return name
}

// CreateChannel crée un channel et enrôle le créateur avec tous les droits.
func (s *ChannelService) CreateChannel(spec CreateChannelSpec, ownerID uuid.UUID) (*models.Channel, error) {
	name := NormalizeName(spec.Name)
	if name == "" {
		return nil, apperr.InvalidArg("le nom du channel est requis")
	}

	chType := spec.Type
	if chType == "" {
		chType = "public"
	}
	maxMembers := spec.MaxMembers
	if maxMembers == 0 {
		maxMembers = 100
	}

	channel := &models.Channel{
		Name:        name,
		Description: spec.Description,
		Topic:       spec.Topic,
		Type:        chType,
		IsPrivate:   spec.IsPrivate,
		Password:    spec.Password,
		Color:       spec.Color,
		OwnerID:     ownerID,
		MaxMembers:  maxMembers,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}

	if err := s.store.CreateChannel(channel); err != nil {
		return nil, err
	}

	if ownerID != uuid.Nil {
		member := &models.ChannelMember{
			UserID:    ownerID,
			ChannelID: channel.ID,
			CanWrite:  true,
			CanInvite: true,
			JoinedAt:  time.Now(),
		}
		if err := s.store.CreateMembership(member); err != nil {
			return nil, err
		}
	}

	s.logger.Info("channel créé", zap.String("name", channel.Name))
	return channel, nil
}

// SeedDefaults crée les channels par défaut, idempotent par nom.
func (s *ChannelService) SeedDefaults() error {
	for _, def := range DefaultChannels {
		if _, err := s.store.FindChannelByName(def.Name); err == nil {
			continue
		} else if !apperr.Is(err, apperr.CodeNotFound) {
			return err
		}

		channel := def
		channel.IsActive = true
		channel.MaxMembers = 100
		channel.CreatedAt = time.Now()
		if err := s.store.CreateChannel(&channel); err != nil {
			// Un redémarrage concurrent a pu créer le channel entre-temps.
			if apperr.Is(err, apperr.CodeAlreadyExists) {
				continue
			}
			return err
		}
		s.logger.Info("channel par défaut créé", zap.String("name", channel.Name))
	}
	return nil
}

// DefaultChannel retourne le channel rejoint à la connexion.
func (s *ChannelService) DefaultChannel() (*models.Channel, error) {
	return s.store.FindChannelByName(DefaultChannelName)
}

func (s *ChannelService) GetChannel(id uuid.UUID) (*models.Channel, error) {
	return s.store.GetChannel(id)
}

func (s *ChannelService) FindByName(name string) (*models.Channel, error) {
	return s.store.FindChannelByName(NormalizeName(name))
}

// ChannelInfo : channel + compteur de membres dérivé.
type ChannelInfo struct {
	models.Channel
	MemberCount int64 `json:"memberCount"`
}

// ListPublicChannels exclut les channels privés et inactifs.
func (s *ChannelService) ListPublicChannels() ([]ChannelInfo, error) {
	channels, err := s.store.ListPublicChannels()
	if err != nil {
		return nil, err
	}

	infos := make([]ChannelInfo, 0, len(channels))
	for _, ch := range channels {
		count, err := s.store.CountMembers(ch.ID)
		if err != nil {
			return nil, err
		}
		ch.Password = ""
		infos = append(infos, ChannelInfo{Channel: ch, MemberCount: count})
	}
	return infos, nil
}

// JoinChannel vérifie mot de passe et capacité puis crée l'adhésion.
// Rejoindre deux fois est une erreur, pas un upsert.
func (s *ChannelService) JoinChannel(channelID, userID uuid.UUID, password string) (*models.ChannelMember, error) {
	channel, err := s.store.GetChannel(channelID)
	if err != nil {
		return nil, err
	}
	if !channel.IsActive {
		return nil, apperr.NotFound("channel introuvable ou inactif")
	}

	if channel.Password != "" && channel.Password != password {
		return nil, apperr.Forbidden("mot de passe incorrect")
	}

	// La capacité est vérifiée avant l'unicité : un channel plein refuse
	// même un mot de passe correct.
	if channel.MaxMembers > 0 {
		count, err := s.store.CountMembers(channelID)
		if err != nil {
			return nil, err
		}
		if count >= int64(channel.MaxMembers) {
			return nil, apperr.FailedPrecondition("channel plein")
		}
	}

	member := &models.ChannelMember{
		UserID:    userID,
		ChannelID: channelID,
		CanWrite:  true,
		CanInvite: false,
		IsMuted:   false,
		JoinedAt:  time.Now(),
	}
	if err := s.store.CreateMembership(member); err != nil {
		return nil, err
	}
	return member, nil
}

// LeaveChannel est idempotent : quitter deux fois n'est pas une erreur.
func (s *ChannelService) LeaveChannel(channelID, userID uuid.UUID) error {
	return s.store.DeleteMembership(userID, channelID)
}

// MemberInfo : utilisateur + permissions dans le channel.
type MemberInfo struct {
	User       models.User
	Membership models.ChannelMember
}

// GetChannelMembers retourne les membres triés : admins d'abord,
// puis niveau décroissant, puis ancienneté.
func (s *ChannelService) GetChannelMembers(channelID uuid.UUID) ([]MemberInfo, error) {
	memberships, err := s.store.ListMemberships(channelID)
	if err != nil {
		return nil, err
	}

	infos := make([]MemberInfo, 0, len(memberships))
	for _, m := range memberships {
		user, err := s.store.GetUser(m.UserID)
		if err != nil {
			if apperr.Is(err, apperr.CodeNotFound) {
				continue
			}
			return nil, err
		}
		infos = append(infos, MemberInfo{User: *user, Membership: m})
	}

	sortMembers(infos)
	return infos, nil
}

func sortMembers(infos []MemberInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		return memberLess(infos[i], infos[j])
	})
}

func memberLess(a, b MemberInfo) bool {
	ra, rb := roles.Rank(roles.Parse(a.User.Role)), roles.Rank(roles.Parse(b.User.Role))
	if ra != rb {
		return ra < rb
	}
	if a.User.Level != b.User.Level {
		return a.User.Level > b.User.Level
	}
	return a.Membership.JoinedAt.Before(b.Membership.JoinedAt)
}

// MuteMember pose un mute borné dans le temps sur l'adhésion.
func (s *ChannelService) MuteMember(channelID, userID uuid.UUID, until time.Time) error {
	member, err := s.store.GetMembership(userID, channelID)
	if err != nil {
		return err
	}
	member.IsMuted = true
	member.MuteUntil = &until
	return s.store.UpdateMembership(member)
}

// UnmuteMember lève le mute immédiatement.
func (s *ChannelService) UnmuteMember(channelID, userID uuid.UUID) error {
	member, err := s.store.GetMembership(userID, channelID)
	if err != nil {
		return err
	}
	member.IsMuted = false
	member.MuteUntil = nil
	return s.store.UpdateMembership(member)
}

// SetTopic met à jour le sujet du channel.
func (s *ChannelService) SetTopic(channelID uuid.UUID, topic string) error {
	channel, err := s.store.GetChannel(channelID)
	if err != nil {
		return err
	}
	channel.Topic = topic
	return s.store.UpdateChannel(channel)
}

// Invite enrôle directement un utilisateur, réservé aux membres canInvite.
func (s *ChannelService) Invite(channelID, senderID uuid.UUID, receiverUsername string) (*models.User, error) {
	sender, err := s.store.GetMembership(senderID, channelID)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, apperr.Forbidden("permissions insuffisantes pour inviter")
		}
		return nil, err
	}
	if !sender.CanInvite {
		return nil, apperr.Forbidden("permissions insuffisantes pour inviter")
	}

	receiver, err := s.store.FindUserByUsername(receiverUsername)
	if err != nil {
		return nil, err
	}

	member := &models.ChannelMember{
		UserID:    receiver.ID,
		ChannelID: channelID,
		CanWrite:  true,
		JoinedAt:  time.Now(),
	}
	if err := s.store.CreateMembership(member); err != nil {
		return nil, err
	}
	return receiver, nil
}
