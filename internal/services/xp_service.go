package services

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
)

// Configuration XP d'Ash-Radio.
const (
	BaseXP       = 100
	XPMultiplier = 1.5
	MaxLevel     = 100
)

// XP gagnée par action.
const (
	XPMessage     = 1
	XPLongMessage = 2 // messages de plus de 50 caractères
	XPImageShare  = 3
	XPVoice       = 5
	XPVoiceSecond = 0.1
	XPChannelJoin = 2
	XPDailyLogin  = 10
)

// Multiplicateurs de rôle appliqués aux gains.
func roleMultiplier(r roles.Role) float64 {
	switch r {
	case roles.Admin:
		return 1.5
	case roles.Moderator:
		return 1.2
	default:
		return 1.0
	}
}

type XPService struct {
	store  Store
	logger *zap.Logger
}

func NewXPService(store Store, logger *zap.Logger) *XPService {
	return &XPService{store: store, logger: logger}
}

// XPForLevel : XP totale requise pour atteindre un niveau.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(math.Floor(BaseXP * math.Pow(XPMultiplier, float64(level-1))))
}

// LevelFromXP : niveau correspondant à une XP totale.
func LevelFromXP(xp int) int {
	level := 1
	for level < MaxLevel && xp >= XPForLevel(level+1) {
		level++
	}
	return level
}

// LevelInfo : progression vers le niveau suivant, pour /stats.
type LevelInfo struct {
	CurrentLevel   int `json:"currentLevel"`
	CurrentXP      int `json:"currentXP"`
	XPForCurrent   int `json:"xpForCurrentLevel"`
	XPForNext      int `json:"xpForNextLevel"`
	ProgressToNext int `json:"progressToNext"`
}

func GetLevelInfo(xp int) LevelInfo {
	level := LevelFromXP(xp)
	return LevelInfo{
		CurrentLevel:   level,
		CurrentXP:      xp,
		XPForCurrent:   XPForLevel(level),
		XPForNext:      XPForLevel(level + 1),
		ProgressToNext: xp - XPForLevel(level),
	}
}

// XPResult : résultat d'un gain d'XP.
type XPResult struct {
	OldLevel  int
	NewLevel  int
	LeveledUp bool
	TotalXP   int
	XPGained  int
}

// AddXP crédite un utilisateur, multiplicateur de rôle compris.
func (s *XPService) AddXP(userID uuid.UUID, amount float64, source string) (*XPResult, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}

	gained := int(math.Floor(amount * roleMultiplier(roles.Parse(user.Role))))
	oldLevel := user.Level
	user.XP += gained
	user.Level = LevelFromXP(user.XP)

	if err := s.store.UpdateUser(user); err != nil {
		return nil, err
	}

	if user.Level > oldLevel {
		s.logger.Info("niveau atteint",
			zap.String("username", user.Username),
			zap.Int("level", user.Level),
			zap.String("source", source),
		)
	}

	return &XPResult{
		OldLevel:  oldLevel,
		NewLevel:  user.Level,
		LeveledUp: user.Level > oldLevel,
		TotalXP:   user.XP,
		XPGained:  gained,
	}, nil
}

// AwardMessageXP : +1 par message, +2 de bonus au-delà de 50 caractères.
func (s *XPService) AwardMessageXP(userID uuid.UUID, content string) (*XPResult, error) {
	xp := float64(XPMessage)
	if len([]rune(content)) > 50 {
		xp += XPLongMessage
	}
	return s.AddXP(userID, xp, "message")
}

func (s *XPService) AwardImageXP(userID uuid.UUID) (*XPResult, error) {
	return s.AddXP(userID, XPImageShare, "image_share")
}

// AwardVoiceXP dépend de la durée du message vocal.
func (s *XPService) AwardVoiceXP(userID uuid.UUID, durationSeconds int) (*XPResult, error) {
	xp := math.Floor(float64(durationSeconds)*XPVoiceSecond) + XPVoice
	return s.AddXP(userID, xp, "voice_message")
}

func (s *XPService) AwardChannelJoinXP(userID uuid.UUID) (*XPResult, error) {
	return s.AddXP(userID, XPChannelJoin, "channel_join")
}

// AwardDailyLoginXP crédite la première connexion du jour. L'appelant
// doit rafraîchir lastSeenAt après coup ; la comparaison se fait sur
// le jour calendaire de la dernière visite. Retourne nil sans erreur
// si le bonus est déjà pris.
func (s *XPService) AwardDailyLoginXP(userID uuid.UUID) (*XPResult, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	y1, m1, d1 := user.LastSeenAt.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return nil, nil
	}
	return s.AddXP(userID, XPDailyLogin, "daily_login")
}

// Leaderboard : top des non-bannis, niveau décroissant puis XP décroissante.
func (s *XPService) Leaderboard(limit int) ([]models.User, error) {
	return s.store.TopUsers(limit)
}
