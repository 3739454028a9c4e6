package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashradio/chat-server/internal/handlers/dto"
	"github.com/ashradio/chat-server/internal/middleware"
	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
	"github.com/ashradio/chat-server/internal/services"
	"github.com/ashradio/chat-server/pkg/apperr"
	"github.com/ashradio/chat-server/pkg/auth"
)

type AuthHandler struct {
	store      services.Store
	jwtManager *auth.JWTManager
	redis      *redis.Client
	xp         *services.XPService
	logger     *zap.Logger
}

func NewAuthHandler(store services.Store, jwtMgr *auth.JWTManager, rdb *redis.Client, xp *services.XPService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: store, jwtManager: jwtMgr, redis: rdb, xp: xp, logger: logger}
}

func userPayload(user *models.User) dto.UserPayload {
	return dto.UserPayload{
		ID:       user.ID.String(),
		Username: user.Username,
		Role:     user.Role,
		Color:    user.Color,
		Avatar:   user.Avatar,
		XP:       user.XP,
		Level:    user.Level,
	}
}

// Register crée le compte. Le rôle vient du trombinoscope : un
// pseudo du staff obtient son rang directement.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "impossible de hacher le mot de passe"})
		return
	}

	role := roles.Resolve(req.Username)
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         string(role),
		Color:        roles.Color(role),
		Avatar:       roles.Avatar(req.Username),
		Level:        1,
		CreatedAt:    time.Now(),
	}

	if err := h.store.SaveUser(user); err != nil {
		if apperr.Is(err, apperr.CodeAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "nom d'utilisateur ou email déjà pris"})
			return
		}
		h.logger.Error("échec de création de compte", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "impossible de créer le compte"})
		return
	}

	token, err := h.jwtManager.Generate(user.ID.String(), user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "impossible de générer le token"})
		return
	}

	h.logger.Info("compte créé",
		zap.String("username", user.Username),
		zap.String("role", user.Role))

	c.JSON(http.StatusCreated, dto.AuthResponse{Token: token, User: userPayload(user)})
}

// Login vérifie les identifiants et rafraîchit le rôle depuis le
// trombinoscope. Un compte banni reste banni : le trombinoscope ne
// l'écrase jamais, la connexion est refusée avant toute dérivation.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.FindUserByLogin(req.Login)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identifiants invalides"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identifiants invalides"})
		return
	}

	if roles.Parse(user.Role) == roles.Banned {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "vous êtes banni du serveur"})
		return
	}

	if rosterRole := roles.Resolve(user.Username); string(rosterRole) != user.Role {
		user.Role = string(rosterRole)
		user.Color = roles.Color(rosterRole)
		if err := h.store.UpdateUser(user); err != nil {
			h.logger.Warn("échec de mise à jour du rôle", zap.Error(err))
		}
	}

	// Bonus de première connexion du jour, avant le rafraîchissement
	// de last_seen qui ancre le jour courant.
	if result, err := h.xp.AwardDailyLoginXP(user.ID); err != nil {
		h.logger.Warn("échec du bonus de connexion", zap.Error(err))
	} else if result != nil {
		user.XP = result.TotalXP
		user.Level = result.NewLevel
	}

	if err := h.store.UpdateLastSeen(user.ID); err != nil {
		h.logger.Warn("échec de mise à jour de last_seen", zap.Error(err))
	}

	token, err := h.jwtManager.Generate(user.ID.String(), user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "impossible de générer le token"})
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{Token: token, User: userPayload(user)})
}

// Logout met le token en liste noire Redis jusqu'à son expiration.
func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken, err := auth.ExtractTokenFromHeader(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token invalide"})
		return
	}

	ttl := time.Until(exp)
	if ttl > 0 {
		h.redis.Set(context.Background(), middleware.BlacklistPrefix+rawToken, 1, ttl)
	}

	c.Status(http.StatusOK)
}
