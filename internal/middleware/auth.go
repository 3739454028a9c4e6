package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/ashradio/chat-server/pkg/auth"
)

const (
	UserIDKey   = "userID"
	UsernameKey = "username"
)

// BlacklistPrefix : clé Redis des tokens révoqués par /logout.
const BlacklistPrefix = "blacklist:"

func authenticate(c *gin.Context, token string, jwtManager *auth.JWTManager, redisClient *redis.Client) bool {
	exists, err := redisClient.Exists(context.Background(), BlacklistPrefix+token).Result()
	if err != nil || exists > 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token révoqué"})
		c.Abort()
		return false
	}

	claims, err := jwtManager.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token invalide"})
		c.Abort()
		return false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identifiant utilisateur invalide"})
		c.Abort()
		return false
	}

	c.Set(UserIDKey, userID)
	c.Set(UsernameKey, claims.Username)
	return true
}

// AuthMiddleware vérifie le JWT des routes HTTP.
func AuthMiddleware(jwtManager *auth.JWTManager, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token manquant ou invalide"})
			c.Abort()
			return
		}

		if authenticate(c, token, jwtManager, redisClient) {
			c.Next()
		}
	}
}

// WSAuthMiddleware accepte aussi le token en query string : les
// clients navigateur ne peuvent pas poser de header sur l'upgrade.
func WSAuthMiddleware(jwtManager *auth.JWTManager, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
					token = parts[1]
				}
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token manquant"})
			c.Abort()
			return
		}

		if authenticate(c, token, jwtManager, redisClient) {
			c.Next()
		}
	}
}
