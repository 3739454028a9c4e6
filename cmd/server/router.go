package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/ashradio/chat-server/internal/handlers"
	"github.com/ashradio/chat-server/internal/middleware"
	"github.com/ashradio/chat-server/pkg/auth"
)

func registerRoutes(
	r *gin.Engine,
	authH *handlers.AuthHandler,
	channelH *handlers.ChannelHandler,
	healthH *handlers.HealthHandler,
	wsH *handlers.WebSocketHandler,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	api := r.Group("/api")
	{
		api.GET("/health", healthH.Health)
		api.GET("/channels", middleware.AuthMiddleware(jwtMgr, rdb), channelH.List)
		api.POST("/channels", middleware.AuthMiddleware(jwtMgr, rdb), channelH.Create)
	}

	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
