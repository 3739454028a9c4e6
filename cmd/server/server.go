package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/database"
	"github.com/ashradio/chat-server/internal/handlers"
	"github.com/ashradio/chat-server/internal/roles"
	"github.com/ashradio/chat-server/internal/services"
	ws "github.com/ashradio/chat-server/internal/websocket"
	"github.com/ashradio/chat-server/pkg/auth"
)

// tokenDuration : validité des JWT de session.
const tokenDuration = 7 * 24 * time.Hour

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
	Logger *zap.Logger
}

func NewServer() (*Server, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		godotenv.Load()
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	jwtMgr := auth.NewJWTManager(os.Getenv("JWT_SECRET"), tokenDuration)

	hub := ws.NewHub(logger)

	channelSvc := services.NewChannelService(db, logger)
	xpSvc := services.NewXPService(db, logger)
	messageSvc := services.NewMessageService(db, hub, xpSvc, logger)
	moderationSvc := services.NewModerationService(db, channelSvc, hub, logger)
	commandSvc := services.NewCommandService(db, channelSvc, moderationSvc, xpSvc, hub, logger)

	if err := channelSvc.SeedDefaults(); err != nil {
		return nil, err
	}

	authH := handlers.NewAuthHandler(db, jwtMgr, rdb, xpSvc, logger)
	channelH := handlers.NewChannelHandler(channelSvc, hub, logger)
	healthH := handlers.NewHealthHandler(db, hub)
	chatH := handlers.NewChatHandler(db, channelSvc, messageSvc, commandSvc, moderationSvc, xpSvc, hub, logger)
	wsH := handlers.NewWebSocketHandler(hub, db, chatH)

	router := gin.Default()
	registerRoutes(router, authH, channelH, healthH, wsH, jwtMgr, rdb)

	return &Server{
		Router: router,
		DB:     db,
		Redis:  rdb,
		Hub:    hub,
		Logger: logger,
	}, nil
}

func (s *Server) Run() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go s.Hub.Run()
	defer s.Hub.Stop()

	s.banner(port)
	return s.Router.Run(":" + port)
}

// banner trace le démarrage : port, channels par défaut et
// trombinoscope du staff.
func (s *Server) banner(port string) {
	names := make([]string, 0, len(services.DefaultChannels))
	for _, ch := range services.DefaultChannels {
		names = append(names, ch.Name)
	}

	staff := make([]string, 0)
	for username, role := range roles.StaffRoster() {
		staff = append(staff, username+" ("+string(role)+")")
	}

	s.Logger.Info("serveur Ash-Radio démarré",
		zap.String("port", port),
		zap.Strings("channels", names),
		zap.Strings("staff", staff),
	)
}
