package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tripmate/internal/config"
	handlers "tripmate/internal/handlers/shared"
	"tripmate/internal/middleware"
	"tripmate/internal/repositories/mongodb"
	"tripmate/internal/services"
	"tripmate/pkg/cache"
	"tripmate/pkg/database"
	"tripmate/pkg/logger"
	"tripmate/pkg/websocket"
	"tripmate/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
		Colors: cfg.App.Debug,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		appLogger.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancelIndexes()

	// The cache is optional: repositories fall through to the store when it
	// is absent.
	var cacheService services.CacheService
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Warn("Redis unavailable, running without cache")
	} else {
		defer redisCache.Close()
		cacheService = services.NewRedisCacheService(redisCache)
	}

	// Repositories
	conversationRepo := mongodb.NewConversationRepository(db.Database, cacheService, appLogger)
	joinRequestRepo := mongodb.NewJoinRequestRepository(db.Database, cacheService)
	notificationRepo := mongodb.NewNotificationRepository(db.Database)

	// Services
	messagingService := services.NewMessagingService(conversationRepo, appLogger, cfg.WebSocket.TypingIdleTimeout)
	defer messagingService.Shutdown()
	conversationService := services.NewConversationService(conversationRepo, appLogger)

	wsHandler := websocket.NewHandler(messagingService, websocket.Config{
		ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		PingInterval:     cfg.WebSocket.PingInterval,
		PongTimeout:      cfg.WebSocket.PongTimeout,
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
	})

	notificationService := services.NewNotificationService(notificationRepo, wsHandler, appLogger)
	joinRequestService := services.NewJoinRequestService(joinRequestRepo, notificationService, appLogger)

	// Handlers
	conversationHandler := handlers.NewConversationHandler(conversationService)
	messagingHandler := handlers.NewMessagingHandler(messagingService)
	joinRequestHandler := handlers.NewJoinRequestHandler(joinRequestService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())

	v1 := router.Group("/api/v1")
	{
		routes.SetupMessagingRoutes(v1, conversationHandler, messagingHandler, cfg.Security.JWTSecret)
		routes.SetupJoinRequestRoutes(v1, joinRequestHandler, cfg.Security.JWTSecret)
		routes.SetupNotificationRoutes(v1, notificationHandler, cfg.Security.JWTSecret)
	}

	router.GET(cfg.WebSocket.Path, middleware.AuthRequired(cfg.Security.JWTSecret), wsHandler.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting server on port %d", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
}
