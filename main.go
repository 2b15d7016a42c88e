package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/techwave453-del/CYA-kenya/internal/config"
	"github.com/techwave453-del/CYA-kenya/internal/db"
	"github.com/techwave453-del/CYA-kenya/internal/handlers"
	"github.com/techwave453-del/CYA-kenya/internal/middleware"
	"github.com/techwave453-del/CYA-kenya/internal/observability"
	"github.com/techwave453-del/CYA-kenya/internal/presence"
	"github.com/techwave453-del/CYA-kenya/internal/rabbitmq"
	"github.com/techwave453-del/CYA-kenya/internal/repositories"
	"github.com/techwave453-del/CYA-kenya/internal/retention"
	"github.com/techwave453-del/CYA-kenya/internal/telemetry"
	"github.com/techwave453-del/CYA-kenya/internal/ws"
)

const serviceName = "cya-kenya-chat"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	repo, err := buildRepository(cfg)
	if err != nil {
		log.Fatalf("failed to open message store: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	audit := telemetry.NewAuditEmitter(publisher, "chat.audit", serviceName, cfg.Environment)

	hub := ws.NewHub()
	tracker := presence.NewTracker()
	typing := presence.NewTypingTracker(presence.TypingTimeout)

	var broadcaster ws.Broadcaster = hub
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		bridge := ws.NewBridge(hub, rdb, cfg.RedisChannel)
		go bridge.Run(ctx)
		broadcaster = bridge
		log.Printf("redis bridge enabled addr=%s channel=%s", cfg.RedisAddr, cfg.RedisChannel)
	}

	sweeper := retention.NewSweeper(repo, cfg.SweepInterval)
	go sweeper.Run(ctx)

	jwtSecret := []byte(cfg.JWTSecret)
	chatHandler := handlers.NewChatHandler(repo, broadcaster, typing, tracker, audit)
	wsHandler := ws.NewHandler(hub, broadcaster, tracker, jwtSecret, publisher)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(jwtSecret)

	router.GET("/api/chat", authMiddleware, chatHandler.GetMessages)
	router.POST("/api/chat", authMiddleware, chatHandler.PostMessage)
	router.GET("/api/chat/since/:timestamp", authMiddleware, chatHandler.GetMessagesSince)
	// The clear route must be registered before the /:id route.
	router.DELETE("/api/chat/clear", authMiddleware, chatHandler.ClearMessages)
	router.DELETE("/api/chat/:id", authMiddleware, chatHandler.DeleteMessage)
	router.POST("/api/chat/:id/reaction", authMiddleware, chatHandler.ToggleReaction)
	router.POST("/api/chat/typing", authMiddleware, chatHandler.SetTyping)
	router.GET("/api/chat/typing/users", authMiddleware, chatHandler.GetTypingUsers)
	router.GET("/api/chat/online", authMiddleware, chatHandler.GetOnlineUsers)

	router.GET("/ws/chat", wsHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func buildRepository(cfg config.Config) (repositories.MessageRepository, error) {
	switch cfg.StoreBackend {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.ChatFile), 0o755); err != nil {
			return nil, err
		}
		log.Printf("using file message store path=%s", cfg.ChatFile)
		return repositories.NewFileMessageRepo(cfg.ChatFile), nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		database, err := db.Connect(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("using sqlite message store path=%s", cfg.SQLitePath)
		return repositories.NewSQLiteMessageRepo(database), nil
	}
}
