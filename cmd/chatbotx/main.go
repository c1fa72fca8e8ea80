package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatbotx/gateway/internal/api"
	"github.com/chatbotx/gateway/internal/api/chat"
	"github.com/chatbotx/gateway/internal/api/ws"
	"github.com/chatbotx/gateway/internal/cache"
	"github.com/chatbotx/gateway/internal/config"
	"github.com/chatbotx/gateway/internal/nlp"
	"github.com/chatbotx/gateway/internal/nlu"
	"github.com/chatbotx/gateway/internal/realtime"
	"github.com/chatbotx/gateway/internal/repository"
	"github.com/chatbotx/gateway/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize context cache
	var contexts cache.ContextCache
	if cfg.Redis.Enabled {
		contexts, err = cache.NewRedisCache(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Failed to connect to Redis, using in-memory context cache", zap.Error(err))
			contexts = cache.NewMemoryCache()
		}
	} else {
		contexts = cache.NewMemoryCache()
	}
	defer contexts.Close()

	// Initialize repositories
	messageRepo := repository.NewMessageRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	faqRepo := repository.NewFAQRepository(db)

	// Initialize dispatch pipeline
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := nlu.NewClient(cfg.NLU)
	booking := service.NewBookingService(courseRepo, logger)
	dispatcher := service.NewDispatcher(backend, booking, courseRepo, faqRepo,
		cfg.NLU.ReprobeInterval, logger)
	dispatcher.Initialize(ctx)

	chatService := service.NewChatService(
		cfg,
		dispatcher,
		service.NewEnricher(),
		nlp.NewLanguageDetector(cfg.Features),
		nlp.NewSentimentAnalyzer(cfg.Features),
		contexts,
		messageRepo,
		logger,
	)

	// Initialize connection manager and background idle sweep
	manager := realtime.NewManager(logger)
	sweeper := cron.New()
	schedule := fmt.Sprintf("@every %s", cfg.Chat.CleanupInterval)
	if _, err := sweeper.AddFunc(schedule, func() {
		if n := manager.CleanupInactive(cfg.Chat.IdleTimeout); n > 0 {
			logger.Info("idle sweep disconnected clients", zap.Int("count", n))
		}
	}); err != nil {
		logger.Fatal("Failed to schedule idle sweep", zap.Error(err))
	}
	sweeper.Start()

	// Setup router
	router := api.SetupRouter(
		chat.NewHandler(chatService),
		ws.NewHandler(chatService, manager, logger),
		&readiness{chatService: chatService, db: db, contexts: contexts},
		api.RouterConfig{AllowOrigins: cfg.Server.AllowOrigins},
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting chatbotx gateway",
			zap.String("address", cfg.Address()),
			zap.Bool("nlu_ready", dispatcher.Ready()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the idle sweep and refuse new work
	sweeper.Stop()
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Drop remaining realtime connections
	manager.CloseAll()

	logger.Info("Server exited")
}

// readiness adapts the gateway's collaborators to the health endpoint.
type readiness struct {
	chatService *service.ChatService
	db          *repository.DB
	contexts    cache.ContextCache
}

func (r *readiness) BackendReady() bool {
	return r.chatService.Ready()
}

func (r *readiness) StorageReady() bool {
	return r.db.Ping() == nil
}

func (r *readiness) CacheReady() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.contexts.Ping(ctx) == nil
}
