package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap/zapcore"
	"norelock.dev/tunegate/backend/internal/api"
	"norelock.dev/tunegate/backend/internal/api/handlers"
	"norelock.dev/tunegate/backend/internal/cache"
	"norelock.dev/tunegate/backend/internal/config"
	"norelock.dev/tunegate/backend/internal/db/memory"
	"norelock.dev/tunegate/backend/internal/db/mongo"
	"norelock.dev/tunegate/backend/internal/db/mongo/repositories"
	"norelock.dev/tunegate/backend/internal/db/redis"
	"norelock.dev/tunegate/backend/internal/services/conversation"
	"norelock.dev/tunegate/backend/internal/services/dispatch"
	"norelock.dev/tunegate/backend/internal/services/media"
	"norelock.dev/tunegate/backend/internal/utils"
)

// convert logger level to zapcore.Level
func hLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	case "panic":
		return zapcore.PanicLevel
	default:
		return zapcore.InfoLevel
	}
}

func main() {
	// Create a context that will be canceled on interrupt signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("Received shutdown signal")
		cancel()
	}()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	loggerOptions := utils.LoggerOptions{
		Development: cfg.Environment == "development",
		Level:       hLevel(cfg.Logging.Level),
		OutputPaths: cfg.Logging.OutputPaths,
	}
	logger := utils.NewLogger(loggerOptions)
	logger.Info("Starting Tunegate gateway", "environment", cfg.Environment)

	healthChecks := make(map[string]handlers.HealthCheck)

	// Initialize the user store
	var userRepo repositories.UserRepository
	switch cfg.Persistence.Backend {
	case config.BackendMongo:
		mongoClient, err := mongo.NewClient(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logger.Error("Failed to disconnect from MongoDB", err)
			}
		}()

		if err := mongo.EnsureIndexes(ctx, mongoClient); err != nil {
			logger.Fatal("Failed to ensure MongoDB indexes", err)
		}

		userRepo = repositories.NewUserRepository(mongoClient.Database(), cfg, logger)
		healthChecks["mongodb"] = func(r *http.Request) error {
			return mongoClient.Client().Ping(r.Context(), readpref.Primary())
		}
	case config.BackendMemory:
		userRepo = memory.NewUserRepository(logger)
	default:
		logger.Fatal("Unknown persistence backend", fmt.Errorf("backend %q", cfg.Persistence.Backend))
	}

	// Initialize the resolution cache store
	var store cache.Store
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		redisClient, err := redis.NewClient(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer redisClient.Close()

		store = cache.NewRedisStore(redisClient)
		healthChecks["redis"] = func(r *http.Request) error {
			return redisClient.Ping(r.Context())
		}
	case config.BackendMemory:
		memoryStore := cache.NewMemoryStore(cache.WithDefaultTTL(cfg.Cache.URLTTL))
		memoryStore.StartSweeper(ctx, cfg.Cache.SweepInterval)
		store = memoryStore
	default:
		logger.Fatal("Unknown cache backend", fmt.Errorf("backend %q", cfg.Cache.Backend))
	}

	resolutions := cache.NewResolutionCache(store, cfg.Cache.URLTTL, cfg.Cache.SearchTTL, logger)

	// Build the provider registry. Registration order determines URL match
	// precedence and the order sources are offered.
	registry := media.NewRegistry(logger)
	youtubeProvider := media.NewYouTubeProvider(cfg.Media.YouTubeAPIKey, logger)
	if err := registry.Register(`(youtube\.com|youtu\.be)/`, youtubeProvider); err != nil {
		logger.Fatal("Failed to register YouTube provider", err)
	}
	if cfg.Media.CatalogBaseURL != "" {
		catalogProvider := media.NewCatalogProvider(cfg.Media.CatalogBaseURL, cfg.Media.CatalogAPIKey, logger)
		if err := registry.Register(`album/\d+/track/\d+`, catalogProvider); err != nil {
			logger.Fatal("Failed to register catalog provider", err)
		}
	}

	// Conversation state
	sessions := conversation.NewSessionStore(cfg.Session.Expiry, logger)
	sessions.StartSweeper(ctx, cfg.Session.SweepInterval)
	machine := conversation.NewMachine(sessions, registry, logger)

	// Dispatcher and API router
	dispatcher := dispatch.NewDispatcher(userRepo, registry, machine, resolutions, cfg, logger)
	router := api.NewRouter(dispatcher, healthChecks, cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}

	logger.Info("Server shutdown complete")
}
