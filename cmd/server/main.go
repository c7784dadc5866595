package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/api"
	"github.com/health-recommendation-engine/internal/cache"
	"github.com/health-recommendation-engine/internal/config"
	"github.com/health-recommendation-engine/internal/database"
	"github.com/health-recommendation-engine/internal/history"
	"github.com/health-recommendation-engine/internal/repository"
	"github.com/health-recommendation-engine/internal/service"
	"github.com/health-recommendation-engine/pkg/source"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting health recommendation engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := api.Deps{
		Engine: service.NewRecommendationEngine(logger),
		Source: source.NewClient(configManager.GetSourceConfig(), logger),
	}

	// Optional persistence
	if cfg.Database.Enabled {
		runner, err := database.NewMigrationRunner(configManager.GetDatabaseConfig(), logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create migration runner")
		}
		if err := runner.Up(); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}
		runner.Close()

		db, err := database.NewConnection(ctx, configManager.GetDatabaseConfig(), logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()
		deps.Store = repository.NewRecommendationRepository(db.Pool, logger)
	}

	// Optional cache tier
	if cfg.Cache.Enabled {
		cacheClient, err := cache.NewClient(configManager.GetCacheConfig())
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to cache")
		}
		defer cacheClient.Close()
		deps.Cache = cacheClient
	}

	// Optional generation history
	if cfg.History.Enabled {
		historyStore, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open history store")
		}
		defer historyStore.Close()
		deps.History = historyStore
	}

	server := api.NewServer(configManager, deps, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from configuration.
func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if strings.ToLower(format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
