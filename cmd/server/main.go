package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"jobdesk-core/internal/api/handlers"
	"jobdesk-core/internal/api/routes"
	"jobdesk-core/internal/auth"
	"jobdesk-core/internal/config"
	"jobdesk-core/internal/logging"
	"jobdesk-core/internal/match"
	"jobdesk-core/internal/notify"
	"jobdesk-core/internal/security"
	"jobdesk-core/internal/store"
	"jobdesk-core/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := logging.GetGlobalLogger()
	logger.Info("Starting Jobdesk Dashboard Core")

	ctx := context.Background()

	// Initialize Redis
	rdb := utils.NewRedisClient(cfg)
	if err := rdb.Ping(ctx); err != nil {
		logger.Warn("Redis not reachable at startup", map[string]interface{}{"error": err.Error()})
	}

	// Initialize Postgres
	pg, err := store.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", map[string]interface{}{"error": err.Error()})
	}
	defer pg.Close()

	// Session tokens and revocation
	tokens := auth.NewTokenManager(cfg, auth.NewRedisRevocations(rdb.Client()))

	// Domain services
	matchService := match.NewService(pg, cfg)
	securityService := security.NewService(cfg, rdb, pg, tokens, security.NewLogMailer())

	// Match-notification delivery: push for premium, digest counters for free
	publisher := notify.NewPublisher(rdb.Client())
	digest := notify.NewDigest(cfg, pg, rdb, publisher)
	if cfg.Digest.Enabled {
		if err := digest.Start(ctx); err != nil {
			logger.Fatal("Failed to start digest scheduler", map[string]interface{}{"error": err.Error()})
		}
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	routes.SetupRoutes(e, routes.Deps{
		Config:   cfg,
		Matches:  matchService,
		Security: securityService,
		Redis:    rdb,
		Pingers: map[string]handlers.Pinger{
			"redis":    rdb,
			"postgres": pg,
		},
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if cfg.Digest.Enabled {
			logger.Info("Stopping digest scheduler...")
			digest.Stop()
		}

		logger.Info("Stopping HTTP server...")
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		}

		if err := rdb.Close(); err != nil {
			logger.Error("Error closing Redis client", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.WithField("address", address).Info("Server starting")

	if err := e.Start(address); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}
}
