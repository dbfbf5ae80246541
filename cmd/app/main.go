package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coverforge/internal/api/v1/router"
	"coverforge/internal/config"
	"coverforge/internal/logger"
	"coverforge/internal/service"

	"github.com/joho/godotenv"
)

// @title CoverForge API
// @version 1.0
// @description Quota-gated cover letter, email, and resume analysis API
// @host localhost:8080
// @BasePath /v1
// @Schemes http https

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx := context.Background()

	// 2. Resolve the JWT secret from Secret Manager when configured
	if cfg.JWTSecret == "" && cfg.JWTSecretName != "" && cfg.GCPProjectID != "" {
		resolver, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
		secret, err := resolver.Resolve(ctx, cfg.JWTSecretName)
		if err != nil {
			logger.Fatal().Msgf("Failed to resolve JWT secret: %v", err)
		}
		cfg.JWTSecret = secret
		if err := resolver.Close(); err != nil {
			logger.Warn().Msgf("Error closing Secret Manager client: %v", err)
		}
	}
	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("No JWT secret configured")
	}

	// 3. Build router (and get DB connection)
	r, pool, err := router.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer pool.Close()

	// 4. Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Start server in a goroutine
	go func() {
		logger.Info().Msgf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s\n", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Msgf("Server forced to shutdown: %v", err)
	}
	logger.Info().Msg("Server shut down gracefully")
}
