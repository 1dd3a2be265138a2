package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adscale/pricecrypt/api/internal/api/handlers"
	"github.com/adscale/pricecrypt/api/internal/api/middleware"
	"github.com/adscale/pricecrypt/api/internal/api/router"
	"github.com/adscale/pricecrypt/api/internal/config"
	"github.com/adscale/pricecrypt/api/internal/core/domain"
	"github.com/adscale/pricecrypt/api/internal/core/services"
	"github.com/adscale/pricecrypt/api/internal/db/postgres"
)

func main() {
	// --- 1. Core Telemetry & Configuration ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("booting price encoding service")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("FATAL: configuration", "error", err)
		os.Exit(1)
	}

	// Keys are decoded once and held for the process lifetime.
	keys, err := cfg.Keyring()
	if err != nil {
		logger.Error("FATAL: key material", "error", err)
		os.Exit(1)
	}

	// --- 2. Outbound Infrastructure ---
	var (
		alerts       domain.AlertRecorder = postgres.NewLogAlertRecorder(logger)
		alertHandler *handlers.AlertHandler
		dbPinger     handlers.Pinger
	)
	if cfg.DatabaseURL != "" {
		dbPool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("FATAL: DB failed", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		repo := postgres.NewAlertRepository(dbPool)
		if err := repo.Migrate(context.Background()); err != nil {
			logger.Error("FATAL: DB migration failed", "error", err)
			os.Exit(1)
		}
		alerts = repo
		alertHandler = handlers.NewAlertHandler(repo)
		dbPinger = dbPool
	} else {
		logger.Warn("DATABASE_URL not set; alerts are logged only")
	}

	// --- 3. Dependency Injection ---
	creativeService := services.NewCreativeService(keys, alerts, logger)
	priceService := services.NewPriceService(keys, logger)
	tokenService := services.NewTokenService(cfg.JWTSecret)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	go rateLimiter.Cleanup(bgCtx)

	// --- 4. HTTP Gateway ---
	mux := router.NewRouter(router.RouterConfig{
		AllowedOrigins:  cfg.AllowedOrigins,
		CreativeHandler: handlers.NewCreativeHandler(creativeService),
		PriceHandler:    handlers.NewPriceHandler(priceService),
		AlertHandler:    alertHandler,
		HealthHandler:   handlers.NewHealthHandler(dbPinger, keys),
		ServiceAuth:     middleware.NewServiceAuth(tokenService, logger),
		RateLimiter:     rateLimiter,
		Logger:          logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
	}

	// --- 5. Graceful Exit ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("price encoding API active", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("CRITICAL: Server crashed", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutting down")
	cancelBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ERROR: Forced shutdown", "error", err)
	}
	logger.Info("price encoding service stopped")
}
