package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/cashflow-diagnosis/internal/api/handlers"
	"github.com/zatekoja/cashflow-diagnosis/internal/api/routes"
	"github.com/zatekoja/cashflow-diagnosis/internal/app"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
	"github.com/zatekoja/cashflow-diagnosis/pkg/config"
	"github.com/zatekoja/cashflow-diagnosis/pkg/secrets"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	observability.InitLogger(observability.LoggerOptions{
		Service: "cashflow-diagnosis-api",
		Env:     env,
		Version: os.Getenv("APP_VERSION"),
		Level:   os.Getenv("LOG_LEVEL"),
	})

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Vault values land in the environment before configuration is read
	vaultResult, err := secrets.NewVault(secrets.LoadVaultConfigFromEnv()).Apply(ctx)
	if err != nil {
		log.Warn().Err(err).Str("path", vaultResult.Path).Msg("failed to load secrets from Vault")
	} else if vaultResult.Enabled {
		log.Info().
			Str("path", vaultResult.Path).
			Int("loaded", len(vaultResult.Loaded)).
			Int("skipped", len(vaultResult.Skipped)).
			Msg("secrets loaded from Vault")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	limiter := handlers.NewSubmitLimiter(cfg.Server.SubmitRateLimit, cfg.Server.SubmitRateWindow, application.Cache)
	router := routes.NewRouter(
		handlers.NewDiagnosisHandler(application.Diagnosis, limiter, cfg.App.Location()),
		handlers.NewAdminHandler(application.Events, cfg.Admin.Mode, cfg.Admin.Token),
		cfg.Server.AllowedOrigins,
		cfg.App.Version,
		application.Metrics,
	)

	// Narrative generation and report rendering can take a while
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
