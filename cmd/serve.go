package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vaidrix/meetingbot/internal/agent"
	"github.com/vaidrix/meetingbot/internal/calendar"
	"github.com/vaidrix/meetingbot/internal/config"
	"github.com/vaidrix/meetingbot/internal/google"
	"github.com/vaidrix/meetingbot/internal/instrumentation"
	"github.com/vaidrix/meetingbot/internal/logging"
	"github.com/vaidrix/meetingbot/internal/server"
	"github.com/vaidrix/meetingbot/internal/session"
	"github.com/vaidrix/meetingbot/internal/tools/scheduling"
)

func newServeCmd() *cobra.Command {
	var (
		logFormat string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP chat server",
		Long: `Start the HTTP server that hosts the scheduling assistant.

Endpoints:
  POST /api/chat              Chat with the assistant
  GET  /auth/google           Start the Google Calendar authorization flow
  GET  /auth/google/callback  OAuth redirect target
  GET  /healthz               Liveness and authorization status
  GET  /metrics               Prometheus metrics (when instrumentation is enabled)

Configuration is read from the environment; a .env file in the working
directory is honored. GOOGLE_CALENDAR_ID is required. Visit /auth/google
once after startup to connect the calendar.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(logFormat, logLevel)
		},
	}

	cmd.Flags().StringVar(&logFormat, "log-format", "json", "Log format: json or text")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	return cmd
}

func runServe(logFormat, logLevel string) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.Setup(logFormat, logLevel)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc := cfg.Location()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	creds, err := google.NewStore(cfg.GoogleClientID, cfg.GoogleClientSecret,
		cfg.GoogleRedirectURI, cfg.TokenFile, logger)
	if err != nil {
		return err
	}
	creds.SetMetrics(provider.Metrics())
	if !creds.HasToken() {
		logger.Warn("no google token on file; visit /auth/google to connect the calendar")
	}

	calClient := calendar.NewClient(creds, cfg.CalendarID, provider.Metrics(), logger)
	tools := scheduling.New(calClient, cfg.Timezone, loc, provider.Metrics(), logger)

	ag, err := agent.NewGemini(shutdownCtx, cfg.GeminiAPIKey, cfg.GeminiModel,
		tools, cfg.Timezone, loc, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := ag.Close(); err != nil {
			logger.Error("gemini client close failed", logging.Err(err))
		}
	}()

	sessions, redisClient := newSessionStore(cfg, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("redis close failed", logging.Err(err))
			}
		}()
	}

	var metricsHandler http.Handler
	if provider.Enabled() {
		metricsHandler = provider.MetricsHandler()
	}

	srv := server.New(cfg, ag, sessions, creds, provider.Metrics(), metricsHandler, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		logger.Info("http server starting", slog.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received, stopping http server")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		if err := httpServer.Shutdown(stopCtx); err != nil {
			return fmt.Errorf("error shutting down http server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("http server stopped with error: %w", err)
		}
	}

	logger.Info("http server stopped")
	return nil
}

// newSessionStore picks Redis when configured, in-process memory otherwise.
// The returned client is non-nil only for the Redis case so the caller can
// close it on shutdown.
func newSessionStore(cfg *config.Config, logger *slog.Logger) (session.Store, *redis.Client) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	logger.Info("using redis session store", slog.String("addr", cfg.RedisAddr))
	return session.NewRedisStore(client), client
}
