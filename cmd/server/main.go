package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chatrelay/internal/config"
	"chatrelay/internal/database"
	"chatrelay/internal/handlers"
	"chatrelay/internal/inflight"
	"chatrelay/internal/logging"
	"chatrelay/internal/router"
	"chatrelay/internal/services"
	"chatrelay/internal/websocket"
	"chatrelay/web"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	zerolog.DefaultContextLogger = &log
	log.Info().Msg("🚀 Starting chat relay...")
	log.Info().Msg("✓ Environment variables loaded")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("✗ Server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("✓ Server stopped gracefully")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize AI Provider ────
	provider, err := services.NewProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize AI provider: %w", err)
	}
	defer provider.Close()
	log.Info().Str("provider", provider.Name()).Str("model", provider.Model()).Msg("✓ AI provider initialized")

	relay := services.NewRelay(provider, cfg.RequestTimeout)

	// ──── Step 3: Initialize Session Guard ────
	// Slots outlive the relay timeout a little so a crashed holder still expires.
	var guard inflight.Guard = inflight.NewMemoryGuard()
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		guard = inflight.NewRedisGuard(redisClient, cfg.RequestTimeout+10*time.Second)
		log.Info().Msg("✓ Redis session guard connected")
	} else {
		log.Info().Msg("✓ In-memory session guard ready")
	}

	// ──── Step 4: Start WebSocket Hub ────
	wsHub := websocket.NewHub(relay, cfg.FrontendURL)

	// ──── Step 5: Start HTTP Server ────
	chatHandler := handlers.NewChatHandler(relay, cfg.Port)
	r := router.New(log, chatHandler, wsHub, guard, cfg.FrontendURL, web.Static())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Msgf("✓ Chat relay ready on http://localhost:%d", cfg.Port)
		log.Info().Msgf("  Chat: POST http://localhost:%d/chat", cfg.Port)
		log.Info().Msgf("  WS:   ws://localhost:%d/chat/ws", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")
		wsHub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
