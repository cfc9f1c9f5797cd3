package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"monsurface-assistant/internal/app"
	"monsurface-assistant/internal/config"
	"monsurface-assistant/internal/handlers"
	"monsurface-assistant/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// Webhook server for the Monsurface building-materials catalog assistant.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Monsurface Assistant API
//   description: |
//     Answers building-material catalog questions from LINE chat users.
//     /api/ask runs the same pipeline for operators and integration tests.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Catalog, ledger and pipeline
	assistantApp, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize assistant: %v", err)
	}
	defer func() {
		_ = assistantApp.Close()
	}()

	if cfg.CatalogWatch {
		if err := assistantApp.WatchCatalog(ctx); err != nil {
			log.Fatalf("Failed to watch catalog: %v", err)
		}
		slog.Info("Watching catalog for rebuilds", "path", cfg.CatalogDBPath)
	}

	deps := &http.Deps{
		Assistant: assistantApp.Assistant,
		Catalog:   assistantApp.Catalog,
		AskToken:  cfg.AskAPIToken,
	}
	if cfg.AskAPIToken == "" {
		slog.Warn("ASK_API_TOKEN not set, /api/ask disabled")
	}
	if cfg.LineEnabled() {
		messenger, err := handlers.NewLineMessenger(cfg.LineChannelSecret, cfg.LineChannelAccessToken)
		if err != nil {
			log.Fatalf("Failed to create LINE client: %v", err)
		}
		deps.Messenger = messenger
	} else {
		slog.Warn("LINE channel not configured, /callback disabled")
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
