package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scamshield/honeypot/internal/api"
	"github.com/scamshield/honeypot/internal/callback"
	"github.com/scamshield/honeypot/internal/config"
	"github.com/scamshield/honeypot/internal/events"
	"github.com/scamshield/honeypot/internal/gemini"
	"github.com/scamshield/honeypot/internal/processor"
	"github.com/scamshield/honeypot/internal/quality"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("honeypot starting", "port", cfg.Port)

	// Model client
	if cfg.GeminiAPIKey == "" {
		slog.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}
	model := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	slog.Info("gemini client ready", "model", cfg.GeminiModel)

	// Event announcer, optional: the pipeline works without NATS.
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		p, err := events.Connect(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, running without event announcements")
	}

	// Delivery agent for final reports
	agent := callback.New(
		cfg.CallbackURL,
		time.Duration(cfg.CallbackTimeoutSeconds)*time.Second,
		cfg.CallbackMaxAttempts,
		time.Duration(cfg.CallbackBackoffSeconds)*time.Second,
		publisher,
		slog.Default(),
	)
	slog.Info("delivery agent ready", "url", cfg.CallbackURL, "max_attempts", cfg.CallbackMaxAttempts)

	// Processor, the main pipeline
	proc := processor.New(
		model,
		quality.New(),
		agent,
		publisher,
		time.Duration(cfg.ModelTimeoutSeconds)*time.Second,
		slog.Default(),
	)

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIKey, proc, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if publisher != nil {
		if err := publisher.Publish(events.SubjectRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("honeypot ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	slog.Info("honeypot stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
