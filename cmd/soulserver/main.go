package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/marcabisamra/SocialAGI/config"
	"github.com/marcabisamra/SocialAGI/observability"
	"github.com/marcabisamra/SocialAGI/server"
	"github.com/marcabisamra/SocialAGI/soul"
)

const shutdownTimeout = 5 * time.Second

func main() {
	var (
		configFile = flag.String("config", "", "Path to server config JSON file (optional)")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if cfg.Gateway.APIKey == "" {
		log.Fatal("OPENAI_API_KEY is required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	var gatewayOpts []soul.GatewayOption
	if cfg.Gateway.Model != "" {
		gatewayOpts = append(gatewayOpts, soul.WithModel(cfg.Gateway.Model))
	}
	if cfg.Gateway.BaseURL != "" {
		gatewayOpts = append(gatewayOpts, soul.WithBaseURL(cfg.Gateway.BaseURL))
	}
	gateway := soul.NewOpenAIGateway(cfg.Gateway.APIKey, gatewayOpts...)

	srv, err := server.New(cfg, gateway,
		server.WithObserver(observability.NewSlogObserver(logger)),
	)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("soul server listening", "addr", cfg.Server.Addr, "blueprint", cfg.Soul.Blueprint)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("Shutdown failed: %v", err)
		}
	}
}
