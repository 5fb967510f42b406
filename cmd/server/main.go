// GodlyKids - Guided Faith Journey Server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/godlykids/journey/internal/api"
	"github.com/godlykids/journey/internal/config"
	"github.com/godlykids/journey/internal/content"
	"github.com/godlykids/journey/internal/events"
	"github.com/godlykids/journey/internal/identity"
	"github.com/godlykids/journey/internal/ledger"
	"github.com/godlykids/journey/internal/middleware"
	"github.com/godlykids/journey/internal/sequencer"
	"github.com/godlykids/journey/internal/session"
	"github.com/godlykids/journey/internal/store"
	"github.com/godlykids/journey/internal/sweeper"
	"github.com/godlykids/journey/internal/tutorial"
	"github.com/godlykids/journey/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Step catalogs, optionally overridden from a YAML file.
	tutorialCatalog, dailyCatalog, err := sequencer.LoadCatalogs(cfg.StepConfigPath)
	if err != nil {
		slog.Error("Failed to load step catalogs", "error", err, "path", cfg.StepConfigPath)
		os.Exit(1)
	}
	slog.Info("Step catalogs ready", "tutorial_steps", tutorialCatalog.Len(), "session_steps", dailyCatalog.Len())

	// Initialize services.
	hub := events.NewHub()
	timers := sequencer.NewTimerRegistry()
	wallet := ledger.NewService(repo)
	sessions := session.NewService(repo, dailyCatalog, wallet)
	flow := tutorial.NewService(repo, tutorialCatalog, timers, hub)
	fetcher := content.NewClient(cfg.ContentBaseURL, cfg.ContentTimeout)
	voice := content.NewVoiceClient(cfg.VoiceServiceURL, cfg.VoiceTimeout)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, cfg.FrontendURL)
	healthHandler := api.NewHealthHandler(repo, voice)
	sessionHandler := api.NewSessionHandler(baseHandler, sessions)
	tutorialHandler := api.NewTutorialHandler(baseHandler, flow)
	walletHandler := api.NewWalletHandler(baseHandler, wallet, fetcher)
	contentHandler := api.NewContentHandler(baseHandler, fetcher, voice)
	wsHandler := events.NewWebSocketHandler(repo, hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	healthHandler.RegisterHealth(r)
	sessionHandler.RegisterRoutes(r)
	tutorialHandler.RegisterRoutes(r)
	walletHandler.RegisterRoutes(r)
	contentHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/events", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WriteTimeout stays 0 so voice audio streams are never cut off.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background sweeper for stale daily sessions.
	sweeper.New(repo, cfg.SweepInterval).Start(ctx)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	timers.CancelAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
