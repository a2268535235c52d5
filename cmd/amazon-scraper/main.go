package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kell-C/amazon-scraper/api"
	"github.com/Kell-C/amazon-scraper/cache"
	"github.com/Kell-C/amazon-scraper/config"
	"github.com/Kell-C/amazon-scraper/gate"
	"github.com/Kell-C/amazon-scraper/scraper"
	"github.com/Kell-C/amazon-scraper/session"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("amazon-scraper starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"searchBase", cfg.Scraper.SearchBaseURL,
	)

	// ── 3. Session manager (browser launches lazily on first request)
	sessions := session.NewManager(cfg.Browser)
	defer sessions.Release()

	// ── 4. Backends + orchestrator ──────────────────────────────────
	solver := scraper.NewSolver(cfg.Captcha)
	render, err := scraper.NewRenderBackend(sessions, solver, cfg.Scraper)
	if err != nil {
		slog.Error("failed to initialise rendering backend", "error", err)
		os.Exit(1)
	}
	raw, err := scraper.NewRawFetchBackend(cfg.Scraper, cfg.Browser.Proxy)
	if err != nil {
		slog.Error("failed to initialise raw-fetch backend", "error", err)
		os.Exit(1)
	}
	orch := scraper.NewOrchestrator(render, raw, cfg.Scraper.RetryBackoff)

	// ── 5. Admission gate + cache + router ──────────────────────────
	g := gate.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	defer g.Stop()

	cc := cache.New(cfg.Cache.MaxEntries)

	startTime := time.Now()
	router := api.NewRouter(orch, sessions, g, cfg, cc, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// sessions.Release() runs via defer — kills the browser exactly once.
	slog.Info("amazon-scraper stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
