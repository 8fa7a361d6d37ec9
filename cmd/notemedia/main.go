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

	"github.com/use-agent/notemedia/api"
	"github.com/use-agent/notemedia/api/handler"
	"github.com/use-agent/notemedia/cache"
	"github.com/use-agent/notemedia/config"
	"github.com/use-agent/notemedia/engine"
	"github.com/use-agent/notemedia/extractor"
	"github.com/use-agent/notemedia/scraper"
	"github.com/use-agent/notemedia/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("notemedia starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
		"extractMode", cfg.Extractor.DefaultMode,
	)

	// ── 3. Extraction profiles ──────────────────────────────────────
	profiles, err := buildProfiles(cfg.Extractor)
	if err != nil {
		slog.Error("invalid extraction profile", "error", err)
		os.Exit(1)
	}
	defaultMode := extractor.ParseMode(cfg.Extractor.DefaultMode, extractor.ModeLenient)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ── 4. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 4b. Engine race ─────────────────────────────────────────────
	if cfg.Engine.EnableMultiEngine {
		engines := []engine.Engine{
			engine.NewHTTPEngine(cfg.Engine.HTTPTimeout),
			engine.NewRodEngine(sc.DoFetchRod, false),
			engine.NewRodEngine(sc.DoFetchRod, true),
		}
		memory := engine.NewDomainMemory(cfg.Engine.MemoryTTL, time.Hour)
		defer memory.Stop()

		sc.SetDispatcher(engine.NewDispatcher(engines, cfg.Engine.EscalationDelays, memory))
		slog.Info("multi-engine dispatcher enabled",
			"engines", len(engines),
			"delays", cfg.Engine.EscalationDelays,
		)
	}

	// ── 5. Cache, media service, batches ────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL, cfg.Cache.PruneEvery)
	defer cc.Stop()

	media := handler.NewMedia(sc, profiles, defaultMode, cc, slog.Default())
	sender := webhook.NewSender(cfg.Webhook.Timeout, cfg.Webhook.RetryDelays)
	batches := handler.NewBatches(media, sender, cfg.Batch.Concurrency, cfg.Batch.JobTTL)
	go batches.PruneLoop(ctx, 5*time.Minute)

	// ── 6. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(ctx, cfg, sc, media, batches, time.Now())

	// ── 7. Start HTTP server ────────────────────────────────────────
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

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	slog.Info("notemedia stopped")
}

// buildProfiles applies the configured CDN base to both profiles and checks
// every selector before the server accepts traffic.
func buildProfiles(cfg config.ExtractorConfig) ([]extractor.Profile, error) {
	profiles := []extractor.Profile{extractor.Strict(), extractor.Lenient()}
	for i := range profiles {
		if cfg.VideoCDNBase != "" {
			profiles[i].VideoCDNBase = cfg.VideoCDNBase
		}
		if err := profiles[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s profile: %w", profiles[i].Mode, err)
		}
	}
	return profiles, nil
}

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

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
