package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/TomMannion/plex-dualsub-manager/internal/align"
	"github.com/TomMannion/plex-dualsub-manager/internal/config"
	"github.com/TomMannion/plex-dualsub-manager/internal/httpapi"
	"github.com/TomMannion/plex-dualsub-manager/internal/jobs"
	"github.com/TomMannion/plex-dualsub-manager/internal/library"
	"github.com/TomMannion/plex-dualsub-manager/internal/media"
	"github.com/TomMannion/plex-dualsub-manager/internal/persistence"
	"github.com/TomMannion/plex-dualsub-manager/internal/service"
	"github.com/TomMannion/plex-dualsub-manager/pkg/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	if cfg.System.LogFile != "" {
		if err := log.InitFileLogger(log.ParseLevel(cfg.System.LogLevel), cfg.System.LogFile); err != nil {
			log.Warn("Failed to open log file %s: %v", cfg.System.LogFile, err)
		}
	} else {
		log.InitLogger(log.ParseLevel(cfg.System.LogLevel))
	}

	store, err := persistence.NewSQLiteStore(cfg.System.DBPath)
	if err != nil {
		log.Fatal("Failed to open job store: %v", err)
	}
	defer store.Close()

	ffmpeg := media.NewFfmpeg()
	scanner := library.NewScanner(
		mediaSources(cfg),
		library.WithEmbeddedProber(ffmpeg.ProbeSubtitleStreams),
		library.WithCacheTTL(cfg.System.LibraryCacheTTL),
	)

	registry := jobs.NewRegistry(store)
	chain := align.NewChain(align.Config{
		AlignerCmd:     cfg.Sync.AudioAlignerCmd,
		Timeout:        cfg.Sync.Timeout,
		MaxOffset:      cfg.Sync.MaxOffset,
		FallbackOffset: time.Duration(cfg.Sync.FallbackOffsetMs) * time.Millisecond,
	})
	engine := service.NewEngine(cfg, scanner, ffmpeg, registry, chain)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Jobs.CleanupCron, func() {
		dropped := registry.DeleteExpired(cfg.Jobs.RetentionCompleted, cfg.Jobs.RetentionFailed)
		if dropped > 0 {
			log.Info("Cleaned up %d expired jobs", dropped)
		}
	}); err != nil {
		log.Fatal("Invalid cleanup cron %q: %v", cfg.Jobs.CleanupCron, err)
	}
	if _, err := scheduler.AddFunc(cfg.Jobs.RescanCron, scanner.Invalidate); err != nil {
		log.Fatal("Invalid rescan cron %q: %v", cfg.Jobs.RescanCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := httpapi.NewServer(engine, httpapi.WithScanner(scanner))

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", cfg.System.HTTPAddr)
		errCh <- srv.ListenAndServe(cfg.System.HTTPAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error: %v", err)
	}
}

func mediaSources(cfg *config.Config) []library.SourceConfig {
	sources := make([]library.SourceConfig, 0, 3)
	if cfg.Media.ShowDir != "" {
		sources = append(sources, library.SourceConfig{ID: "shows", Name: "Shows", Path: cfg.Media.ShowDir})
	}
	if cfg.Media.AnimationDir != "" {
		sources = append(sources, library.SourceConfig{ID: "animations", Name: "Animations", Path: cfg.Media.AnimationDir})
	}
	if cfg.Media.TeleplayDir != "" {
		sources = append(sources, library.SourceConfig{ID: "teleplays", Name: "Teleplays", Path: cfg.Media.TeleplayDir})
	}
	return sources
}
