package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"

	"github.com/kemski/iss-position-checker/internal/api"
	"github.com/kemski/iss-position-checker/internal/auth"
	"github.com/kemski/iss-position-checker/internal/config"
	"github.com/kemski/iss-position-checker/internal/crew"
	"github.com/kemski/iss-position-checker/internal/metrics"
	"github.com/kemski/iss-position-checker/internal/passes"
	"github.com/kemski/iss-position-checker/internal/position"
	"github.com/kemski/iss-position-checker/internal/tle"
	"github.com/kemski/iss-position-checker/internal/transform"
	"github.com/kemski/iss-position-checker/internal/upstream"
)

func main() {
	// Local development overrides; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("configuration rejected", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)

	store := tle.NewStore()
	diskCache := tle.NewCache(cfg.TLE.CacheDir, 5)
	feed := tle.NewFeed(
		upstream.New("tle", cfg.UpstreamTimeout(), logger),
		cfg.TLE.URL, store, diskCache, logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := feed.Bootstrap(ctx, cfg.TLETTL()); err != nil {
		// Not fatal: readiness stays down and the scheduler keeps retrying.
		logger.Warn("starting without an element set", "error", err)
	}

	observer := transform.NewObserver(cfg.Observer.Latitude, cfg.Observer.Longitude, cfg.Observer.AltitudeM)
	predictor := passes.NewPredictor(store, observer, passes.Config{
		MinElevationDeg: cfg.Passes.MinElevationDeg,
		Horizon:         cfg.PassHorizon(),
		MaxPasses:       cfg.Passes.MaxPasses,
		CoarseStep:      cfg.CoarseStep(),
		Location:        cfg.Passes.DisplayLocation,
	}, logger)

	crewSvc := crew.NewService(
		upstream.New("crew-roster", cfg.UpstreamTimeout(), logger),
		upstream.New("wikipedia", cfg.UpstreamTimeout(), logger),
		cfg.Crew.URL, cfg.Crew.WikiLang, cfg.CrewTTL(), cfg.CrewGrace(), logger,
	)

	tracker := position.NewTracker(
		upstream.New("position", cfg.UpstreamTimeout(), logger),
		cfg.Position.URL, logger,
	)

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.Every(15).Minutes().Do(func() {
		if store.Ready() && store.AgeSeconds() < cfg.TLETTL().Seconds() {
			return
		}
		refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := feed.Refresh(refreshCtx); err != nil {
			logger.Warn("scheduled element set refresh failed", "component", "tle", "error", err)
		}
	})
	scheduler.Every(15).Seconds().Do(func() {
		if age := store.AgeSeconds(); age >= 0 {
			metrics.SetTLEAge(age)
		}
		if age := store.EpochAgeSeconds(); age >= 0 {
			metrics.SetTLEEpochAge(age)
		}
	})
	scheduler.StartAsync()
	defer scheduler.Stop()

	srv := api.NewServer(cfg.Server.Addr, api.Deps{
		Logger:    logger,
		Store:     store,
		Predictor: predictor,
		Crew:      crewSvc,
		Position:  tracker,
		Auth:      auth.Config(cfg.Auth),
		HomeLat:   cfg.Observer.Latitude,
		HomeLon:   cfg.Observer.Longitude,
	})

	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"observer_lat", cfg.Observer.Latitude,
			"observer_lon", cfg.Observer.Longitude,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
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
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
