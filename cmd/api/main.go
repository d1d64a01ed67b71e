package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/soundtier/tierbeat/internal/adapters/lastfm"
	"github.com/soundtier/tierbeat/internal/adapters/rest"
	"github.com/soundtier/tierbeat/internal/adapters/spotify"
	"github.com/soundtier/tierbeat/internal/adapters/sqlite"
	"github.com/soundtier/tierbeat/internal/cache"
	"github.com/soundtier/tierbeat/internal/config"
	"github.com/soundtier/tierbeat/internal/core/services"
	"github.com/soundtier/tierbeat/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Environment)

	// Driven adapters.
	repo, err := sqlite.NewAdapter(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cache.NewStore(cfg.CacheTTL, time.Now)
	similarity := cache.NewSimilarityCache(
		lastfm.NewClient(cfg.LastFMAPIKey, logger, lastfm.WithRateLimit(cfg.LastFMRatePerSecond)),
		store,
	)
	resolver := cache.NewResolverCache(
		spotify.NewClient(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret, logger),
		store,
	)

	// Background cache warming for saved tierlists.
	var warmer rest.TierlistWarmer
	if cfg.PrefetchWorkers > 0 {
		pool := worker.NewPool(similarity, 64, logger)
		pool.Start(ctx, cfg.PrefetchWorkers)
		defer pool.Stop()
		warmer = pool
	}

	// Core engine, then the driving adapter.
	recommender := services.NewRecommender(similarity, resolver, logger)
	recommender.SetCallTimeout(cfg.ProviderTimeout)
	handler := rest.NewHandler(recommender, repo, warmer, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.HTTPPort).Msg("tierbeat api listening")
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}
}

func newLogger(environment string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
	}

	var out = zerolog.New(os.Stdout)
	if environment == "development" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return out.With().Timestamp().Logger().Level(level)
}
