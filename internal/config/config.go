// Package config covers process-level configuration read from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the API process needs at startup.
type Config struct {
	Environment string
	HTTPPort    int

	LastFMAPIKey        string
	LastFMRatePerSecond float64

	SpotifyClientID     string
	SpotifyClientSecret string

	DatabasePath    string
	CacheTTL        time.Duration
	ProviderTimeout time.Duration

	// PrefetchWorkers is the number of background cache-warming workers.
	// Zero disables prefetching.
	PrefetchWorkers int
}

// Load reads environment variables, applies defaults, and validates the
// result.
func Load() (Config, error) {
	cfg := Config{
		Environment:         envOr("TIERBEAT_ENV", "development"),
		HTTPPort:            8080,
		LastFMAPIKey:        os.Getenv("LASTFM_API_KEY"),
		LastFMRatePerSecond: 4,
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		DatabasePath:        envOr("TIERBEAT_DB_PATH", "tierbeat.db"),
		CacheTTL:            7 * 24 * time.Hour,
		ProviderTimeout:     10 * time.Second,
		PrefetchWorkers:     2,
	}

	if raw := os.Getenv("TIERBEAT_HTTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid TIERBEAT_HTTP_PORT %q", raw)
		}
		cfg.HTTPPort = port
	}
	if raw := os.Getenv("TIERBEAT_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("config: invalid TIERBEAT_CACHE_TTL %q", raw)
		}
		cfg.CacheTTL = ttl
	}
	if raw := os.Getenv("TIERBEAT_PREFETCH_WORKERS"); raw != "" {
		workers, err := strconv.Atoi(raw)
		if err != nil || workers < 0 {
			return Config{}, fmt.Errorf("config: invalid TIERBEAT_PREFETCH_WORKERS %q", raw)
		}
		cfg.PrefetchWorkers = workers
	}
	if raw := os.Getenv("LASTFM_RATE_PER_SECOND"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate <= 0 {
			return Config{}, fmt.Errorf("config: invalid LASTFM_RATE_PER_SECOND %q", raw)
		}
		cfg.LastFMRatePerSecond = rate
	}

	if cfg.LastFMAPIKey == "" {
		return Config{}, fmt.Errorf("config: LASTFM_API_KEY is required")
	}
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return Config{}, fmt.Errorf("config: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
