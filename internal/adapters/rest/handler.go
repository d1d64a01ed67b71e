// Package rest exposes the recommendation engine and tierlist persistence
// over HTTP for the browser UI.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
	"github.com/soundtier/tierbeat/internal/core/services"
)

// RecommendationService is the slice of the engine the HTTP layer needs.
type RecommendationService interface {
	Generate(ctx context.Context, req services.GenerateRequest) (services.GenerateResult, error)
}

// TierlistWarmer prefetches similarity data for a tierlist's ranked songs in
// the background. May be nil when prefetching is disabled.
type TierlistWarmer interface {
	WarmTierlist(domain.Tierlist)
}

// Handler manages the HTTP interface.
type Handler struct {
	svc    RecommendationService
	repo   ports.TierlistRepository
	warmer TierlistWarmer
	logger zerolog.Logger
	router chi.Router
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc RecommendationService, repo ports.TierlistRepository, warmer TierlistWarmer, logger zerolog.Logger) *Handler {
	h := &Handler{
		svc:    svc,
		repo:   repo,
		warmer: warmer,
		logger: logger.With().Str("component", "rest").Logger(),
		router: chi.NewRouter(),
	}
	h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.Recoverer)
	h.router.Use(middleware.Timeout(120 * time.Second))
	h.router.Use(h.requestLogger)

	h.router.Get("/health", h.healthCheck)

	h.router.Route("/api", func(r chi.Router) {
		r.Post("/recommendations", h.generateRecommendations)
		r.Post("/tierlists", h.saveTierlist)
		r.Get("/tierlists/{id}", h.getTierlist)
	})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
