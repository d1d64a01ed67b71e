package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
)

type saveTierlistRequest struct {
	Name string `json:"name"`
	tierlistJSON
}

type saveTierlistResponse struct {
	ID string `json:"id"`
}

type tierlistResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	tierlistJSON
}

func (h *Handler) saveTierlist(w http.ResponseWriter, r *http.Request) {
	var req saveTierlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.TierOrder) == 0 {
		h.writeError(w, http.StatusBadRequest, "tier_order is required")
		return
	}

	saved := ports.SavedTierlist{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Tierlist: tierlistFromJSON(req.tierlistJSON),
	}
	if err := h.repo.Save(r.Context(), saved); err != nil {
		h.logger.Error().Err(err).Msg("failed to save tierlist")
		h.writeError(w, http.StatusInternalServerError, "failed to save tierlist")
		return
	}
	if h.warmer != nil {
		h.warmer.WarmTierlist(saved.Tierlist)
	}

	h.writeJSON(w, http.StatusCreated, saveTierlistResponse{ID: saved.ID})
}

func (h *Handler) getTierlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	saved, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "tierlist not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("failed to load tierlist")
		h.writeError(w, http.StatusInternalServerError, "failed to load tierlist")
		return
	}

	h.writeJSON(w, http.StatusOK, tierlistResponse{
		ID:           saved.ID,
		Name:         saved.Name,
		tierlistJSON: tierlistToJSON(saved.Tierlist),
	})
}

func tierlistToJSON(t domain.Tierlist) tierlistJSON {
	tiers := make(map[string][]rankedSongJSON, len(t.Tiers))
	for tier, songs := range t.Tiers {
		out := make([]rankedSongJSON, 0, len(songs))
		for _, s := range songs {
			out = append(out, rankedSongJSON{TrackID: s.TrackID, Name: s.Name, Artist: s.Artist})
		}
		tiers[tier] = out
	}
	return tierlistJSON{
		TierOrder:    t.TierOrder,
		UnrankedTier: t.UnrankedTier,
		Tiers:        tiers,
	}
}
