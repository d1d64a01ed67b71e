package rest

import (
	"encoding/json"
	"net/http"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/services"
)

type rankedSongJSON struct {
	TrackID string `json:"track_id"`
	Name    string `json:"name"`
	Artist  string `json:"artist"`
}

type tierlistJSON struct {
	TierOrder    []string                    `json:"tier_order"`
	UnrankedTier string                      `json:"unranked_tier"`
	Tiers        map[string][]rankedSongJSON `json:"tiers"`
}

type recommendRequest struct {
	tierlistJSON
	ExplorationDepth   int    `json:"exploration_depth"`
	DiscoverNewArtists bool   `json:"discover_new_artists"`
	NowPlayingTrackID  string `json:"now_playing_track_id"`
}

type sourceJSON struct {
	Artist string `json:"artist"`
	Track  string `json:"track"`
	Tier   string `json:"tier"`
	Weight int    `json:"weight"`
}

type recommendationJSON struct {
	TrackID             string       `json:"track_id"`
	Name                string       `json:"name"`
	Artist              string       `json:"artist"`
	Score               float64      `json:"score"`
	AdjustedScore       float64      `json:"adjusted_score"`
	RecommendationCount int          `json:"recommendation_count"`
	IsNewArtist         bool         `json:"is_new_artist"`
	AlbumImageURL       string       `json:"album_image_url,omitempty"`
	ExternalURL         string       `json:"external_url,omitempty"`
	Sources             []sourceJSON `json:"sources"`
}

type recommendResponse struct {
	Result string               `json:"result"`
	Items  []recommendationJSON `json:"items,omitempty"`
}

func (h *Handler) generateRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.TierOrder) == 0 {
		h.writeError(w, http.StatusBadRequest, "tier_order is required")
		return
	}

	result, err := h.svc.Generate(r.Context(), services.GenerateRequest{
		Tierlist:           tierlistFromJSON(req.tierlistJSON),
		ExplorationDepth:   req.ExplorationDepth,
		DiscoverNewArtists: req.DiscoverNewArtists,
		NowPlayingTrackID:  req.NowPlayingTrackID,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("generation failed")
		h.writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, recommendResponseFrom(result))
}

func tierlistFromJSON(t tierlistJSON) domain.Tierlist {
	tiers := make(map[string][]domain.RankedSong, len(t.Tiers))
	for tier, songs := range t.Tiers {
		ranked := make([]domain.RankedSong, 0, len(songs))
		for _, s := range songs {
			ranked = append(ranked, domain.RankedSong{
				TrackID: s.TrackID,
				Name:    s.Name,
				Artist:  s.Artist,
				Tier:    tier,
			})
		}
		tiers[tier] = ranked
	}
	return domain.Tierlist{
		TierOrder:    t.TierOrder,
		UnrankedTier: t.UnrankedTier,
		Tiers:        tiers,
	}
}

func recommendResponseFrom(result services.GenerateResult) recommendResponse {
	resp := recommendResponse{Result: resultLabel(result.Kind)}
	for _, item := range result.Items {
		sources := make([]sourceJSON, 0, len(item.Sources))
		for _, s := range item.Sources {
			sources = append(sources, sourceJSON{Artist: s.Artist, Track: s.Track, Tier: s.Tier, Weight: s.Weight})
		}
		resp.Items = append(resp.Items, recommendationJSON{
			TrackID:             item.TrackID,
			Name:                item.Track,
			Artist:              item.Artist,
			Score:               item.Score,
			AdjustedScore:       item.AdjustedScore,
			RecommendationCount: item.RecommendationCount,
			IsNewArtist:         item.IsNewArtist,
			AlbumImageURL:       item.AlbumImageURL,
			ExternalURL:         item.ExternalURL,
			Sources:             sources,
		})
	}
	return resp
}

func resultLabel(kind services.ResultKind) string {
	switch kind {
	case services.ResultNoInput:
		return "no_input"
	case services.ResultExhausted:
		return "exhausted"
	default:
		return "ok"
	}
}
