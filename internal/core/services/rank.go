package services

import (
	"sort"

	"github.com/soundtier/tierbeat/internal/core/domain"
)

// rankRecommendations orders recommendations in place by, in strict
// precedence: the currently-playing track first, then more independent
// suggesting songs, then the better best-ranked source tier, then the higher
// adjusted score. The sort is stable over the deterministic input order, so
// ties beyond the four keys keep their arrival order.
func rankRecommendations(items []domain.ResolvedRecommendation, tierOrder []string, nowPlayingID string) {
	tierIndex := make(map[string]int, len(tierOrder))
	for i, tier := range tierOrder {
		tierIndex[tier] = i
	}

	type rankedItem struct {
		item     domain.ResolvedRecommendation
		bestTier int
	}
	ranked := make([]rankedItem, len(items))
	for i, item := range items {
		ranked[i] = rankedItem{item: item, bestTier: bestTierIndex(item.Sources, tierIndex)}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		ra, rb := ranked[a], ranked[b]
		if nowPlayingID != "" && ra.item.TrackID != rb.item.TrackID {
			if ra.item.TrackID == nowPlayingID {
				return true
			}
			if rb.item.TrackID == nowPlayingID {
				return false
			}
		}
		if ra.item.RecommendationCount != rb.item.RecommendationCount {
			return ra.item.RecommendationCount > rb.item.RecommendationCount
		}
		if ra.bestTier != rb.bestTier {
			return ra.bestTier < rb.bestTier
		}
		return ra.item.AdjustedScore > rb.item.AdjustedScore
	})

	for i := range ranked {
		items[i] = ranked[i].item
	}
}

// bestTierIndex is the minimum tier-order position across a candidate's
// sources; a source in an unknown tier never improves the result.
func bestTierIndex(sources []domain.SourceSong, tierIndex map[string]int) int {
	best := len(tierIndex)
	for _, s := range sources {
		if i, ok := tierIndex[s.Tier]; ok && i < best {
			best = i
		}
	}
	return best
}
