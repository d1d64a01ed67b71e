package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
)

// resolveParallelism bounds concurrent resolver calls during a pass.
const resolveParallelism = 4

// resolveCandidates joins each aggregated candidate with its canonical
// catalog track, discards anything that maps back into the ranked set or
// duplicates an earlier resolution, classifies new artists, and applies the
// discovery boost. The output keeps candidates grouped by artist, groups in
// first-appearance order.
func (r *Recommender) resolveCandidates(ctx context.Context, candidates []domain.Candidate, index domain.RankedIndex, discover bool) ([]domain.ResolvedRecommendation, error) {
	resolved := make([]*domain.Track, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveParallelism)
	for i, cand := range candidates {
		g.Go(func() error {
			track, err := r.searchTrack(gctx, cand.Artist, cand.Track)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if !errors.Is(err, ports.ErrNoMatch) {
					r.logger.Warn().Err(err).
						Str("artist", cand.Artist).
						Str("track", cand.Track).
						Msg("track resolution failed, dropping candidate")
				}
				return nil
			}
			resolved[i] = &track
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seenIDs := make(map[string]struct{}, len(candidates))
	var items []domain.ResolvedRecommendation
	for i, cand := range candidates {
		track := resolved[i]
		if track == nil {
			continue
		}
		// Covers and re-releases can resolve to a ranked song under a
		// different catalog ID, so check both the ID and the name pair.
		if index.HasTrackID(track.ID) || index.HasKey(domain.CandidateKey(track.Artist, track.Name)) {
			continue
		}
		if _, dup := seenIDs[track.ID]; dup {
			continue
		}
		seenIDs[track.ID] = struct{}{}

		isNew := !index.HasArtist(track.Artist)
		adjusted := cand.Score
		if discover && isNew {
			adjusted = cand.Score * newArtistBoost
		}
		items = append(items, domain.ResolvedRecommendation{
			Candidate:     cand,
			TrackID:       track.ID,
			AlbumImageURL: track.CoverURL(),
			ExternalURL:   track.ExternalURL,
			IsNewArtist:   isNew,
			AdjustedScore: adjusted,
		})
	}

	return groupByArtist(items), nil
}

func (r *Recommender) searchTrack(ctx context.Context, artist, track string) (domain.Track, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.resolver.SearchTrack(callCtx, artist, track)
}

// groupByArtist reorders recommendations so entries sharing an artist sit
// together, keeping artists in first-appearance order and entries within an
// artist in candidate order.
func groupByArtist(items []domain.ResolvedRecommendation) []domain.ResolvedRecommendation {
	if len(items) < 2 {
		return items
	}
	order := make([]string, 0, len(items))
	groups := make(map[string][]domain.ResolvedRecommendation, len(items))
	for _, item := range items {
		artist := domain.NormalizeName(item.Artist)
		if _, ok := groups[artist]; !ok {
			order = append(order, artist)
		}
		groups[artist] = append(groups[artist], item)
	}

	out := make([]domain.ResolvedRecommendation, 0, len(items))
	for _, artist := range order {
		out = append(out, groups[artist]...)
	}
	return out
}
