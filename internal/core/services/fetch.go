package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
)

const (
	// similarArtistLimit caps how many similar artists the fallback path
	// considers for one song.
	similarArtistLimit = 3

	// topTracksPerArtist caps how many top tracks each similar artist
	// contributes in the fallback path.
	topTracksPerArtist = 3
)

// rawCandidate is one entry of a song's fetched similarity list, before
// selection and aggregation.
type rawCandidate struct {
	Artist string
	Track  string
	Match  float64
}

// fetchCandidates fans out one similarity lookup per song and joins before
// returning. The result is indexed by song; a failed lookup leaves that
// song's slot empty. Only context cancellation aborts the whole fan-out.
func (r *Recommender) fetchCandidates(ctx context.Context, songs []domain.WeightedSong) ([][]rawCandidate, error) {
	lists := make([][]rawCandidate, len(songs))

	g, gctx := errgroup.WithContext(ctx)
	for i, song := range songs {
		g.Go(func() error {
			list, err := r.candidatesForSong(gctx, song.RankedSong)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.Warn().Err(err).
					Str("artist", song.Artist).
					Str("track", song.Name).
					Msg("candidate fetch failed, treating song as empty")
				return nil
			}
			lists[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}

// candidatesForSong fetches tracks similar to one ranked song, falling back
// to the top tracks of similar artists when the track-level lookup comes
// back empty.
func (r *Recommender) candidatesForSong(ctx context.Context, song domain.RankedSong) ([]rawCandidate, error) {
	similar, err := r.similarTracks(ctx, song.Artist, song.Name)
	if err != nil {
		return nil, err
	}
	if len(similar) > 0 {
		list := make([]rawCandidate, 0, len(similar))
		for _, t := range similar {
			list = append(list, rawCandidate{Artist: t.Artist, Track: t.Name, Match: t.Match})
		}
		return list, nil
	}
	return r.artistFallback(ctx, song.Artist)
}

// artistFallback builds a candidate list from the top tracks of artists
// similar to the song's artist. The similar-artist match value becomes the
// score multiplier for each of that artist's tracks. Sub-fetches fan out
// concurrently; a failed sub-fetch drops that one artist.
func (r *Recommender) artistFallback(ctx context.Context, artist string) ([]rawCandidate, error) {
	similar, err := r.similarArtists(ctx, artist, similarArtistLimit)
	if err != nil {
		return nil, err
	}
	if len(similar) > similarArtistLimit {
		similar = similar[:similarArtistLimit]
	}

	perArtist := make([][]rawCandidate, len(similar))
	g, gctx := errgroup.WithContext(ctx)
	for i, sim := range similar {
		g.Go(func() error {
			tracks, err := r.topTracks(gctx, sim.Name)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.Warn().Err(err).Str("artist", sim.Name).Msg("top tracks fetch failed, skipping artist")
				return nil
			}
			if len(tracks) > topTracksPerArtist {
				tracks = tracks[:topTracksPerArtist]
			}
			list := make([]rawCandidate, 0, len(tracks))
			for _, t := range tracks {
				list = append(list, rawCandidate{Artist: t.Artist, Track: t.Name, Match: sim.Match})
			}
			perArtist[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []rawCandidate
	for _, list := range perArtist {
		out = append(out, list...)
	}
	return out, nil
}

func (r *Recommender) similarTracks(ctx context.Context, artist, track string) ([]ports.SimilarTrack, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.similarity.SimilarTracks(callCtx, artist, track)
}

func (r *Recommender) similarArtists(ctx context.Context, artist string, limit int) ([]ports.SimilarArtist, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.similarity.SimilarArtists(callCtx, artist, limit)
}

func (r *Recommender) topTracks(ctx context.Context, artist string) ([]domain.Track, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.resolver.TopTracksForArtist(callCtx, artist)
}
