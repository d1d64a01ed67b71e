package cache

import (
	"context"
	"errors"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
)

// Cache keys are derived purely from query content, never from the caller,
// so concurrent generation passes share entries safely.
const (
	similarTracksPrefix  = "similar_tracks:"
	similarArtistsPrefix = "similar_artists:"
	trackSearchPrefix    = "track_search:"
	topTracksPrefix      = "top_tracks:"
)

// SimilarityCache memoizes a SimilarityProvider. Errors are never cached.
type SimilarityCache struct {
	inner ports.SimilarityProvider
	store *Store
}

var _ ports.SimilarityProvider = (*SimilarityCache)(nil)

// NewSimilarityCache wraps a provider with the store.
func NewSimilarityCache(inner ports.SimilarityProvider, store *Store) *SimilarityCache {
	return &SimilarityCache{inner: inner, store: store}
}

func (c *SimilarityCache) SimilarTracks(ctx context.Context, artist, track string) ([]ports.SimilarTrack, error) {
	key := similarTracksPrefix + domain.CandidateKey(artist, track)
	if v, ok := c.store.Get(key); ok {
		if tracks, ok := v.([]ports.SimilarTrack); ok {
			return tracks, nil
		}
	}
	tracks, err := c.inner.SimilarTracks(ctx, artist, track)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, tracks)
	return tracks, nil
}

func (c *SimilarityCache) SimilarArtists(ctx context.Context, artist string, limit int) ([]ports.SimilarArtist, error) {
	key := similarArtistsPrefix + domain.NormalizeName(artist)
	if v, ok := c.store.Get(key); ok {
		if artists, ok := v.([]ports.SimilarArtist); ok {
			return capArtists(artists, limit), nil
		}
	}
	artists, err := c.inner.SimilarArtists(ctx, artist, limit)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, artists)
	return artists, nil
}

func capArtists(artists []ports.SimilarArtist, limit int) []ports.SimilarArtist {
	if limit > 0 && len(artists) > limit {
		return artists[:limit]
	}
	return artists
}

// searchResult is a cached track search, including confirmed misses so a
// repeat query for an unresolvable candidate skips the network.
type searchResult struct {
	track domain.Track
	found bool
}

// ResolverCache memoizes a TrackResolver, no-match results included.
type ResolverCache struct {
	inner ports.TrackResolver
	store *Store
}

var _ ports.TrackResolver = (*ResolverCache)(nil)

// NewResolverCache wraps a resolver with the store.
func NewResolverCache(inner ports.TrackResolver, store *Store) *ResolverCache {
	return &ResolverCache{inner: inner, store: store}
}

func (c *ResolverCache) SearchTrack(ctx context.Context, artist, track string) (domain.Track, error) {
	key := trackSearchPrefix + domain.CandidateKey(artist, track)
	if v, ok := c.store.Get(key); ok {
		if res, ok := v.(searchResult); ok {
			if !res.found {
				return domain.Track{}, ports.NoMatchError{Artist: artist, Track: track}
			}
			return res.track, nil
		}
	}
	found, err := c.inner.SearchTrack(ctx, artist, track)
	if err != nil {
		if errors.Is(err, ports.ErrNoMatch) {
			c.store.Set(key, searchResult{})
		}
		return domain.Track{}, err
	}
	c.store.Set(key, searchResult{track: found, found: true})
	return found, nil
}

func (c *ResolverCache) TopTracksForArtist(ctx context.Context, artist string) ([]domain.Track, error) {
	key := topTracksPrefix + domain.NormalizeName(artist)
	if v, ok := c.store.Get(key); ok {
		if tracks, ok := v.([]domain.Track); ok {
			return tracks, nil
		}
	}
	tracks, err := c.inner.TopTracksForArtist(ctx, artist)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, tracks)
	return tracks, nil
}
