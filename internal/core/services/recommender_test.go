package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
)

// --- Stubs ---

type stubSimilarity struct {
	mu          sync.Mutex
	tracks      map[string][]ports.SimilarTrack  // keyed by CandidateKey(artist, track)
	artists     map[string][]ports.SimilarArtist // keyed by NormalizeName(artist)
	failTracks  map[string]bool
	trackCalls  int
	artistCalls int
}

func (s *stubSimilarity) SimilarTracks(ctx context.Context, artist, track string) ([]ports.SimilarTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackCalls++
	key := domain.CandidateKey(artist, track)
	if s.failTracks[key] {
		return nil, errors.New("similarity provider unavailable")
	}
	return s.tracks[key], nil
}

func (s *stubSimilarity) SimilarArtists(ctx context.Context, artist string, limit int) ([]ports.SimilarArtist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artistCalls++
	out := s.artists[domain.NormalizeName(artist)]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubResolver fabricates a stable catalog track for any query unless told
// otherwise.
type stubResolver struct {
	mu        sync.Mutex
	missing   map[string]bool
	overrides map[string]domain.Track
	top       map[string][]domain.Track
}

func (r *stubResolver) SearchTrack(ctx context.Context, artist, track string) (domain.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := domain.CandidateKey(artist, track)
	if r.missing[key] {
		return domain.Track{}, ports.NoMatchError{Artist: artist, Track: track}
	}
	if t, ok := r.overrides[key]; ok {
		return t, nil
	}
	return domain.Track{ID: "id-" + key, Name: track, Artist: artist}, nil
}

func (r *stubResolver) TopTracksForArtist(ctx context.Context, artist string) ([]domain.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.top[domain.NormalizeName(artist)], nil
}

// --- Fixtures ---

var sevenTiers = []string{"S", "A", "B", "C", "D", "F", "Unranked"}

func tierlistWith(tiers map[string][]domain.RankedSong) domain.Tierlist {
	return domain.Tierlist{
		TierOrder:    sevenTiers,
		UnrankedTier: "Unranked",
		Tiers:        tiers,
	}
}

func newTestRecommender(sim ports.SimilarityProvider, res ports.TrackResolver) *Recommender {
	return NewRecommender(sim, res, zerolog.Nop())
}

func song(id, name, artist, tier string) domain.RankedSong {
	return domain.RankedSong{TrackID: id, Name: name, Artist: artist, Tier: tier}
}

// --- Tests ---

func TestGenerateBasicScoring(t *testing.T) {
	songA := song("t-a", "Song A", "Artist A", "S")
	songB := song("t-b", "Song B", "Artist B", "A")
	sim := &stubSimilarity{
		tracks: map[string][]ports.SimilarTrack{
			songA.Key(): {{Name: "X", Artist: "Z", Match: 0.8}},
			songB.Key(): {{Name: "Y", Artist: "W", Match: 0.5}},
		},
	}
	r := newTestRecommender(sim, &stubResolver{})

	result, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist: tierlistWith(map[string][]domain.RankedSong{
			"S": {songA},
			"A": {songB},
		}),
	})
	require.NoError(t, err)
	require.Equal(t, ResultOK, result.Kind)
	require.Len(t, result.Items, 2)

	// X is backed by the S-tier song and carries the higher score.
	assert.Equal(t, "X", result.Items[0].Track)
	assert.InDelta(t, 4.0, result.Items[0].Score, 1e-9)
	assert.Equal(t, "Y", result.Items[1].Track)
	assert.InDelta(t, 2.0, result.Items[1].Score, 1e-9)
}

func TestGenerateNoInput(t *testing.T) {
	r := newTestRecommender(&stubSimilarity{}, &stubResolver{})

	tests := []struct {
		name     string
		tierlist domain.Tierlist
	}{
		{
			name:     "no ranked songs",
			tierlist: tierlistWith(map[string][]domain.RankedSong{}),
		},
		{
			name: "songs only in zero weight tiers",
			tierlist: tierlistWith(map[string][]domain.RankedSong{
				"F":        {song("t1", "Song", "Artist", "F")},
				"Unranked": {song("t2", "Other", "Artist", "Unranked")},
			}),
		},
		{
			name: "single ranked tier",
			tierlist: domain.Tierlist{
				TierOrder:    []string{"S", "Unranked"},
				UnrankedTier: "Unranked",
				Tiers: map[string][]domain.RankedSong{
					"S": {song("t1", "Song", "Artist", "S")},
				},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := r.Generate(context.Background(), GenerateRequest{Tierlist: tc.tierlist})
			require.NoError(t, err)
			assert.Equal(t, ResultNoInput, result.Kind)
			assert.Empty(t, result.Items)
		})
	}
}

func TestGenerateArtistFallback(t *testing.T) {
	songA := song("t-a", "Song A", "Artist A", "S")
	sim := &stubSimilarity{
		tracks: map[string][]ports.SimilarTrack{},
		artists: map[string][]ports.SimilarArtist{
			"artist a": {{Name: "ArtistZ", Match: 0.6}},
		},
	}
	res := &stubResolver{
		top: map[string][]domain.Track{
			"artistz": {{ID: "q1", Name: "Track Q", Artist: "ArtistZ"}},
		},
	}
	r := newTestRecommender(sim, res)

	result, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist: tierlistWith(map[string][]domain.RankedSong{"S": {songA}}),
	})
	require.NoError(t, err)
	require.Equal(t, ResultOK, result.Kind)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	assert.Equal(t, "Track Q", item.Track)
	assert.InDelta(t, 5*0.6, item.Score, 1e-9)
	require.Len(t, item.Sources, 1)
	assert.Equal(t, "Artist A", item.Sources[0].Artist)
	assert.Equal(t, "Song A", item.Sources[0].Track)
}

func TestGenerateNewArtistBoost(t *testing.T) {
	songA := song("t-a", "Song A", "Artist A", "S")
	songB := song("t-b", "Song B", "Artist B", "A")
	sim := &stubSimilarity{
		tracks: map[string][]ports.SimilarTrack{
			songA.Key(): {{Name: "X", Artist: "W", Match: 0.8}},
			// Artist A already appears in the tierlist, so no boost.
			songB.Key(): {{Name: "Y", Artist: "Artist A", Match: 0.5}},
		},
	}
	r := newTestRecommender(sim, &stubResolver{})

	result, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist: tierlistWith(map[string][]domain.RankedSong{
			"S": {songA},
			"A": {songB},
		}),
		DiscoverNewArtists: true,
	})
	require.NoError(t, err)
	require.Equal(t, ResultOK, result.Kind)
	require.Len(t, result.Items, 2)

	byTrack := map[string]domain.ResolvedRecommendation{}
	for _, item := range result.Items {
		byTrack[item.Track] = item
	}

	boosted := byTrack["X"]
	assert.True(t, boosted.IsNewArtist)
	assert.InDelta(t, 4.0*1.5, boosted.AdjustedScore, 1e-9)

	kept := byTrack["Y"]
	assert.False(t, kept.IsNewArtist)
	assert.InDelta(t, 2.0, kept.AdjustedScore, 1e-9)
}

func TestGenerateExcludesRankedTracks(t *testing.T) {
	songA := song("t-a", "Song A", "Artist A", "S")
	songB := song("t-b", "Song B", "Artist B", "A")
	sim := &stubSimilarity{
		tracks: map[string][]ports.SimilarTrack{
			// First candidate is literally the other ranked song, second
			// resolves to a ranked catalog ID under a different name.
			songA.Key(): {
				{Name: "Song B", Artist: "Artist B", Match: 0.9},
				{Name: "Song B (Remaster)", Artist: "Artist B", Match: 0.7},
				{Name: "X", Artist: "Z", Match: 0.6},
			},
		},
	}
	res := &stubResolver{
		overrides: map[string]domain.Track{
			domain.CandidateKey("Artist B", "Song B (Remaster)"): {ID: "t-b", Name: "Song B", Artist: "Artist B"},
		},
	}
	r := newTestRecommender(sim, res)

	result, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist: tierlistWith(map[string][]domain.RankedSong{
			"S": {songA},
			"A": {songB},
		}),
	})
	require.NoError(t, err)
	require.Equal(t, ResultOK, result.Kind)

	rankedIDs := map[string]bool{"t-a": true, "t-b": true}
	rankedKeys := map[string]bool{songA.Key(): true, songB.Key(): true}
	for _, item := range result.Items {
		assert.False(t, rankedIDs[item.TrackID], "ranked track id %s leaked into output", item.TrackID)
		assert.False(t, rankedKeys[item.Key], "ranked key %s leaked into output", item.Key)
	}
	require.Len(t, result.Items, 1)
	assert.Equal(t, "X", result.Items[0].Track)
}

func TestGenerateSharedCandidateProvenance(t *testing.T) {
	songA := song("t-a", "Song A", "Artist A", "S")
	songB := song("t-b", "Song B", "Artist B", "A")
	sim := &stubSimilarity{
		tracks: map[string][]ports.SimilarTrack{
			songA.Key(): {{Name: "X", Artist: "Z", Match: 0.8}},
			songB.Key(): {
				{Name: "X", Artist: "Z", Match: 0.5},
				{Name: "Y", Artist: "W", Match: 0.4},
			},
		},
	}
	r := newTestRecommender(sim, &stubResolver{})

	result, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist: tierlistWith(map[string][]domain.RankedSong{
			"S": {songA},
			"A": {songB},
		}),
	})
	require.NoError(t, err)
	require.Equal(t, ResultOK, result.Kind)
	require.Len(t, result.Items, 2)

	shared := result.Items[0]
	assert.Equal(t, "X", shared.Track)
	assert.Equal(t, 2, shared.RecommendationCount)
	assert.Len(t, shared.Sources, 2)
	assert.InDelta(t, 5*0.8+4*0.5, shared.Score, 1e-9)
}

func TestGenerateExplorationDepthOffset(t *testing.T) {
	songA := song("t-a", "Song A", "Artist A", "S") // weight 5
	var list []ports.SimilarTrack
	for _, name := range []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"} {
		list = append(list, ports.SimilarTrack{Name: name, Artist: "Z", Match: 0.5})
	}
	sim := &stubSimilarity{tracks: map[string][]ports.SimilarTrack{songA.Key(): list}}
	r := newTestRecommender(sim, &stubResolver{})

	result, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist:         tierlistWith(map[string][]domain.RankedSong{"S": {songA}}),
		ExplorationDepth: 1,
	})
	require.NoError(t, err)
	require.Equal(t, ResultOK, result.Kind)

	// Offset = depth x weight = 5, so only the tail past c4 is considered.
	got := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		got = append(got, item.Track)
	}
	assert.ElementsMatch(t, []string{"c5", "c6", "c7"}, got)
}

func TestGenerateRetryTerminatesOnEmptyProvider(t *testing.T) {
	songA := song("t-a", "Song A", "Artist A", "S")
	sim := &stubSimilarity{}
	r := newTestRecommender(sim, &stubResolver{})

	result, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist:         tierlistWith(map[string][]domain.RankedSong{"S": {songA}}),
		ExplorationDepth: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, ResultExhausted, result.Kind)
	assert.Empty(t, result.Items)

	// Depth decays 20 -> 15 -> 11 -> 8 -> 6 -> 4 -> 3 -> 2 -> 1 -> 0,
	// one similar-tracks call per pass for the single song.
	assert.Equal(t, 10, sim.trackCalls)
}

func TestGenerateProviderFailureSkipsSong(t *testing.T) {
	songA := song("t-a", "Song A", "Artist A", "S")
	songB := song("t-b", "Song B", "Artist B", "A")
	sim := &stubSimilarity{
		failTracks: map[string]bool{songA.Key(): true},
		tracks: map[string][]ports.SimilarTrack{
			songB.Key(): {{Name: "Y", Artist: "W", Match: 0.5}},
		},
	}
	r := newTestRecommender(sim, &stubResolver{})

	result, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist: tierlistWith(map[string][]domain.RankedSong{
			"S": {songA},
			"A": {songB},
		}),
	})
	require.NoError(t, err)
	require.Equal(t, ResultOK, result.Kind)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Y", result.Items[0].Track)
}

func TestGenerateUnresolvableCandidateDropped(t *testing.T) {
	songA := song("t-a", "Song A", "Artist A", "S")
	sim := &stubSimilarity{
		tracks: map[string][]ports.SimilarTrack{
			songA.Key(): {
				{Name: "X", Artist: "Z", Match: 0.8},
				{Name: "Ghost", Artist: "Nobody", Match: 0.7},
			},
		},
	}
	res := &stubResolver{missing: map[string]bool{domain.CandidateKey("Nobody", "Ghost"): true}}
	r := newTestRecommender(sim, res)

	result, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist: tierlistWith(map[string][]domain.RankedSong{"S": {songA}}),
	})
	require.NoError(t, err)
	require.Equal(t, ResultOK, result.Kind)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "X", result.Items[0].Track)
}

func TestGenerateDeterministicOrdering(t *testing.T) {
	songs := map[string][]domain.RankedSong{
		"S": {song("t-a", "Song A", "Artist A", "S"), song("t-c", "Song C", "Artist C", "S")},
		"A": {song("t-b", "Song B", "Artist B", "A")},
	}
	sim := &stubSimilarity{
		tracks: map[string][]ports.SimilarTrack{
			domain.CandidateKey("Artist A", "Song A"): {
				{Name: "X", Artist: "Z", Match: 0.8},
				{Name: "M", Artist: "N", Match: 0.8},
			},
			domain.CandidateKey("Artist C", "Song C"): {
				{Name: "X", Artist: "Z", Match: 0.3},
				{Name: "P", Artist: "Q", Match: 0.3},
			},
			domain.CandidateKey("Artist B", "Song B"): {
				{Name: "R", Artist: "N", Match: 0.9},
			},
		},
	}
	r := newTestRecommender(sim, &stubResolver{})
	req := GenerateRequest{
		Tierlist:          tierlistWith(songs),
		NowPlayingTrackID: "id-" + domain.CandidateKey("N", "R"),
	}

	first, err := r.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Generate(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, ResultOK, first.Kind)
	require.Equal(t, first.Items, second.Items)

	// The currently-playing track sorts first regardless of other keys.
	assert.Equal(t, "R", first.Items[0].Track)
}

func TestGenerateRejectsMissingUnrankedTier(t *testing.T) {
	r := newTestRecommender(&stubSimilarity{}, &stubResolver{})
	_, err := r.Generate(context.Background(), GenerateRequest{
		Tierlist: domain.Tierlist{TierOrder: []string{"S", "A"}, UnrankedTier: "Unranked"},
	})
	require.Error(t, err)
}
