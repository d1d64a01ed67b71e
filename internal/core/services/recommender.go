// Package services holds the recommendation engine: it weights ranked songs
// by tier, fans out similarity lookups, aggregates and deduplicates the
// candidates, resolves them to catalog tracks, and ranks the result.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
)

const (
	// maxConsideredCandidates caps how many aggregated candidates are sent
	// to the resolver, in arrival order.
	maxConsideredCandidates = 200

	// maxRecommendations caps the final ranked output.
	maxRecommendations = 200

	// newArtistBoost multiplies the score of a new-artist candidate when
	// discovery mode is on.
	newArtistBoost = 1.5

	// depthDecay shrinks the exploration depth between retry passes.
	depthDecay = 0.75

	defaultCallTimeout = 10 * time.Second
)

// ResultKind tags the outcome of a generation pass.
type ResultKind int

const (
	// ResultOK means the pass produced at least one recommendation.
	ResultOK ResultKind = iota
	// ResultNoInput means no ranked song carried a positive weight, so
	// there was nothing to recommend from.
	ResultNoInput
	// ResultExhausted means the pass ran to completion, including the
	// depth-reduction retries, and found nothing novel.
	ResultExhausted
)

// GenerateRequest carries one generation pass's inputs.
type GenerateRequest struct {
	Tierlist           domain.Tierlist
	ExplorationDepth   int
	DiscoverNewArtists bool
	NowPlayingTrackID  string
}

// GenerateResult is the tagged outcome of Generate. Items is populated only
// when Kind is ResultOK.
type GenerateResult struct {
	Kind  ResultKind
	Items []domain.ResolvedRecommendation
}

// Recommender generates track recommendations from a tierlist.
type Recommender struct {
	similarity  ports.SimilarityProvider
	resolver    ports.TrackResolver
	logger      zerolog.Logger
	callTimeout time.Duration
}

// NewRecommender constructs a Recommender.
func NewRecommender(similarity ports.SimilarityProvider, resolver ports.TrackResolver, logger zerolog.Logger) *Recommender {
	return &Recommender{
		similarity:  similarity,
		resolver:    resolver,
		logger:      logger.With().Str("component", "recommender").Logger(),
		callTimeout: defaultCallTimeout,
	}
}

// SetCallTimeout overrides the per-call timeout applied at the provider
// boundary. Non-positive values are ignored.
func (r *Recommender) SetCallTimeout(d time.Duration) {
	if d > 0 {
		r.callTimeout = d
	}
}

// Generate runs one full generation pass. Provider failures never surface:
// they degrade to empty per-song results. The returned error is non-nil only
// for an invalid request or a canceled context.
func (r *Recommender) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if !containsTier(req.Tierlist.TierOrder, req.Tierlist.UnrankedTier) {
		return GenerateResult{}, errors.New("recommender: tier order must contain the unranked tier")
	}

	weights := domain.TierWeights(req.Tierlist.TierOrder, req.Tierlist.UnrankedTier)
	songs := req.Tierlist.WeightedSongs(weights)
	if len(songs) == 0 {
		return GenerateResult{Kind: ResultNoInput}, nil
	}
	index := req.Tierlist.Index()

	depth := req.ExplorationDepth
	if depth < 0 {
		depth = 0
	}

	items, err := r.attempt(ctx, songs, index, depth, req.DiscoverNewArtists)
	if err != nil {
		return GenerateResult{}, err
	}
	if len(items) == 0 {
		return GenerateResult{Kind: ResultExhausted}, nil
	}

	rankRecommendations(items, req.Tierlist.TierOrder, req.NowPlayingTrackID)
	if len(items) > maxRecommendations {
		items = items[:maxRecommendations]
	}
	return GenerateResult{Kind: ResultOK, Items: items}, nil
}

// attempt runs a pass at the given exploration depth, retrying with a
// reduced depth while the result stays empty. Depth shrinks by a constant
// factor each retry, so the recursion is O(log depth).
func (r *Recommender) attempt(ctx context.Context, songs []domain.WeightedSong, index domain.RankedIndex, depth int, discover bool) ([]domain.ResolvedRecommendation, error) {
	items, err := r.runPass(ctx, songs, index, depth, discover)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 || depth == 0 {
		return items, nil
	}
	reduced := int(float64(depth) * depthDecay)
	r.logger.Debug().Int("depth", depth).Int("reduced", reduced).Msg("empty pass, retrying at reduced depth")
	return r.attempt(ctx, songs, index, reduced, discover)
}

func (r *Recommender) runPass(ctx context.Context, songs []domain.WeightedSong, index domain.RankedIndex, depth int, discover bool) ([]domain.ResolvedRecommendation, error) {
	lists, err := r.fetchCandidates(ctx, songs)
	if err != nil {
		return nil, err
	}

	contribs := selectContributions(songs, lists, index, depth)
	candidates := domain.Aggregate(contribs)
	if len(candidates) > maxConsideredCandidates {
		candidates = candidates[:maxConsideredCandidates]
	}

	return r.resolveCandidates(ctx, candidates, index, discover)
}

// selectContributions walks each song's fetched candidate list in order,
// starting at the depth offset, and collects up to weight new candidates per
// song. A candidate already claimed by an earlier song still contributes its
// source to that candidate's provenance, without counting against the later
// song's quota. A song re-encountering its own earlier pick is dropped.
func selectContributions(songs []domain.WeightedSong, lists [][]rawCandidate, index domain.RankedIndex, depth int) []domain.Contribution {
	claimed := make(map[string]int)
	var contribs []domain.Contribution

	for i, song := range songs {
		source := domain.SourceSong{
			Artist: song.Artist,
			Track:  song.Name,
			Tier:   song.Tier,
			Weight: song.Weight,
		}
		seen := make(map[string]struct{})
		start := depth * song.Weight
		taken := 0

		for j := start; j < len(lists[i]) && taken < song.Weight; j++ {
			c := lists[i][j]
			key := domain.CandidateKey(c.Artist, c.Track)
			if index.HasKey(key) {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			contribs = append(contribs, domain.Contribution{
				Key:    key,
				Artist: c.Artist,
				Track:  c.Track,
				Score:  float64(song.Weight) * c.Match,
				Source: source,
			})
			if owner, ok := claimed[key]; ok && owner != i {
				// Provenance only; the claim stays with the earlier song.
				continue
			}
			claimed[key] = i
			taken++
		}
	}

	return contribs
}

func containsTier(tierOrder []string, tier string) bool {
	for _, t := range tierOrder {
		if t == tier {
			return true
		}
	}
	return false
}
