package ports

import "context"

// SimilarTrack is one track similar to a query track, with the provider's
// match value in [0,1].
type SimilarTrack struct {
	Name   string
	Artist string
	Match  float64
}

// SimilarArtist is one artist similar to a query artist.
type SimilarArtist struct {
	Name  string
	Match float64
}

// SimilarityProvider looks up tracks and artists similar to a query. Results
// may be empty for obscure inputs; callers treat errors as empty results.
type SimilarityProvider interface {
	SimilarTracks(ctx context.Context, artist, track string) ([]SimilarTrack, error)
	SimilarArtists(ctx context.Context, artist string, limit int) ([]SimilarArtist, error)
}
