package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/soundtier/tierbeat/internal/core/domain"
)

// ErrNoMatch indicates a track search returned no usable result.
var ErrNoMatch = errors.New("no matching track")

// NoMatchError provides context for a failed track lookup.
type NoMatchError struct {
	Artist string
	Track  string
}

func (e NoMatchError) Error() string {
	if e.Artist == "" && e.Track == "" {
		return ErrNoMatch.Error()
	}
	return fmt.Sprintf("no matching track for artist %q track %q", e.Artist, e.Track)
}

func (e NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// TrackResolver resolves free-text artist/track metadata to canonical
// catalog tracks.
type TrackResolver interface {
	// SearchTrack returns the single best catalog match for an artist and
	// track name, or an error wrapping ErrNoMatch when there is none.
	SearchTrack(ctx context.Context, artist, track string) (domain.Track, error)

	// TopTracksForArtist returns an artist's most popular tracks, capped at
	// an implementation-defined small count.
	TopTracksForArtist(ctx context.Context, artist string) ([]domain.Track, error)
}
