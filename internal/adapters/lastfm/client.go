// Package lastfm implements the similarity provider port against the
// Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/soundtier/tierbeat/internal/core/ports"
)

const defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Last.fm asks clients to stay under roughly 5 requests per second.
const defaultRequestsPerSecond = 4

// Client is an HTTP client for the Last.fm API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

var _ ports.SimilarityProvider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit overrides the client-side request rate.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// NewClient constructs a Last.fm client.
func NewClient(apiKey string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
		logger:     logger.With().Str("component", "lastfm").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SimilarTracks returns tracks similar to (artist, track), possibly empty.
func (c *Client) SimilarTracks(ctx context.Context, artist, track string) ([]ports.SimilarTrack, error) {
	params := url.Values{
		"method":      {"track.getsimilar"},
		"artist":      {artist},
		"track":       {track},
		"autocorrect": {"1"},
		"limit":       {"100"},
	}

	var body similarTracksResponse
	if err := c.call(ctx, params, &body); err != nil {
		return nil, err
	}

	tracks := make([]ports.SimilarTrack, 0, len(body.SimilarTracks.Tracks))
	for _, t := range body.SimilarTracks.Tracks {
		if t.Name == "" || t.Artist.Name == "" {
			continue
		}
		tracks = append(tracks, ports.SimilarTrack{
			Name:   t.Name,
			Artist: t.Artist.Name,
			Match:  float64(t.Match),
		})
	}
	return tracks, nil
}

// SimilarArtists returns artists similar to the given artist, possibly empty.
func (c *Client) SimilarArtists(ctx context.Context, artist string, limit int) ([]ports.SimilarArtist, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"method":      {"artist.getsimilar"},
		"artist":      {artist},
		"autocorrect": {"1"},
		"limit":       {strconv.Itoa(limit)},
	}

	var body similarArtistsResponse
	if err := c.call(ctx, params, &body); err != nil {
		return nil, err
	}

	artists := make([]ports.SimilarArtist, 0, len(body.SimilarArtists.Artists))
	for _, a := range body.SimilarArtists.Artists {
		if a.Name == "" {
			continue
		}
		artists = append(artists, ports.SimilarArtist{Name: a.Name, Match: float64(a.Match)})
	}
	return artists, nil
}

// call performs one rate-limited API request and decodes the response into
// out. Last.fm reports application errors in the body, not the status code.
func (c *Client) call(ctx context.Context, params url.Values, out apiResponse) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("lastfm adapter: %w", err)
	}

	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("lastfm adapter: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lastfm adapter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lastfm adapter: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("lastfm adapter: decode error: %w", err)
	}
	if code, msg := out.apiError(); code != 0 {
		return fmt.Errorf("lastfm adapter: api error %d: %s", code, msg)
	}
	return nil
}
