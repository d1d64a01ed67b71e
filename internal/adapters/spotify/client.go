// Package spotify implements the track resolver port against the Spotify
// Web API.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1"
	tokenURL       = "https://accounts.spotify.com/api/token"

	// topTrackLimit caps TopTracksForArtist results.
	topTrackLimit = 3
)

// Client is an HTTP client for the Spotify adapter.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	baseBackoff time.Duration
	logger      zerolog.Logger
}

var _ ports.TrackResolver = (*Client)(nil)

// NewClient constructs a Spotify client authenticating with the
// client-credentials flow. The oauth2 transport refreshes tokens as needed.
func NewClient(ctx context.Context, clientID, clientSecret string, logger zerolog.Logger) *Client {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return newClient(cfg.Client(ctx), defaultBaseURL, logger)
}

// NewClientWithHTTP constructs a client against an arbitrary endpoint with a
// pre-configured HTTP client, for tests.
func NewClientWithHTTP(httpClient *http.Client, baseURL string, logger zerolog.Logger) *Client {
	return newClient(httpClient, baseURL, logger)
}

func newClient(httpClient *http.Client, baseURL string, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBackoff,
		logger:      logger.With().Str("component", "spotify").Logger(),
	}
}

// SearchTrack resolves an artist and track name to the first catalog match,
// or an error wrapping ports.ErrNoMatch when the search comes back empty.
func (c *Client) SearchTrack(ctx context.Context, artist, track string) (domain.Track, error) {
	queryArtist, queryTrack := normalizeArtistTrack(artist, track)
	q := fmt.Sprintf("artist:%s track:%s", fallbackIfEmpty(queryArtist, artist), fallbackIfEmpty(queryTrack, track))

	items, err := c.search(ctx, q, 1)
	if err != nil {
		return domain.Track{}, err
	}
	if len(items) == 0 {
		return domain.Track{}, fmt.Errorf("spotify adapter: %w", ports.NoMatchError{Artist: artist, Track: track})
	}
	return items[0].toDomain(), nil
}

// TopTracksForArtist returns up to topTrackLimit popular tracks for the
// named artist, via an artist-scoped search.
func (c *Client) TopTracksForArtist(ctx context.Context, artist string) ([]domain.Track, error) {
	q := fmt.Sprintf("artist:%q", fallbackIfEmpty(normalizeSearchInput(artist), artist))

	items, err := c.search(ctx, q, topTrackLimit)
	if err != nil {
		return nil, err
	}
	tracks := make([]domain.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, item.toDomain())
	}
	return tracks, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]spotifyTrack, error) {
	searchURL, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: invalid search url: %w", err)
	}
	values := searchURL.Query()
	values.Set("q", query)
	values.Set("type", "track")
	values.Set("limit", strconv.Itoa(limit))
	searchURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify adapter: search status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("spotify adapter: search decode error: %w", err)
	}
	return body.Tracks.Items, nil
}
