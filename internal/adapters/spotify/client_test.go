package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/soundtier/tierbeat/internal/core/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.Client(), srv.URL, zerolog.Nop())
}

const searchBody = `{
	"tracks": {
		"items": [
			{
				"id": "track-1",
				"name": "Found Track",
				"artists": [{"name": "Primary"}, {"name": "Feature"}],
				"album": {"images": [{"url": "https://img/640"}, {"url": "https://img/300"}]},
				"external_urls": {"spotify": "https://open.spotify.com/track/track-1"}
			}
		]
	}
}`

func TestSearchTrack(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		if got := r.URL.Query().Get("type"); got != "track" {
			t.Errorf("type = %q, want track", got)
		}
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Errorf("limit = %q, want 1", got)
		}
		w.Write([]byte(searchBody))
	})

	track, err := client.SearchTrack(context.Background(), "Some Artist", "Some Track (Remastered 2011)")
	if err != nil {
		t.Fatalf("SearchTrack() error = %v", err)
	}

	if gotQuery != "artist:some artist track:some track" {
		t.Errorf("query = %q", gotQuery)
	}
	if track.ID != "track-1" || track.Name != "Found Track" {
		t.Errorf("track = %+v", track)
	}
	if track.Artist != "Primary" {
		t.Errorf("Artist = %q, want first listed artist", track.Artist)
	}
	if len(track.AlbumImageURLs) != 2 || track.AlbumImageURLs[0] != "https://img/640" {
		t.Errorf("AlbumImageURLs = %v", track.AlbumImageURLs)
	}
	if track.ExternalURL != "https://open.spotify.com/track/track-1" {
		t.Errorf("ExternalURL = %q", track.ExternalURL)
	}
}

func TestSearchTrackNoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks": {"items": []}}`))
	})

	_, err := client.SearchTrack(context.Background(), "Nobody", "Ghost")
	if !errors.Is(err, ports.ErrNoMatch) {
		t.Fatalf("error = %v, want ErrNoMatch", err)
	}

	var noMatch ports.NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("error = %v, want NoMatchError", err)
	}
	if noMatch.Artist != "Nobody" || noMatch.Track != "Ghost" {
		t.Errorf("NoMatchError = %+v, want original query names", noMatch)
	}
}

func TestTopTracksForArtist(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "3" {
			t.Errorf("limit = %q, want 3", got)
		}
		if got := r.URL.Query().Get("q"); got != `artist:"some artist"` {
			t.Errorf("q = %q", got)
		}
		w.Write([]byte(searchBody))
	})

	tracks, err := client.TopTracksForArtist(context.Background(), "Some Artist")
	if err != nil {
		t.Fatalf("TopTracksForArtist() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "track-1" {
		t.Errorf("tracks = %+v", tracks)
	}
}

func TestSearchErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.SearchTrack(context.Background(), "a", "t")
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}
