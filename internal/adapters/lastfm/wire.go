package lastfm

import (
	"bytes"
	"strconv"
)

// matchValue tolerates Last.fm's inconsistent encoding of match scores:
// track.getSimilar sends numbers, artist.getSimilar sends quoted strings.
type matchValue float64

func (m *matchValue) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = matchValue(f)
	return nil
}

// apiResponse lets call check the in-body error envelope shared by every
// Last.fm response shape.
type apiResponse interface {
	apiError() (int, string)
}

type errorEnvelope struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

func (e errorEnvelope) apiError() (int, string) {
	return e.Error, e.Message
}

type similarTracksResponse struct {
	SimilarTracks struct {
		Tracks []similarTrack `json:"track"`
	} `json:"similartracks"`
	errorEnvelope
}

type similarTrack struct {
	Name   string     `json:"name"`
	Match  matchValue `json:"match"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
}

type similarArtistsResponse struct {
	SimilarArtists struct {
		Artists []similarArtist `json:"artist"`
	} `json:"similarartists"`
	errorEnvelope
}

type similarArtist struct {
	Name  string     `json:"name"`
	Match matchValue `json:"match"`
}
