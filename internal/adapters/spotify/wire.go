package spotify

import "github.com/soundtier/tierbeat/internal/core/domain"

type searchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// spotifyTrack is the raw track object returned by the search endpoint.
type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// toDomain converts a raw Spotify track to a domain track. The first listed
// artist is the primary one.
func (st spotifyTrack) toDomain() domain.Track {
	primary := ""
	if len(st.Artists) > 0 {
		primary = st.Artists[0].Name
	}

	var images []string
	for _, img := range st.Album.Images {
		if img.URL != "" {
			images = append(images, img.URL)
		}
	}

	return domain.Track{
		ID:             st.ID,
		Name:           st.Name,
		Artist:         primary,
		AlbumImageURLs: images,
		ExternalURL:    st.ExternalURLs.Spotify,
	}
}
