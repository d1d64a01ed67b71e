package domain

import "errors"

var ErrNotFound = errors.New("domain: not found")

// Track is a canonical catalog track returned by the track resolver.
type Track struct {
	ID             string
	Name           string
	Artist         string // primary artist
	AlbumImageURLs []string
	ExternalURL    string
}

// CoverURL returns the first album image, if any.
func (t Track) CoverURL() string {
	if len(t.AlbumImageURLs) == 0 {
		return ""
	}
	return t.AlbumImageURLs[0]
}
