package domain

import "strings"

// keySeparator joins the artist and track halves of a normalized key. It is
// unlikely to occur in real artist or track names.
const keySeparator = "###"

// RankedSong is a song the user has placed in a tier.
type RankedSong struct {
	TrackID string
	Name    string
	Artist  string // primary artist
	Tier    string
}

// Key returns the song's normalized (artist, track) key.
func (s RankedSong) Key() string {
	return CandidateKey(s.Artist, s.Name)
}

// Tierlist is the read-only ranking state a generation pass consumes: the
// user's tier ordering (best to worst, conventionally ending in the unranked
// bucket) and the songs placed in each tier.
type Tierlist struct {
	TierOrder    []string
	UnrankedTier string
	Tiers        map[string][]RankedSong
}

// WeightedSong pairs a ranked song with the weight derived from its tier.
type WeightedSong struct {
	RankedSong
	Weight int
}

// WeightedSongs returns every song whose tier carries a positive weight, in
// tier-order-major, in-tier-position order. That order is what makes a
// generation pass deterministic, so callers must not reorder it.
func (t Tierlist) WeightedSongs(weights map[string]int) []WeightedSong {
	var songs []WeightedSong
	for _, tier := range t.TierOrder {
		w := weights[tier]
		if w <= 0 {
			continue
		}
		for _, song := range t.Tiers[tier] {
			songs = append(songs, WeightedSong{RankedSong: song, Weight: w})
		}
	}
	return songs
}

// RankedIndex holds the exclusion sets derived from a tierlist: every ranked
// track ID, every normalized (artist, track) key, and every normalized artist.
type RankedIndex struct {
	trackIDs map[string]struct{}
	keys     map[string]struct{}
	artists  map[string]struct{}
}

// Index builds the exclusion index over all songs in the tierlist, including
// the unranked bucket. A song the user already has must never come back as a
// recommendation, ranked or not.
func (t Tierlist) Index() RankedIndex {
	idx := RankedIndex{
		trackIDs: make(map[string]struct{}),
		keys:     make(map[string]struct{}),
		artists:  make(map[string]struct{}),
	}
	for _, songs := range t.Tiers {
		for _, song := range songs {
			if song.TrackID != "" {
				idx.trackIDs[song.TrackID] = struct{}{}
			}
			idx.keys[song.Key()] = struct{}{}
			idx.artists[NormalizeName(song.Artist)] = struct{}{}
		}
	}
	return idx
}

func (i RankedIndex) HasTrackID(id string) bool {
	_, ok := i.trackIDs[id]
	return ok
}

func (i RankedIndex) HasKey(key string) bool {
	_, ok := i.keys[key]
	return ok
}

func (i RankedIndex) HasArtist(artist string) bool {
	_, ok := i.artists[NormalizeName(artist)]
	return ok
}

// CandidateKey builds the normalized `artist###track` key used for
// deduplication across providers and against the ranked set.
func CandidateKey(artist, track string) string {
	return NormalizeName(artist) + keySeparator + NormalizeName(track)
}

// NormalizeName lowercases and trims a free-text artist or track name.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
