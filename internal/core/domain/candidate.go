package domain

// SourceSong records which ranked song produced a candidate and at what
// weight.
type SourceSong struct {
	Artist string
	Track  string
	Tier   string
	Weight int
}

func (s SourceSong) key() string {
	return CandidateKey(s.Artist, s.Track)
}

// Contribution is one (candidate, source) pairing emitted by a selection
// pass, before aggregation. Multiple contributions may carry the same key.
type Contribution struct {
	Key    string
	Artist string
	Track  string
	Score  float64
	Source SourceSong
}

// Candidate is a not-yet-resolved recommendation, aggregated across every
// ranked song that suggested it.
type Candidate struct {
	Key                 string
	Artist              string
	Track               string
	Score               float64
	Sources             []SourceSong
	RecommendationCount int
}

// Aggregate folds contributions in arrival order into unique candidates,
// preserving first-arrival key order.
//
// A repeat contribution always accumulates score and bumps
// RecommendationCount, but its source is appended only when no existing
// source carries the same (artist, track) pair. That keeps a single ranked
// song from showing up twice in a candidate's provenance.
func Aggregate(contribs []Contribution) []Candidate {
	byKey := make(map[string]int, len(contribs))
	candidates := make([]Candidate, 0, len(contribs))

	for _, c := range contribs {
		i, ok := byKey[c.Key]
		if !ok {
			byKey[c.Key] = len(candidates)
			candidates = append(candidates, Candidate{
				Key:                 c.Key,
				Artist:              c.Artist,
				Track:               c.Track,
				Score:               c.Score,
				Sources:             []SourceSong{c.Source},
				RecommendationCount: 1,
			})
			continue
		}

		cand := &candidates[i]
		cand.Score += c.Score
		cand.RecommendationCount++
		if !hasSource(cand.Sources, c.Source) {
			cand.Sources = append(cand.Sources, c.Source)
		}
	}

	return candidates
}

func hasSource(sources []SourceSong, s SourceSong) bool {
	key := s.key()
	for _, existing := range sources {
		if existing.key() == key {
			return true
		}
	}
	return false
}

// ResolvedRecommendation is a candidate joined with its canonical catalog
// track.
type ResolvedRecommendation struct {
	Candidate

	TrackID       string
	AlbumImageURL string
	ExternalURL   string
	IsNewArtist   bool
	AdjustedScore float64
}
