package youtube

import (
	"errors"
	"strings"
)

// ErrNoUsableCandidates means no candidate carried a video id, so no
// watch URL can be produced
var ErrNoUsableCandidates = errors.New("no usable video candidates")

// Selection is the outcome of scoring a candidate list.
// LowConfidence is set when no title, artist or channel signal matched
// on any candidate and the pick fell back to provider relevance order.
type Selection struct {
	Candidate     Candidate
	Score         int
	LowConfidence bool
}

// SelectBest scores candidates against the track name and artist names
// and returns the single best match. Candidates without a video id are
// excluded before scoring since they cannot produce a URL.
//
// All containment checks are case-insensitive. Ties resolve to the
// earlier candidate: a later one replaces the leader only on a strictly
// greater score.
func SelectBest(trackName string, artistNames []string, candidates []Candidate) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, ErrNoUsableCandidates
	}

	trackLower := strings.ToLower(trackName)
	artistsLower := make([]string, 0, len(artistNames))
	for _, name := range artistNames {
		artistsLower = append(artistsLower, strings.ToLower(name))
	}

	total := len(candidates)
	best := Selection{Score: -1}
	anySignal := false
	found := false

	for index, candidate := range candidates {
		if candidate.VideoID == "" {
			continue
		}

		titleLower := strings.ToLower(candidate.Title)
		channelLower := strings.ToLower(candidate.ChannelTitle)

		score := 0
		if trackLower != "" && strings.Contains(titleLower, trackLower) {
			score += 100
		}
		for _, artist := range artistsLower {
			if artist == "" {
				continue
			}
			if strings.Contains(titleLower, artist) {
				score += 80
			}
			if strings.Contains(channelLower, artist) {
				score += 60
			}
		}
		if strings.Contains(channelLower, "official") {
			score += 20
		}
		if strings.Contains(channelLower, "vevo") {
			score += 15
		}

		if score > 0 {
			anySignal = true
		}

		// Small prior for the provider's own relevance ordering
		score += (total - index) * 2

		if score > best.Score {
			best.Candidate = candidate
			best.Score = score
		}
		found = true
	}

	if !found {
		return Selection{}, ErrNoUsableCandidates
	}

	best.LowConfidence = !anySignal
	return best, nil
}
