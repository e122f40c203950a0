package youtube

import "context"

// Candidate is a single video returned by a search provider
type Candidate struct {
	VideoID      string
	Title        string
	ChannelTitle string
}

// SearchProvider finds video candidates for a free-text query, best
// match first
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Candidate, error)
}

// WatchURL builds the canonical watch page URL for a video id
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
