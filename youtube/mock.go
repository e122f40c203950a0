package youtube

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// MockProvider fabricates deterministic video ids without calling the
// API. Used when no API key is configured, so conversion can be
// exercised end to end offline.
type MockProvider struct{}

// NewMockProvider returns a provider that never touches the network
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Search returns a single deterministic candidate derived from the
// query. The same query always yields the same video id.
func (m *MockProvider) Search(_ context.Context, query string, _ int) ([]Candidate, error) {
	sum := md5.Sum([]byte(query))
	videoID := hex.EncodeToString(sum[:])[:11]

	return []Candidate{
		{
			VideoID:      videoID,
			Title:        fmt.Sprintf("Mock result for %q", query),
			ChannelTitle: "Mock Channel",
		},
	}, nil
}
