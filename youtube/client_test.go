package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSearch(t *testing.T) {
	var gotQuery, gotKey, gotType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		gotType = r.URL.Query().Get("type")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{"id": {"videoId": "vid1"}, "snippet": {"title": "First", "channelTitle": "Chan1"}},
				{"id": {"videoId": "vid2"}, "snippet": {"title": "Second", "channelTitle": "Chan2"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("test_key")
	client.baseURL = server.URL

	candidates, err := client.Search(context.Background(), "test query", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotQuery != "test query" {
		t.Errorf("Expected query 'test query', got '%s'", gotQuery)
	}
	if gotKey != "test_key" {
		t.Errorf("Expected API key to be sent, got '%s'", gotKey)
	}
	if gotType != "video" {
		t.Errorf("Expected type 'video', got '%s'", gotType)
	}

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].VideoID != "vid1" || candidates[0].Title != "First" {
		t.Errorf("Unexpected first candidate: %+v", candidates[0])
	}
	if candidates[1].ChannelTitle != "Chan2" {
		t.Errorf("Unexpected second candidate: %+v", candidates[1])
	}
}

func TestClientSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "quotaExceeded"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("test_key")
	client.baseURL = server.URL

	if _, err := client.Search(context.Background(), "query", 3); err == nil {
		t.Error("Expected error for non-2xx response")
	}
}

func TestClientSearchEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	client := NewClient("test_key")
	client.baseURL = server.URL

	candidates, err := client.Search(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates, got %d", len(candidates))
	}
}
