package store

import "testing"

func TestTrackConverted(t *testing.T) {
	track := Track{ID: "t1", Name: "Song"}
	if track.Converted() {
		t.Error("Expected track without URL to be unconverted")
	}

	track.YouTubeURL = ""
	if track.Converted() {
		t.Error("Expected empty URL to count as unconverted")
	}

	track.YouTubeURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if !track.Converted() {
		t.Error("Expected track with URL to be converted")
	}
}
