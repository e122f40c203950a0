package youtube

import (
	"errors"
	"testing"
)

func TestSelectBestEmptyCandidates(t *testing.T) {
	_, err := SelectBest("Song", []string{"Artist"}, nil)
	if !errors.Is(err, ErrNoUsableCandidates) {
		t.Errorf("Expected ErrNoUsableCandidates for empty list, got %v", err)
	}
}

func TestSelectBestNoUsableCandidates(t *testing.T) {
	// Channel and playlist results come back without a video id
	candidates := []Candidate{
		{VideoID: "", Title: "Song - Topic", ChannelTitle: "Artist"},
		{VideoID: "", Title: "Artist Mix", ChannelTitle: "YouTube"},
	}

	_, err := SelectBest("Song", []string{"Artist"}, candidates)
	if !errors.Is(err, ErrNoUsableCandidates) {
		t.Errorf("Expected ErrNoUsableCandidates, got %v", err)
	}
}

func TestSelectBestSkipsUnusableCandidates(t *testing.T) {
	candidates := []Candidate{
		{VideoID: "", Title: "Song by Artist", ChannelTitle: "Artist Official"},
		{VideoID: "vid2", Title: "unrelated", ChannelTitle: "someone"},
	}

	selection, err := SelectBest("Song", []string{"Artist"}, candidates)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	if selection.Candidate.VideoID != "vid2" {
		t.Errorf("Expected vid2, got %s", selection.Candidate.VideoID)
	}
}

func TestSelectBestTitleMatch(t *testing.T) {
	candidates := []Candidate{
		{VideoID: "vid1", Title: "some other video", ChannelTitle: "random"},
		{VideoID: "vid2", Title: "Bohemian Rhapsody (Official Video)", ChannelTitle: "Queen Official"},
	}

	selection, err := SelectBest("Bohemian Rhapsody", []string{"Queen"}, candidates)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	if selection.Candidate.VideoID != "vid2" {
		t.Errorf("Expected vid2 to win on title+artist+official, got %s", selection.Candidate.VideoID)
	}
	if selection.LowConfidence {
		t.Error("Expected high confidence with matching signals")
	}
}

func TestSelectBestCaseInsensitive(t *testing.T) {
	candidates := []Candidate{
		{VideoID: "vid1", Title: "QUEEN - BOHEMIAN RHAPSODY", ChannelTitle: "QUEEN VEVO"},
	}

	selection, err := SelectBest("bohemian rhapsody", []string{"queen"}, candidates)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	// title 100 + artist-in-title 80 + artist-in-channel 60 + vevo 15 + position 2
	if selection.Score != 257 {
		t.Errorf("Expected score 257, got %d", selection.Score)
	}
}

func TestSelectBestDeterminism(t *testing.T) {
	candidates := []Candidate{
		{VideoID: "vid1", Title: "Song A", ChannelTitle: "chan1"},
		{VideoID: "vid2", Title: "Song B", ChannelTitle: "chan2"},
		{VideoID: "vid3", Title: "Song C", ChannelTitle: "chan3"},
	}

	first, err := SelectBest("Song B", []string{"Artist"}, candidates)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := SelectBest("Song B", []string{"Artist"}, candidates)
		if err != nil {
			t.Fatalf("SelectBest failed: %v", err)
		}
		if again.Candidate.VideoID != first.Candidate.VideoID || again.Score != first.Score {
			t.Fatalf("Expected identical result on every call, got %+v then %+v", first, again)
		}
	}
}

func TestSelectBestMonotonicity(t *testing.T) {
	// Adding the track name to a candidate's title raises its score by
	// exactly 100 and can only move the selection in its favor.
	without := []Candidate{
		{VideoID: "vid1", Title: "live performance", ChannelTitle: "chan"},
	}
	with := []Candidate{
		{VideoID: "vid1", Title: "My Track live performance", ChannelTitle: "chan"},
	}

	base, err := SelectBest("My Track", nil, without)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	boosted, err := SelectBest("My Track", nil, with)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}

	if boosted.Score-base.Score != 100 {
		t.Errorf("Expected title match to add exactly 100, got %d vs %d", boosted.Score, base.Score)
	}
}

func TestSelectBestPreservesProviderOrderOnTies(t *testing.T) {
	// No signals fire; the position bonus alone must pick the first
	candidates := []Candidate{
		{VideoID: "vid1", Title: "aaa", ChannelTitle: "x"},
		{VideoID: "vid2", Title: "bbb", ChannelTitle: "y"},
		{VideoID: "vid3", Title: "ccc", ChannelTitle: "z"},
	}

	selection, err := SelectBest("Song", []string{"Artist"}, candidates)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	if selection.Candidate.VideoID != "vid1" {
		t.Errorf("Expected first candidate to win with no signals, got %s", selection.Candidate.VideoID)
	}
	if !selection.LowConfidence {
		t.Error("Expected low confidence when no signal matched")
	}
}

func TestSelectBestFirstWinsOnEqualScore(t *testing.T) {
	// Identical signals: earlier candidate keeps the lead because a
	// later one needs a strictly greater score, and the position bonus
	// always favors earlier entries.
	candidates := []Candidate{
		{VideoID: "vid1", Title: "Song by Artist", ChannelTitle: "chan"},
		{VideoID: "vid2", Title: "Song by Artist", ChannelTitle: "chan"},
	}

	selection, err := SelectBest("Song", []string{"Artist"}, candidates)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	if selection.Candidate.VideoID != "vid1" {
		t.Errorf("Expected earlier candidate on equal signals, got %s", selection.Candidate.VideoID)
	}
}

func TestSelectBestChannelSignals(t *testing.T) {
	// "official" in the channel beats "vevo" by 5 when all else is equal,
	// but has to overcome the earlier candidate's position edge.
	candidates := []Candidate{
		{VideoID: "vid1", Title: "Song", ChannelTitle: "SomeVEVO"},
		{VideoID: "vid2", Title: "Song", ChannelTitle: "Official Channel"},
	}

	selection, err := SelectBest("Song", nil, candidates)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	// vid1: 100 + 15 + 4 = 119; vid2: 100 + 20 + 2 = 122
	if selection.Candidate.VideoID != "vid2" {
		t.Errorf("Expected official channel to win, got %s", selection.Candidate.VideoID)
	}
	if selection.Score != 122 {
		t.Errorf("Expected score 122, got %d", selection.Score)
	}
}

func TestSelectBestMultipleArtists(t *testing.T) {
	candidates := []Candidate{
		{VideoID: "vid1", Title: "Track ft. Second Artist", ChannelTitle: "First Artist"},
	}

	selection, err := SelectBest("Track", []string{"First Artist", "Second Artist"}, candidates)
	if err != nil {
		t.Fatalf("SelectBest failed: %v", err)
	}
	// title 100 + second artist in title 80 + first artist in channel 60 + position 2
	if selection.Score != 242 {
		t.Errorf("Expected score 242, got %d", selection.Score)
	}
}
