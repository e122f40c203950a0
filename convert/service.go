package convert

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calum/tubegraph/store"
	"github.com/calum/tubegraph/youtube"
)

// Delay between live search calls so batches stay inside API quotas
const searchDelay = 100 * time.Millisecond

// Candidates requested per search; the matcher only needs a handful
const maxSearchResults = 3

var (
	// ErrNoResults means the search provider returned nothing for the query
	ErrNoResults = errors.New("no search results found")
	// ErrTrackNotFound means the track id does not exist in the store
	ErrTrackNotFound = errors.New("track not found")
)

// TrackStore is the subset of the graph store conversion needs
type TrackStore interface {
	TracksWithoutYouTubeURL(ctx context.Context, limit int) ([]store.Track, error)
	TrackByID(ctx context.Context, trackID string) (*store.Track, error)
	TrackArtists(ctx context.Context, trackID string) ([]store.Artist, error)
	UpdateTrackYouTubeURL(ctx context.Context, trackID, youtubeURL string) error
	ConversionCounts(ctx context.Context) (total, converted, pending int64, err error)
}

// BatchSummary reports the outcome of one conversion batch
type BatchSummary struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ConversionStats is a point-in-time snapshot of conversion progress
type ConversionStats struct {
	Total     int64 `json:"total_tracks"`
	Converted int64 `json:"converted_tracks"`
	Pending   int64 `json:"pending_conversion"`
}

// Service turns tracks without a YouTube URL into tracks with one
type Service struct {
	store    TrackStore
	provider youtube.SearchProvider
	live     bool
	workers  int
}

// NewService builds a conversion service. live should be false when the
// provider is the mock, which skips the inter-search delay.
func NewService(trackStore TrackStore, provider youtube.SearchProvider, live bool, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		store:    trackStore,
		provider: provider,
		live:     live,
		workers:  workers,
	}
}

// ConvertOne finds and stores a YouTube URL for the track. Tracks that
// already have a URL are returned as-is without calling the provider.
func (s *Service) ConvertOne(ctx context.Context, track store.Track, artists []store.Artist) (string, error) {
	if track.Converted() {
		return track.YouTubeURL, nil
	}
	return s.convert(ctx, track, artists)
}

// ConvertOneForced re-searches and overwrites the stored URL even when
// the track is already converted. Used for manual re-conversion.
func (s *Service) ConvertOneForced(ctx context.Context, trackID string) (string, error) {
	track, err := s.store.TrackByID(ctx, trackID)
	if err != nil {
		return "", fmt.Errorf("failed to load track %s: %w", trackID, err)
	}
	if track == nil {
		return "", ErrTrackNotFound
	}

	artists, err := s.store.TrackArtists(ctx, trackID)
	if err != nil {
		return "", fmt.Errorf("failed to load artists for track %s: %w", trackID, err)
	}

	return s.convert(ctx, *track, artists)
}

func (s *Service) convert(ctx context.Context, track store.Track, artists []store.Artist) (string, error) {
	query := buildQuery(track, artists)
	log.Printf("🔍 Searching YouTube for: %s", query)

	candidates, err := s.provider.Search(ctx, query, maxSearchResults)
	if err != nil {
		return "", fmt.Errorf("search failed for track %s: %w", track.ID, err)
	}
	if len(candidates) == 0 {
		return "", ErrNoResults
	}

	artistNames := make([]string, 0, len(artists))
	for _, artist := range artists {
		artistNames = append(artistNames, artist.Name)
	}

	selection, err := youtube.SelectBest(track.Name, artistNames, candidates)
	if err != nil {
		return "", err
	}
	if selection.LowConfidence {
		log.Printf("⚠️ Low-confidence match for %q: %s (%s)", track.Name, selection.Candidate.Title, selection.Candidate.ChannelTitle)
	}

	url := youtube.WatchURL(selection.Candidate.VideoID)
	if err := s.store.UpdateTrackYouTubeURL(ctx, track.ID, url); err != nil {
		return "", fmt.Errorf("failed to store URL for track %s: %w", track.ID, err)
	}

	log.Printf("✅ Converted %q -> %s", track.Name, url)
	return url, nil
}

// buildQuery builds the search query from the track name plus the first
// artist when one is known. Tracks with a Spotify URI but no artist get
// an "official" hint to bias toward canonical uploads.
func buildQuery(track store.Track, artists []store.Artist) string {
	if len(artists) > 0 && artists[0].Name != "" {
		return track.Name + " " + artists[0].Name
	}
	if track.SpotifyURI != "" {
		return track.Name + " official"
	}
	return track.Name
}

// ConvertBatch converts up to limit unconverted tracks, capped further
// by maxTracks when it is smaller (0 means no extra cap). Individual
// track failures are counted and skipped, never fatal to the batch.
func (s *Service) ConvertBatch(ctx context.Context, limit, maxTracks int) (BatchSummary, error) {
	if maxTracks > 0 && maxTracks < limit {
		limit = maxTracks
	}

	tracks, err := s.store.TracksWithoutYouTubeURL(ctx, limit)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("failed to load unconverted tracks: %w", err)
	}
	if len(tracks) == 0 {
		log.Printf("✨ No tracks pending conversion")
		return BatchSummary{}, nil
	}

	log.Printf("🎬 Converting %d tracks...", len(tracks))

	var succeeded, failed atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for _, track := range tracks {
		track := track // capture for the worker
		group.Go(func() error {
			if s.live {
				// Pace live searches regardless of outcome
				defer time.Sleep(searchDelay)
			}

			artists, err := s.store.TrackArtists(groupCtx, track.ID)
			if err != nil {
				log.Printf("❌ Failed to load artists for %q (%s): %v", track.Name, track.ID, err)
				failed.Add(1)
				return nil
			}

			if _, err := s.ConvertOne(groupCtx, track, artists); err != nil {
				log.Printf("❌ Failed to convert %q (%s): %v", track.Name, track.ID, err)
				failed.Add(1)
				return nil
			}

			succeeded.Add(1)
			return nil
		})
	}

	// Workers never return errors; the wait is for completion only
	_ = group.Wait()

	summary := BatchSummary{
		Processed: len(tracks),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}

	rate := 0.0
	if summary.Processed > 0 {
		rate = float64(summary.Succeeded) / float64(summary.Processed) * 100
	}
	log.Printf("🏁 Batch complete: %d processed, %d succeeded, %d failed (%.0f%% success)",
		summary.Processed, summary.Succeeded, summary.Failed, rate)

	return summary, nil
}

// Stats returns the current conversion progress snapshot
func (s *Service) Stats(ctx context.Context) (ConversionStats, error) {
	total, converted, pending, err := s.store.ConversionCounts(ctx)
	if err != nil {
		return ConversionStats{}, fmt.Errorf("failed to load conversion counts: %w", err)
	}
	return ConversionStats{
		Total:     total,
		Converted: converted,
		Pending:   pending,
	}, nil
}
