package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/calum/tubegraph/store"
)

var (
	playlistIDPattern = regexp.MustCompile(`playlist[/:]([a-zA-Z0-9]+)`)
	bareIDPattern     = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// Client wraps the Spotify Web API for playlist imports
type Client struct {
	client *spotify.Client
}

// NewClient builds a client over the given token source. Tokens are
// refreshed transparently by the source before each request.
func NewClient(ctx context.Context, tokens oauth2.TokenSource) *Client {
	httpClient := oauth2.NewClient(ctx, tokens)
	return &Client{client: spotify.New(httpClient)}
}

// PlaylistIDFromURL extracts the playlist id from a Spotify URL or URI.
// Accepts both https://open.spotify.com/playlist/{id} and
// spotify:playlist:{id} forms; a bare id passes through unchanged.
func PlaylistIDFromURL(input string) (string, error) {
	if matches := playlistIDPattern.FindStringSubmatch(input); len(matches) == 2 {
		return matches[1], nil
	}
	if input != "" && bareIDPattern.MatchString(input) {
		return input, nil
	}
	return "", fmt.Errorf("could not extract playlist id from %q", input)
}

// FetchPlaylist downloads a playlist's metadata and every track in it,
// paginating 100 tracks at a time
func (c *Client) FetchPlaylist(ctx context.Context, playlistID string) (store.Playlist, []store.PlaylistEntry, error) {
	full, err := c.client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return store.Playlist{}, nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	playlist := store.Playlist{
		ID:               string(full.ID),
		Name:             full.Name,
		Description:      full.Description,
		SpotifyURI:       string(full.URI),
		OwnerID:          full.Owner.ID,
		OwnerDisplayName: full.Owner.DisplayName,
		Public:           full.IsPublic,
		Collaborative:    full.Collaborative,
		SnapshotID:       full.SnapshotID,
		TotalTracks:      int(full.Tracks.Total),
	}

	var entries []store.PlaylistEntry
	page := 1
	position := int64(0)

	for {
		tracks, err := c.client.GetPlaylistTracks(ctx, spotify.ID(playlistID),
			spotify.Offset((page-1)*100), spotify.Limit(100))
		if err != nil {
			return store.Playlist{}, nil, fmt.Errorf("failed to get playlist tracks (page %d): %w", page, err)
		}

		for _, item := range tracks.Tracks {
			entry := convertTrack(item.Track)
			entry.Position = position
			entries = append(entries, entry)
			position++
		}

		if len(tracks.Tracks) < 100 {
			break
		}
		page++
	}

	return playlist, entries, nil
}

func convertTrack(track spotify.FullTrack) store.PlaylistEntry {
	entry := store.PlaylistEntry{
		Track: store.Track{
			ID:           string(track.ID),
			Name:         track.Name,
			SpotifyURI:   string(track.URI),
			DurationMS:   track.Duration,
			Explicit:     track.Explicit,
			Popularity:   int(track.Popularity),
			PreviewURL:   track.PreviewURL,
			ExternalURLs: encodeURLs(track.ExternalURLs),
			ISRC:         track.ExternalIDs["isrc"],
		},
		Album: store.Album{
			ID:          string(track.Album.ID),
			Name:        track.Album.Name,
			SpotifyURI:  string(track.Album.URI),
			AlbumType:   track.Album.AlbumType,
			ReleaseDate: track.Album.ReleaseDate,
			TotalTracks: 0,
		},
	}

	for _, artist := range track.Artists {
		entry.Artists = append(entry.Artists, store.Artist{
			ID:         string(artist.ID),
			Name:       artist.Name,
			SpotifyURI: string(artist.URI),
		})
	}

	return entry
}

// encodeURLs stores the external URL map as JSON so graph node
// properties stay scalar
func encodeURLs(urls map[string]string) string {
	if len(urls) == 0 {
		return "{}"
	}
	encoded, err := json.Marshal(urls)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
