package store

// Track is a song node in the graph. YouTubeURL is the only field the
// conversion pipeline mutates; everything else comes from Spotify.
type Track struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SpotifyURI   string `json:"spotify_uri"`
	DurationMS   int    `json:"duration_ms"`
	Explicit     bool   `json:"explicit"`
	Popularity   int    `json:"popularity"`
	PreviewURL   string `json:"preview_url,omitempty"`
	ExternalURLs string `json:"external_urls"`
	YouTubeURL   string `json:"youtube_url,omitempty"`
	ISRC         string `json:"isrc,omitempty"`
}

// Converted reports whether the track already has a YouTube URL
func (t Track) Converted() bool {
	return t.YouTubeURL != ""
}

// Artist is an artist node in the graph
type Artist struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SpotifyURI   string `json:"spotify_uri"`
	ExternalURLs string `json:"external_urls"`
}

// Album is an album node in the graph
type Album struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SpotifyURI  string `json:"spotify_uri"`
	AlbumType   string `json:"album_type"`
	ReleaseDate string `json:"release_date"`
	TotalTracks int    `json:"total_tracks"`
}

// Playlist is a playlist node in the graph
type Playlist struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	SpotifyURI       string `json:"spotify_uri"`
	OwnerID          string `json:"owner_id"`
	OwnerDisplayName string `json:"owner_display_name"`
	Public           bool   `json:"public"`
	Collaborative    bool   `json:"collaborative"`
	SnapshotID       string `json:"snapshot_id"`
	TotalTracks      int    `json:"total_tracks"`
}

// PlaylistTrack pairs a track with its position inside a playlist
type PlaylistTrack struct {
	Track    Track `json:"track"`
	Position int64 `json:"position"`
}

// PlaylistEntry carries one imported track with everything needed to
// store its relationships
type PlaylistEntry struct {
	Track    Track
	Artists  []Artist
	Album    Album
	Position int64
}
