package store

import (
	"context"
	"fmt"

	"github.com/calum/tubegraph/config"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Store is the Neo4j-backed track store
type Store struct {
	driver neo4j.DriverWithContext
}

// New connects to Neo4j, verifies connectivity and initializes the
// schema. A connection failure here is fatal to startup.
func New(ctx context.Context, cfg config.Neo4jConfig) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	s := &Store{driver: driver}

	if err := s.initializeSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close releases the underlying driver
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) initializeSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	queries := []string{
		"CREATE CONSTRAINT artist_id IF NOT EXISTS FOR (a:Artist) REQUIRE a.id IS UNIQUE",
		"CREATE CONSTRAINT track_id IF NOT EXISTS FOR (t:Track) REQUIRE t.id IS UNIQUE",
		"CREATE CONSTRAINT playlist_id IF NOT EXISTS FOR (p:Playlist) REQUIRE p.id IS UNIQUE",
		"CREATE CONSTRAINT album_id IF NOT EXISTS FOR (al:Album) REQUIRE al.id IS UNIQUE",
		"CREATE INDEX artist_name IF NOT EXISTS FOR (a:Artist) ON (a.name)",
		"CREATE INDEX track_name IF NOT EXISTS FOR (t:Track) ON (t.name)",
		"CREATE INDEX playlist_name IF NOT EXISTS FOR (p:Playlist) ON (p.name)",
		"CREATE INDEX track_isrc IF NOT EXISTS FOR (t:Track) ON (t.isrc)",
		"CREATE INDEX track_youtube_url IF NOT EXISTS FOR (t:Track) ON (t.youtube_url)",
	}

	for _, query := range queries {
		if _, err := session.Run(ctx, query, nil); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// exec runs a write query and consumes the result so it executes
func (s *Store) exec(ctx context.Context, cypher string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

// UpsertArtist creates or updates an artist node
func (s *Store) UpsertArtist(ctx context.Context, artist Artist) error {
	query := `
		MERGE (a:Artist {id: $id})
		SET a.name = $name,
			a.spotify_uri = $spotify_uri,
			a.external_urls = $external_urls,
			a.updated_at = datetime()
	`

	err := s.exec(ctx, query, map[string]any{
		"id":            artist.ID,
		"name":          artist.Name,
		"spotify_uri":   artist.SpotifyURI,
		"external_urls": artist.ExternalURLs,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update artist: %w", err)
	}
	return nil
}

// UpsertTrack creates or updates a track node
func (s *Store) UpsertTrack(ctx context.Context, track Track) error {
	query := `
		MERGE (t:Track {id: $id})
		SET t.name = $name,
			t.spotify_uri = $spotify_uri,
			t.duration_ms = $duration_ms,
			t.explicit = $explicit,
			t.popularity = $popularity,
			t.preview_url = $preview_url,
			t.external_urls = $external_urls,
			t.youtube_url = $youtube_url,
			t.isrc = $isrc,
			t.updated_at = datetime()
	`

	err := s.exec(ctx, query, map[string]any{
		"id":            track.ID,
		"name":          track.Name,
		"spotify_uri":   track.SpotifyURI,
		"duration_ms":   int64(track.DurationMS),
		"explicit":      track.Explicit,
		"popularity":    int64(track.Popularity),
		"preview_url":   track.PreviewURL,
		"external_urls": track.ExternalURLs,
		"youtube_url":   track.YouTubeURL,
		"isrc":          track.ISRC,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update track: %w", err)
	}
	return nil
}

// UpsertPlaylist creates or updates a playlist node
func (s *Store) UpsertPlaylist(ctx context.Context, playlist Playlist) error {
	query := `
		MERGE (p:Playlist {id: $id})
		SET p.name = $name,
			p.description = $description,
			p.spotify_uri = $spotify_uri,
			p.owner_id = $owner_id,
			p.owner_display_name = $owner_display_name,
			p.public = $public,
			p.collaborative = $collaborative,
			p.snapshot_id = $snapshot_id,
			p.total_tracks = $total_tracks,
			p.updated_at = datetime()
	`

	err := s.exec(ctx, query, map[string]any{
		"id":                 playlist.ID,
		"name":               playlist.Name,
		"description":        playlist.Description,
		"spotify_uri":        playlist.SpotifyURI,
		"owner_id":           playlist.OwnerID,
		"owner_display_name": playlist.OwnerDisplayName,
		"public":             playlist.Public,
		"collaborative":      playlist.Collaborative,
		"snapshot_id":        playlist.SnapshotID,
		"total_tracks":       int64(playlist.TotalTracks),
	})
	if err != nil {
		return fmt.Errorf("failed to create/update playlist: %w", err)
	}
	return nil
}

// UpsertAlbum creates or updates an album node
func (s *Store) UpsertAlbum(ctx context.Context, album Album) error {
	query := `
		MERGE (al:Album {id: $id})
		SET al.name = $name,
			al.spotify_uri = $spotify_uri,
			al.album_type = $album_type,
			al.release_date = $release_date,
			al.total_tracks = $total_tracks,
			al.updated_at = datetime()
	`

	err := s.exec(ctx, query, map[string]any{
		"id":           album.ID,
		"name":         album.Name,
		"spotify_uri":  album.SpotifyURI,
		"album_type":   album.AlbumType,
		"release_date": album.ReleaseDate,
		"total_tracks": int64(album.TotalTracks),
	})
	if err != nil {
		return fmt.Errorf("failed to create/update album: %w", err)
	}
	return nil
}

// LinkTrackToArtist records that an artist performed a track
func (s *Store) LinkTrackToArtist(ctx context.Context, trackID, artistID string) error {
	query := `
		MATCH (t:Track {id: $track_id}), (a:Artist {id: $artist_id})
		MERGE (a)-[:PERFORMED]->(t)
	`

	err := s.exec(ctx, query, map[string]any{
		"track_id":  trackID,
		"artist_id": artistID,
	})
	if err != nil {
		return fmt.Errorf("failed to link track to artist: %w", err)
	}
	return nil
}

// LinkTrackToAlbum records that an album contains a track
func (s *Store) LinkTrackToAlbum(ctx context.Context, trackID, albumID string) error {
	query := `
		MATCH (t:Track {id: $track_id}), (al:Album {id: $album_id})
		MERGE (al)-[:CONTAINS]->(t)
	`

	err := s.exec(ctx, query, map[string]any{
		"track_id": trackID,
		"album_id": albumID,
	})
	if err != nil {
		return fmt.Errorf("failed to link track to album: %w", err)
	}
	return nil
}

// LinkPlaylistToTrack records a track's position inside a playlist
func (s *Store) LinkPlaylistToTrack(ctx context.Context, playlistID, trackID string, position int64) error {
	query := `
		MATCH (p:Playlist {id: $playlist_id}), (t:Track {id: $track_id})
		MERGE (p)-[r:INCLUDES]->(t)
		SET r.position = $position,
			r.added_at = datetime()
	`

	err := s.exec(ctx, query, map[string]any{
		"playlist_id": playlistID,
		"track_id":    trackID,
		"position":    position,
	})
	if err != nil {
		return fmt.Errorf("failed to link playlist to track: %w", err)
	}
	return nil
}

// LinkAlbumToArtist records that an artist released an album
func (s *Store) LinkAlbumToArtist(ctx context.Context, albumID, artistID string) error {
	query := `
		MATCH (al:Album {id: $album_id}), (a:Artist {id: $artist_id})
		MERGE (a)-[:RELEASED]->(al)
	`

	err := s.exec(ctx, query, map[string]any{
		"album_id":  albumID,
		"artist_id": artistID,
	})
	if err != nil {
		return fmt.Errorf("failed to link album to artist: %w", err)
	}
	return nil
}

// StorePlaylist stores a playlist and every entry with its
// relationships (album, artists, position)
func (s *Store) StorePlaylist(ctx context.Context, playlist Playlist, entries []PlaylistEntry) error {
	if err := s.UpsertPlaylist(ctx, playlist); err != nil {
		return err
	}

	for _, entry := range entries {
		if err := s.StoreTrackWithRelationships(ctx, entry, playlist.ID); err != nil {
			return err
		}
	}

	return nil
}

// StoreTrackWithRelationships stores a track plus its album, artists and
// optional playlist membership. An empty playlistID skips the membership.
func (s *Store) StoreTrackWithRelationships(ctx context.Context, entry PlaylistEntry, playlistID string) error {
	if err := s.UpsertAlbum(ctx, entry.Album); err != nil {
		return err
	}

	for _, artist := range entry.Artists {
		if err := s.UpsertArtist(ctx, artist); err != nil {
			return err
		}
		if err := s.LinkAlbumToArtist(ctx, entry.Album.ID, artist.ID); err != nil {
			return err
		}
	}

	if err := s.UpsertTrack(ctx, entry.Track); err != nil {
		return err
	}
	if err := s.LinkTrackToAlbum(ctx, entry.Track.ID, entry.Album.ID); err != nil {
		return err
	}

	for _, artist := range entry.Artists {
		if err := s.LinkTrackToArtist(ctx, entry.Track.ID, artist.ID); err != nil {
			return err
		}
	}

	if playlistID != "" {
		if err := s.LinkPlaylistToTrack(ctx, playlistID, entry.Track.ID, entry.Position); err != nil {
			return err
		}
	}

	return nil
}

// TracksWithoutYouTubeURL returns up to limit tracks still pending
// conversion
func (s *Store) TracksWithoutYouTubeURL(ctx context.Context, limit int) ([]Track, error) {
	query := `
		MATCH (t:Track)
		WHERE t.youtube_url IS NULL OR t.youtube_url = ''
		RETURN t
		LIMIT $limit
	`

	return s.collectTracks(ctx, query, map[string]any{"limit": int64(limit)})
}

// UpdateTrackYouTubeURL writes the converted URL onto the track node
func (s *Store) UpdateTrackYouTubeURL(ctx context.Context, trackID, youtubeURL string) error {
	query := `
		MATCH (t:Track {id: $track_id})
		SET t.youtube_url = $youtube_url,
			t.converted_at = datetime()
	`

	err := s.exec(ctx, query, map[string]any{
		"track_id":    trackID,
		"youtube_url": youtubeURL,
	})
	if err != nil {
		return fmt.Errorf("failed to update track YouTube URL: %w", err)
	}
	return nil
}

// TrackByID returns the track with the given id, or nil when absent
func (s *Store) TrackByID(ctx context.Context, trackID string) (*Track, error) {
	query := `
		MATCH (t:Track {id: $track_id})
		RETURN t
	`

	tracks, err := s.collectTracks(ctx, query, map[string]any{"track_id": trackID})
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return &tracks[0], nil
}

// TrackByISRC returns the first track carrying the given ISRC, or nil
func (s *Store) TrackByISRC(ctx context.Context, isrc string) (*Track, error) {
	query := `
		MATCH (t:Track {isrc: $isrc})
		RETURN t
	`

	tracks, err := s.collectTracks(ctx, query, map[string]any{"isrc": isrc})
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return &tracks[0], nil
}

// SearchTracksByName returns tracks whose name contains the query,
// case-insensitively
func (s *Store) SearchTracksByName(ctx context.Context, name string, limit int) ([]Track, error) {
	query := `
		MATCH (t:Track)
		WHERE toLower(t.name) CONTAINS toLower($name)
		RETURN t
		LIMIT $limit
	`

	return s.collectTracks(ctx, query, map[string]any{
		"name":  name,
		"limit": int64(limit),
	})
}

// TrackArtists returns the artists who performed a track
func (s *Store) TrackArtists(ctx context.Context, trackID string) ([]Artist, error) {
	query := `
		MATCH (a:Artist)-[:PERFORMED]->(t:Track {id: $track_id})
		RETURN a
	`

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, map[string]any{"track_id": trackID})
	if err != nil {
		return nil, fmt.Errorf("failed to get track artists: %w", err)
	}

	var artists []Artist
	for result.Next(ctx) {
		node, ok := nodeValue(result.Record().Values[0])
		if !ok {
			continue
		}
		artists = append(artists, Artist{
			ID:           propString(node, "id"),
			Name:         propString(node, "name"),
			SpotifyURI:   propString(node, "spotify_uri"),
			ExternalURLs: propString(node, "external_urls"),
		})
	}

	return artists, result.Err()
}

// PlaylistTracks returns the tracks of a playlist in playlist order
func (s *Store) PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error) {
	query := `
		MATCH (p:Playlist {id: $playlist_id})-[r:INCLUDES]->(t:Track)
		RETURN t, r.position AS position
		ORDER BY r.position
	`

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, map[string]any{"playlist_id": playlistID})
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks: %w", err)
	}

	var tracks []PlaylistTrack
	for result.Next(ctx) {
		record := result.Record()
		node, ok := nodeValue(record.Values[0])
		if !ok {
			continue
		}
		position, _ := record.Values[1].(int64)
		tracks = append(tracks, PlaylistTrack{
			Track:    trackFromNode(node),
			Position: position,
		})
	}

	return tracks, result.Err()
}

// ConversionCounts returns total, converted and pending track counts
func (s *Store) ConversionCounts(ctx context.Context) (total, converted, pending int64, err error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	count := func(cypher string) (int64, error) {
		result, err := session.Run(ctx, cypher, nil)
		if err != nil {
			return 0, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return 0, err
		}
		n, _ := record.Values[0].(int64)
		return n, nil
	}

	total, err = count("MATCH (t:Track) RETURN count(t)")
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	converted, err = count("MATCH (t:Track) WHERE t.youtube_url IS NOT NULL AND t.youtube_url <> '' RETURN count(t)")
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count converted tracks: %w", err)
	}
	pending = total - converted

	return total, converted, pending, nil
}

// Playlists returns stored playlists ordered by name
func (s *Store) Playlists(ctx context.Context, limit, offset int) ([]Playlist, error) {
	query := `
		MATCH (p:Playlist)
		RETURN p
		ORDER BY p.name
		SKIP $offset
		LIMIT $limit
	`

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, map[string]any{
		"limit":  int64(limit),
		"offset": int64(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get playlists: %w", err)
	}

	var playlists []Playlist
	for result.Next(ctx) {
		node, ok := nodeValue(result.Record().Values[0])
		if !ok {
			continue
		}
		playlists = append(playlists, playlistFromNode(node))
	}

	return playlists, result.Err()
}

// PlaylistByID returns a single playlist, or nil when absent
func (s *Store) PlaylistByID(ctx context.Context, playlistID string) (*Playlist, error) {
	query := `
		MATCH (p:Playlist {id: $playlist_id})
		RETURN p
	`

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, map[string]any{"playlist_id": playlistID})
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	if !result.Next(ctx) {
		return nil, result.Err()
	}

	node, ok := nodeValue(result.Record().Values[0])
	if !ok {
		return nil, nil
	}
	playlist := playlistFromNode(node)
	return &playlist, nil
}

// AddManualTrack stores a hand-entered track with a generated artist.
// Manual entries have no Spotify metadata.
func (s *Store) AddManualTrack(ctx context.Context, trackName, artistName string) (string, error) {
	trackID := "manual_" + uuid.NewString()
	artistID := "manual_artist_" + uuid.NewString()

	artist := Artist{
		ID:           artistID,
		Name:         artistName,
		ExternalURLs: "{}",
	}
	if err := s.UpsertArtist(ctx, artist); err != nil {
		return "", err
	}

	track := Track{
		ID:           trackID,
		Name:         trackName,
		ExternalURLs: "{}",
	}
	if err := s.UpsertTrack(ctx, track); err != nil {
		return "", err
	}

	if err := s.LinkTrackToArtist(ctx, trackID, artistID); err != nil {
		return "", err
	}

	return trackID, nil
}

// collectTracks runs a query whose first return value is a track node
func (s *Store) collectTracks(ctx context.Context, query string, params map[string]any) ([]Track, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}

	var tracks []Track
	for result.Next(ctx) {
		node, ok := nodeValue(result.Record().Values[0])
		if !ok {
			continue
		}
		tracks = append(tracks, trackFromNode(node))
	}

	return tracks, result.Err()
}

func nodeValue(value any) (neo4j.Node, bool) {
	node, ok := value.(neo4j.Node)
	return node, ok
}

func trackFromNode(node neo4j.Node) Track {
	return Track{
		ID:           propString(node, "id"),
		Name:         propString(node, "name"),
		SpotifyURI:   propString(node, "spotify_uri"),
		DurationMS:   int(propInt64(node, "duration_ms")),
		Explicit:     propBool(node, "explicit"),
		Popularity:   int(propInt64(node, "popularity")),
		PreviewURL:   propString(node, "preview_url"),
		ExternalURLs: propString(node, "external_urls"),
		YouTubeURL:   propString(node, "youtube_url"),
		ISRC:         propString(node, "isrc"),
	}
}

func playlistFromNode(node neo4j.Node) Playlist {
	return Playlist{
		ID:               propString(node, "id"),
		Name:             propString(node, "name"),
		Description:      propString(node, "description"),
		SpotifyURI:       propString(node, "spotify_uri"),
		OwnerID:          propString(node, "owner_id"),
		OwnerDisplayName: propString(node, "owner_display_name"),
		Public:           propBool(node, "public"),
		Collaborative:    propBool(node, "collaborative"),
		SnapshotID:       propString(node, "snapshot_id"),
		TotalTracks:      int(propInt64(node, "total_tracks")),
	}
}

func propString(node neo4j.Node, key string) string {
	if value, ok := node.Props[key].(string); ok {
		return value
	}
	return ""
}

func propInt64(node neo4j.Node, key string) int64 {
	if value, ok := node.Props[key].(int64); ok {
		return value
	}
	return 0
}

func propBool(node neo4j.Node, key string) bool {
	if value, ok := node.Props[key].(bool); ok {
		return value
	}
	return false
}
