package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/calum/tubegraph/convert"
	"github.com/calum/tubegraph/store"
)

// GraphStore is the subset of the graph store the HTTP layer needs
type GraphStore interface {
	StorePlaylist(ctx context.Context, playlist store.Playlist, entries []store.PlaylistEntry) error
	Playlists(ctx context.Context, limit, offset int) ([]store.Playlist, error)
	PlaylistByID(ctx context.Context, playlistID string) (*store.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]store.PlaylistTrack, error)
	SearchTracksByName(ctx context.Context, name string, limit int) ([]store.Track, error)
	TracksWithoutYouTubeURL(ctx context.Context, limit int) ([]store.Track, error)
	AddManualTrack(ctx context.Context, trackName, artistName string) (string, error)
}

// PlaylistImporter downloads a playlist and its tracks from Spotify
type PlaylistImporter interface {
	FetchPlaylist(ctx context.Context, playlistID string) (store.Playlist, []store.PlaylistEntry, error)
}

// Converter drives single-track conversions and stats
type Converter interface {
	ConvertOneForced(ctx context.Context, trackID string) (string, error)
	Stats(ctx context.Context) (convert.ConversionStats, error)
}

// Authenticator exposes the OAuth flow to the HTTP layer
type Authenticator interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) error
	Authenticated() bool
}

// PlaylistIDExtractor parses a playlist id out of a URL or URI
type PlaylistIDExtractor func(input string) (string, error)

// Server wires the HTTP routes to the application services
type Server struct {
	store      GraphStore
	importer   PlaylistImporter
	converter  Converter
	auth       Authenticator
	playlistID PlaylistIDExtractor
}

// NewServer builds the HTTP layer over the given collaborators
func NewServer(graphStore GraphStore, importer PlaylistImporter, converter Converter, auth Authenticator, extractID PlaylistIDExtractor) *Server {
	return &Server{
		store:      graphStore,
		importer:   importer,
		converter:  converter,
		auth:       auth,
		playlistID: extractID,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), errorHandler())

	router.GET("/callback", s.handleCallback)

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		api.GET("/auth/url", s.handleAuthURL)

		api.POST("/playlists/import", s.handleImportPlaylist)
		api.GET("/playlists", s.handleListPlaylists)
		api.GET("/playlists/:id", s.handleGetPlaylist)
		api.GET("/playlists/:id/tracks", s.handlePlaylistTracks)

		api.POST("/tracks/add", s.handleAddTrack)
		api.GET("/tracks/for-conversion", s.handleTracksForConversion)
		api.GET("/tracks/search", s.handleSearchTracks)
		api.POST("/tracks/:id/convert", s.handleConvertTrack)

		api.GET("/stats/conversion", s.handleConversionStats)
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"authenticated": s.auth.Authenticated(),
	})
}

func (s *Server) handleAuthURL(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"url": s.auth.AuthURL()})
}

func (s *Server) handleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	if err := s.auth.Exchange(c.Request.Context(), code); err != nil {
		log.Printf("❌ Authorization exchange failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization failed"})
		return
	}

	log.Printf("🔑 Authorization complete")
	c.JSON(http.StatusOK, gin.H{"message": "Authorization successful"})
}

type importRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) handleImportPlaylist(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing playlist URL"})
		return
	}

	playlistID, err := s.playlistID(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	playlist, entries, err := s.importer.FetchPlaylist(ctx, playlistID)
	if err != nil {
		log.Printf("❌ Playlist import failed for %s: %v", playlistID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch playlist from Spotify"})
		return
	}

	if err := s.store.StorePlaylist(ctx, playlist, entries); err != nil {
		log.Printf("❌ Failed to store playlist %s: %v", playlistID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store playlist"})
		return
	}

	log.Printf("📥 Imported playlist %q with %d tracks", playlist.Name, len(entries))
	c.JSON(http.StatusOK, gin.H{
		"playlist_id": playlist.ID,
		"name":        playlist.Name,
		"track_count": len(entries),
	})
}

func (s *Server) handleListPlaylists(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	playlists, err := s.store.Playlists(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list playlists"})
		return
	}
	if playlists == nil {
		playlists = []store.Playlist{}
	}

	c.JSON(http.StatusOK, gin.H{"playlists": playlists})
}

func (s *Server) handleGetPlaylist(c *gin.Context) {
	playlist, err := s.store.PlaylistByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load playlist"})
		return
	}
	if playlist == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	c.JSON(http.StatusOK, playlist)
}

func (s *Server) handlePlaylistTracks(c *gin.Context) {
	tracks, err := s.store.PlaylistTracks(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load playlist tracks"})
		return
	}
	if tracks == nil {
		tracks = []store.PlaylistTrack{}
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

type addTrackRequest struct {
	Name   string `json:"track_name" binding:"required"`
	Artist string `json:"artist_name" binding:"required"`
}

func (s *Server) handleAddTrack(c *gin.Context) {
	var req addTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Track name and artist are required"})
		return
	}

	trackID, err := s.store.AddManualTrack(c.Request.Context(), req.Name, req.Artist)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add track"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"track_id": trackID})
}

func (s *Server) handleTracksForConversion(c *gin.Context) {
	limit := queryInt(c, "limit", 50)

	tracks, err := s.store.TracksWithoutYouTubeURL(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tracks"})
		return
	}
	if tracks == nil {
		tracks = []store.Track{}
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

func (s *Server) handleSearchTracks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}
	limit := queryInt(c, "limit", 10)

	tracks, err := s.store.SearchTracksByName(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search tracks"})
		return
	}
	if tracks == nil {
		tracks = []store.Track{}
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

func (s *Server) handleConvertTrack(c *gin.Context) {
	trackID := c.Param("id")

	url, err := s.converter.ConvertOneForced(c.Request.Context(), trackID)
	if err != nil {
		switch {
		case errors.Is(err, convert.ErrTrackNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		case errors.Is(err, convert.ErrNoResults):
			c.JSON(http.StatusNotFound, gin.H{"error": "No search results for track"})
		default:
			log.Printf("❌ Conversion failed for track %s: %v", trackID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Conversion failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"track_id": trackID, "youtube_url": url})
}

func (s *Server) handleConversionStats(c *gin.Context) {
	stats, err := s.converter.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversion stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
