package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calum/tubegraph/api"
	"github.com/calum/tubegraph/auth"
	"github.com/calum/tubegraph/config"
	"github.com/calum/tubegraph/convert"
	"github.com/calum/tubegraph/spotify"
	"github.com/calum/tubegraph/store"
	"github.com/calum/tubegraph/youtube"
)

// Version information - set during build
var version = "dev"

// Exit codes
const (
	exitCodeSuccess     = 0
	exitCodeConfigError = 2
	exitCodeStoreError  = 3
)

// Application represents the main application state
type Application struct {
	config      *config.Config
	authManager *auth.Manager
	graphStore  *store.Store
	spotify     *spotify.Client
	converter   *convert.Service
	server      *api.Server
}

// NewApplication wires the application together. A graph store that
// cannot be reached is fatal; missing YouTube credentials fall back to
// the mock search provider.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	tokenStore := auth.NewFileStore(cfg.Spotify.TokenFile)
	authManager := auth.NewManager(cfg, tokenStore)

	state, found, err := tokenStore.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load saved tokens: %w", err)
	}
	if found {
		authManager.RestoreTokenState(state)
		log.Printf("🔑 Restored saved Spotify tokens from %s", cfg.Spotify.TokenFile)
	} else {
		log.Printf("⚠️  No saved tokens found; visit /api/auth/url to authorize")
	}

	graphStore, err := store.New(ctx, cfg.Neo4j)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	var provider youtube.SearchProvider
	live := !cfg.MockSearch()
	if live {
		provider = youtube.NewClient(cfg.YouTube.APIKey)
	} else {
		log.Printf("⚠️  YOUTUBE_API_KEY not set; using deterministic mock search")
		provider = youtube.NewMockProvider()
	}

	converter := convert.NewService(graphStore, provider, live, cfg.Convert.Workers)
	spotifyClient := spotify.NewClient(ctx, authManager)
	server := api.NewServer(graphStore, spotifyClient, converter, authManager, spotify.PlaylistIDFromURL)

	return &Application{
		config:      cfg,
		authManager: authManager,
		graphStore:  graphStore,
		spotify:     spotifyClient,
		converter:   converter,
		server:      server,
	}, nil
}

// Run starts the background token loops, runs a startup conversion
// batch and serves HTTP until interrupted
func (app *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The loops also cover tokens obtained through /callback after boot
	go app.authManager.RunRefreshLoop(ctx)
	go app.authManager.RunSaveLoop(ctx)

	app.runStartupBatch(ctx)

	httpServer := &http.Server{
		Addr:    ":" + app.config.Server.Port,
		Handler: app.server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Listening on port %s", app.config.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("👋 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return app.graphStore.Close(shutdownCtx)
}

// runStartupBatch converts pending tracks once at boot so restarts
// make progress even without API traffic
func (app *Application) runStartupBatch(ctx context.Context) {
	summary, err := app.converter.ConvertBatch(ctx, app.config.Convert.BatchSize, app.config.Convert.MaxTracks)
	if err != nil {
		log.Printf("⚠️  Startup conversion batch failed: %v", err)
		return
	}
	if summary.Processed > 0 {
		log.Printf("🎵 Startup batch: %d/%d tracks converted", summary.Succeeded, summary.Processed)
	}
}

// parseFlags parses command line flags and updates configuration
func parseFlags(cfg *config.Config) {
	var port string
	flag.StringVar(&port, "port", "", "HTTP port to listen on (overrides PORT env var)")
	var batchSize int
	flag.IntVar(&batchSize, "batch-size", 0, "Tracks per conversion batch (overrides CONVERT_BATCH_SIZE env var)")
	var maxTracks int
	flag.IntVar(&maxTracks, "max-tracks", -1, "Cap on tracks converted per batch, 0 for no cap (overrides CONVERT_MAX_TRACKS env var)")
	var workers int
	flag.IntVar(&workers, "workers", 0, "Concurrent conversion workers (overrides CONVERT_WORKERS env var)")

	// Version flag
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Parse()

	// Handle version flag
	if showVersion {
		fmt.Printf("Tubegraph version %s\n", version)
		os.Exit(exitCodeSuccess)
	}

	if port != "" {
		cfg.Server.Port = port
	}
	if batchSize > 0 {
		cfg.Convert.BatchSize = batchSize
	}
	if maxTracks >= 0 {
		cfg.Convert.MaxTracks = maxTracks
	}
	if workers > 0 {
		cfg.Convert.Workers = workers
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(exitCodeConfigError)
	}

	// Parse command line flags
	parseFlags(cfg)

	// Create application
	ctx := context.Background()
	app, err := NewApplication(ctx, cfg)
	if err != nil {
		log.Printf("Failed to create application: %v", err)
		os.Exit(exitCodeStoreError)
	}

	// Run application
	if err := app.Run(ctx); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}
