package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values
type Config struct {
	Spotify SpotifyConfig
	YouTube YouTubeConfig
	Neo4j   Neo4jConfig
	Server  ServerConfig
	Convert ConvertConfig
}

// SpotifyConfig holds Spotify API configuration
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	TokenFile    string // Where OAuth tokens are persisted between runs
}

// YouTubeConfig holds YouTube Data API configuration
type YouTubeConfig struct {
	APIKey string // Empty means search runs in mock mode
}

// Neo4jConfig holds graph database connection settings
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// ConvertConfig holds conversion batch settings
type ConvertConfig struct {
	BatchSize int
	MaxTracks int // 0 means no cap beyond BatchSize
	Workers   int
}

// Load loads configuration in this order:
// 1. Start with default values
// 2. Load from OS environment variables (only if they exist)
// 3. Load from .env file (only if it exists and values exist)
func Load() (*Config, error) {
	config := &Config{}

	config.initializeDefaults()
	config.loadFromOSEnv()
	config.loadFromEnvFile()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides
func LoadWithOverrides(overrides map[string]string) (*Config, error) {
	config := &Config{}

	config.initializeDefaults()
	config.loadFromOSEnv()
	config.loadFromEnvFile()
	config.applyOverrides(overrides)

	// Validate after all sources have been loaded
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// initializeDefaults sets up the initial configuration with default values
func (c *Config) initializeDefaults() {
	c.Spotify = SpotifyConfig{
		ClientID:     "",
		ClientSecret: "",
		RedirectURI:  "http://localhost:8080/callback",
		TokenFile:    "tokens.json",
	}

	c.YouTube = YouTubeConfig{
		APIKey: "", // Empty by default; search falls back to mock mode
	}

	c.Neo4j = Neo4jConfig{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "password",
	}

	c.Server = ServerConfig{
		Port: "8080",
	}

	c.Convert = ConvertConfig{
		BatchSize: 50,
		MaxTracks: 0,
		Workers:   1,
	}
}

// loadFromOSEnv loads configuration from OS environment variables (only if they exist)
func (c *Config) loadFromOSEnv() {
	c.loadFromEnv()
}

// loadFromEnvFile loads configuration from .env file (only if it exists and values exist)
func (c *Config) loadFromEnvFile() {
	if err := godotenv.Load(); err != nil {
		// .env file doesn't exist, skip this step
		return
	}

	c.loadFromEnv()
}

// loadFromEnv replaces configuration values with environment values when set
func (c *Config) loadFromEnv() {
	// Spotify configuration
	if value := os.Getenv("SPOTIFY_CLIENT_ID"); value != "" {
		c.Spotify.ClientID = value
	}
	if value := os.Getenv("SPOTIFY_CLIENT_SECRET"); value != "" {
		c.Spotify.ClientSecret = value
	}
	if value := os.Getenv("SPOTIFY_REDIRECT_URI"); value != "" {
		c.Spotify.RedirectURI = value
	}
	if value := os.Getenv("SPOTIFY_TOKEN_FILE"); value != "" {
		c.Spotify.TokenFile = value
	}

	// YouTube configuration
	if value := os.Getenv("YOUTUBE_API_KEY"); value != "" {
		c.YouTube.APIKey = value
	}

	// Neo4j configuration
	if value := os.Getenv("NEO4J_URI"); value != "" {
		c.Neo4j.URI = value
	}
	if value := os.Getenv("NEO4J_USERNAME"); value != "" {
		c.Neo4j.Username = value
	}
	if value := os.Getenv("NEO4J_PASSWORD"); value != "" {
		c.Neo4j.Password = value
	}

	// Server configuration
	if value := os.Getenv("PORT"); value != "" {
		c.Server.Port = value
	}

	// Conversion configuration
	if value := os.Getenv("CONVERT_BATCH_SIZE"); value != "" {
		if n, err := parsePositiveInt(value); err == nil {
			c.Convert.BatchSize = n
		}
	}
	if value := os.Getenv("CONVERT_MAX_TRACKS"); value != "" {
		if n, err := parseNonNegativeInt(value); err == nil {
			c.Convert.MaxTracks = n
		}
	}
	if value := os.Getenv("CONVERT_WORKERS"); value != "" {
		if n, err := parsePositiveInt(value); err == nil {
			c.Convert.Workers = n
		}
	}
}

// applyOverrides applies CLI flag overrides to the configuration (only if they exist)
func (c *Config) applyOverrides(overrides map[string]string) {
	for key, value := range overrides {
		if value == "" {
			continue
		}

		switch key {
		case "SPOTIFY_CLIENT_ID":
			c.Spotify.ClientID = value
		case "SPOTIFY_CLIENT_SECRET":
			c.Spotify.ClientSecret = value
		case "SPOTIFY_REDIRECT_URI":
			c.Spotify.RedirectURI = value
		case "SPOTIFY_TOKEN_FILE":
			c.Spotify.TokenFile = value
		case "YOUTUBE_API_KEY":
			c.YouTube.APIKey = value
		case "NEO4J_URI":
			c.Neo4j.URI = value
		case "NEO4J_USERNAME":
			c.Neo4j.Username = value
		case "NEO4J_PASSWORD":
			c.Neo4j.Password = value
		case "PORT":
			c.Server.Port = value
		case "CONVERT_BATCH_SIZE":
			if n, err := parsePositiveInt(value); err == nil {
				c.Convert.BatchSize = n
			}
		case "CONVERT_MAX_TRACKS":
			if n, err := parseNonNegativeInt(value); err == nil {
				c.Convert.MaxTracks = n
			}
		case "CONVERT_WORKERS":
			if n, err := parsePositiveInt(value); err == nil {
				c.Convert.Workers = n
			}
		}
	}
}

// parsePositiveInt parses an integer that must be greater than zero
func parsePositiveInt(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer '%s': %w", value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("value must be positive, got %d", n)
	}
	return n, nil
}

// parseNonNegativeInt parses an integer that must be zero or greater
func parseNonNegativeInt(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer '%s': %w", value, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("value must not be negative, got %d", n)
	}
	return n, nil
}

// validate checks that all required configuration values are present
func (c *Config) validate() error {
	var missingFields []string

	if c.Spotify.ClientID == "" {
		missingFields = append(missingFields, "SPOTIFY_CLIENT_ID")
	}
	if c.Spotify.ClientSecret == "" {
		missingFields = append(missingFields, "SPOTIFY_CLIENT_SECRET")
	}
	if c.Neo4j.URI == "" {
		missingFields = append(missingFields, "NEO4J_URI")
	}
	if c.Neo4j.Username == "" {
		missingFields = append(missingFields, "NEO4J_USERNAME")
	}
	if c.Neo4j.Password == "" {
		missingFields = append(missingFields, "NEO4J_PASSWORD")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration values:\n%s\n\nSet these values via environment variables, .env file, or CLI flags", strings.Join(missingFields, "\n"))
	}

	return nil
}

// MockSearch reports whether YouTube search should run in mock mode
func (c *Config) MockSearch() bool {
	return c.YouTube.APIKey == ""
}
