package config

import (
	"os"
	"strings"
	"testing"
)

func TestConfigValidation(t *testing.T) {
	// Test that validation fails when required fields are missing
	cfg := &Config{}

	err := cfg.validate()
	if err == nil {
		t.Error("Expected validation to fail with empty config")
	}

	// Check that error message includes helpful information
	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "SPOTIFY_CLIENT_ID") {
		t.Error("Expected error message to mention SPOTIFY_CLIENT_ID")
	}
	if !strings.Contains(errorMsg, "NEO4J_URI") {
		t.Error("Expected error message to mention NEO4J_URI")
	}

	// Test valid configuration
	cfg = &Config{
		Spotify: SpotifyConfig{
			ClientID:     "test_client_id",
			ClientSecret: "test_client_secret",
		},
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Password: "password",
		},
	}

	err = cfg.validate()
	if err != nil {
		t.Errorf("Expected no validation error, got %v", err)
	}

	// Test missing Spotify ClientSecret
	cfg.Spotify.ClientSecret = ""
	err = cfg.validate()
	if err == nil {
		t.Error("Expected validation error for missing ClientSecret")
	}

	// Test missing Neo4j password
	cfg.Spotify.ClientSecret = "test_client_secret"
	cfg.Neo4j.Password = ""
	err = cfg.validate()
	if err == nil {
		t.Error("Expected validation error for missing Neo4j password")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.initializeDefaults()

	if cfg.Spotify.RedirectURI != "http://localhost:8080/callback" {
		t.Errorf("Expected default redirect URI, got '%s'", cfg.Spotify.RedirectURI)
	}
	if cfg.Spotify.TokenFile != "tokens.json" {
		t.Errorf("Expected default token file 'tokens.json', got '%s'", cfg.Spotify.TokenFile)
	}
	if cfg.Neo4j.URI != "bolt://localhost:7687" {
		t.Errorf("Expected default Neo4j URI, got '%s'", cfg.Neo4j.URI)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got '%s'", cfg.Server.Port)
	}
	if cfg.Convert.BatchSize != 50 {
		t.Errorf("Expected default batch size 50, got %d", cfg.Convert.BatchSize)
	}
	if cfg.Convert.Workers != 1 {
		t.Errorf("Expected default workers 1, got %d", cfg.Convert.Workers)
	}
}

func TestConfigHierarchy(t *testing.T) {
	// Test the configuration hierarchy: defaults -> OS env -> .env -> CLI overrides

	// Set up required environment variables for validation
	os.Setenv("SPOTIFY_CLIENT_ID", "test_client_id")
	os.Setenv("SPOTIFY_CLIENT_SECRET", "test_client_secret")
	os.Setenv("NEO4J_URI", "bolt://env:7687")
	os.Setenv("NEO4J_USERNAME", "neo4j")
	os.Setenv("NEO4J_PASSWORD", "env_password")
	os.Setenv("PORT", "9090")
	defer func() {
		os.Unsetenv("SPOTIFY_CLIENT_ID")
		os.Unsetenv("SPOTIFY_CLIENT_SECRET")
		os.Unsetenv("NEO4J_URI")
		os.Unsetenv("NEO4J_USERNAME")
		os.Unsetenv("NEO4J_PASSWORD")
		os.Unsetenv("PORT")
	}()

	// Load base config (should use env vars)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port '9090' from env, got '%s'", cfg.Server.Port)
	}
	if cfg.Neo4j.URI != "bolt://env:7687" {
		t.Errorf("Expected Neo4j URI from env, got '%s'", cfg.Neo4j.URI)
	}

	// Test CLI override
	overrides := map[string]string{
		"PORT": "7070",
	}

	cfgWithOverrides, err := LoadWithOverrides(overrides)
	if err != nil {
		t.Fatalf("Failed to load config with overrides: %v", err)
	}

	if cfgWithOverrides.Server.Port != "7070" {
		t.Errorf("Expected port '7070' after CLI override, got '%s'", cfgWithOverrides.Server.Port)
	}

	// Test multiple overrides including numeric parsing
	multipleOverrides := map[string]string{
		"CONVERT_BATCH_SIZE": "25",
		"CONVERT_WORKERS":    "4",
		"NEO4J_URI":          "bolt://cli:7687",
	}

	cfgMultiple, err := LoadWithOverrides(multipleOverrides)
	if err != nil {
		t.Fatalf("Failed to load config with overrides: %v", err)
	}

	if cfgMultiple.Convert.BatchSize != 25 {
		t.Errorf("Expected batch size 25, got %d", cfgMultiple.Convert.BatchSize)
	}
	if cfgMultiple.Convert.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfgMultiple.Convert.Workers)
	}
	if cfgMultiple.Neo4j.URI != "bolt://cli:7687" {
		t.Errorf("Expected Neo4j URI 'bolt://cli:7687', got '%s'", cfgMultiple.Neo4j.URI)
	}
}

func TestMockSearch(t *testing.T) {
	cfg := &Config{}
	if !cfg.MockSearch() {
		t.Error("Expected mock search mode when API key is empty")
	}

	cfg.YouTube.APIKey = "test_key"
	if cfg.MockSearch() {
		t.Error("Expected live search mode when API key is set")
	}
}

func TestParsePositiveInt(t *testing.T) {
	if _, err := parsePositiveInt("0"); err == nil {
		t.Error("Expected error for zero")
	}
	if _, err := parsePositiveInt("-3"); err == nil {
		t.Error("Expected error for negative value")
	}
	if _, err := parsePositiveInt("abc"); err == nil {
		t.Error("Expected error for non-numeric value")
	}

	value, err := parsePositiveInt("42")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if value != 42 {
		t.Errorf("Expected 42, got %d", value)
	}
}
