// Package config loads and validates mkplaylist configuration.
//
// Values come from the process environment, optionally seeded from a .env
// file in the working directory. The real environment always wins over
// .env entries. The resulting Config is an immutable value object built
// once at startup and passed explicitly to every component.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Source identifies where a configuration value came from.
type Source string

const (
	SourceEnvironment Source = "environment"
	SourceDotenv      Source = "dotenv"
	SourceDefault     Source = "default"
)

const (
	appDirName      = "mkplaylist"
	dbFileName      = "mkplaylist.db"
	tokenFileName   = "spotify_token.json"
	defaultSyncDays = 30
	defaultRedirect = "http://127.0.0.1:8888/callback"
)

// Config holds every setting mkplaylist needs. Credentials for the
// external services are treated as opaque strings here; their shape is
// checked by Validate.
type Config struct {
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string

	LastfmAPIKey    string
	LastfmAPISecret string
	LastfmUsername  string

	DefaultSyncDays int
	LogLevel        string
	DBPath          string

	sources map[string]Source
}

// Load builds a Config from a .env file (if present) and the environment.
func Load() (*Config, error) {
	dotenv := map[string]string{}
	if _, err := os.Stat(".env"); err == nil {
		dotenv, err = godotenv.Read(".env")
		if err != nil {
			return nil, fmt.Errorf("reading .env: %w", err)
		}
	}

	cfg := &Config{sources: make(map[string]Source)}

	cfg.SpotifyClientID = cfg.lookup("SPOTIFY_CLIENT_ID", dotenv, "")
	cfg.SpotifyClientSecret = cfg.lookup("SPOTIFY_CLIENT_SECRET", dotenv, "")
	cfg.SpotifyRedirectURI = cfg.lookup("SPOTIFY_REDIRECT_URI", dotenv, defaultRedirect)
	cfg.LastfmAPIKey = cfg.lookup("LASTFM_API_KEY", dotenv, "")
	cfg.LastfmAPISecret = cfg.lookup("LASTFM_API_SECRET", dotenv, "")
	cfg.LastfmUsername = cfg.lookup("LASTFM_USERNAME", dotenv, "")
	cfg.LogLevel = strings.ToUpper(cfg.lookup("LOG_LEVEL", dotenv, "INFO"))

	days := cfg.lookup("MKPLAYLIST_DEFAULT_SYNC_DAYS", dotenv, strconv.Itoa(defaultSyncDays))
	n, err := strconv.Atoi(days)
	if err != nil || n <= 0 {
		n = defaultSyncDays
	}
	cfg.DefaultSyncDays = n

	dbPath := cfg.lookup("MKPLAYLIST_DB_PATH", dotenv, "")
	if dbPath == "" {
		dbPath, err = xdg.DataFile(filepath.Join(appDirName, dbFileName))
		if err != nil {
			return nil, fmt.Errorf("resolving data dir: %w", err)
		}
	}
	cfg.DBPath = dbPath

	return cfg, nil
}

// lookup resolves key from the environment, then the .env map, then the
// default, recording which source supplied it.
func (c *Config) lookup(key string, dotenv map[string]string, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		c.sources[key] = SourceEnvironment
		return v
	}
	if v, ok := dotenv[key]; ok {
		c.sources[key] = SourceDotenv
		return v
	}
	c.sources[key] = SourceDefault
	return def
}

// TokenCachePath returns the path where the Spotify OAuth token is stored.
func (c *Config) TokenCachePath() (string, error) {
	path, err := xdg.StateFile(filepath.Join(appDirName, tokenFileName))
	if err != nil {
		return "", fmt.Errorf("resolving state dir: %w", err)
	}
	return path, nil
}

// Sources reports where each configuration value came from.
func (c *Config) Sources() map[string]Source {
	out := make(map[string]Source, len(c.sources))
	for k, v := range c.sources {
		out[k] = v
	}
	return out
}

// HasSpotify reports whether Spotify credentials are present.
func (c *Config) HasSpotify() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// HasLastfm reports whether Last.fm credentials are present.
func (c *Config) HasLastfm() bool {
	return c.LastfmAPIKey != "" && c.LastfmUsername != ""
}
