package config

import (
	"fmt"
	"strings"
)

// isAlphanumeric reports whether s contains only ASCII letters and digits.
func isAlphanumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Validate checks the configuration and returns a map of issue key to
// human-readable message. An empty map means the configuration is usable.
// Missing credentials are issues, not errors: callers decide whether a
// given command needs the affected service.
func (c *Config) Validate() map[string]string {
	issues := make(map[string]string)

	switch {
	case c.SpotifyClientID == "":
		issues["spotify_client_id"] = "SPOTIFY_CLIENT_ID is not set"
	case len(c.SpotifyClientID) != 32 || !isAlphanumeric(c.SpotifyClientID):
		issues["spotify_client_id"] = "SPOTIFY_CLIENT_ID must be 32 alphanumeric characters"
	}

	switch {
	case c.SpotifyClientSecret == "":
		issues["spotify_client_secret"] = "SPOTIFY_CLIENT_SECRET is not set"
	case len(c.SpotifyClientSecret) != 32 || !isAlphanumeric(c.SpotifyClientSecret):
		issues["spotify_client_secret"] = "SPOTIFY_CLIENT_SECRET must be 32 alphanumeric characters"
	}

	if !strings.HasPrefix(c.SpotifyRedirectURI, "http://") && !strings.HasPrefix(c.SpotifyRedirectURI, "https://") {
		issues["spotify_redirect_uri"] = "SPOTIFY_REDIRECT_URI must be an http:// or https:// URL"
	}

	if c.LastfmAPIKey == "" {
		issues["lastfm_api_key"] = "LASTFM_API_KEY is not set"
	}
	if c.LastfmUsername == "" {
		issues["lastfm_username"] = "LASTFM_USERNAME is not set"
	}

	if c.DefaultSyncDays <= 0 {
		issues["default_sync_days"] = fmt.Sprintf("default sync days must be positive, got %d", c.DefaultSyncDays)
	}

	switch c.LogLevel {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		issues["log_level"] = fmt.Sprintf("unknown log level %q", c.LogLevel)
	}

	return issues
}

// Status reports, per configuration item, whether it is usable.
func (c *Config) Status() map[string]bool {
	issues := c.Validate()
	has := func(key string) bool { _, bad := issues[key]; return !bad }
	return map[string]bool{
		"spotify_client_id":     c.SpotifyClientID != "" && has("spotify_client_id"),
		"spotify_client_secret": c.SpotifyClientSecret != "" && has("spotify_client_secret"),
		"spotify_redirect_uri":  has("spotify_redirect_uri"),
		"lastfm_api_key":        c.LastfmAPIKey != "",
		"lastfm_api_secret":     c.LastfmAPISecret != "",
		"lastfm_username":       c.LastfmUsername != "",
	}
}
