// Package lastfm provides Last.fm API integration for fetching a user's
// listening history.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shkh/lastfm-go/lastfm"
)

// pageSize is the Last.fm maximum for user.getRecentTracks.
const pageSize = 200

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("missing Last.fm API key")

// Scrobble is one play from the listening history.
type Scrobble struct {
	Artist   string
	Title    string
	Album    string
	PlayedAt time.Time
}

// Client wraps the Last.fm API for history reads. Construction is cheap;
// the underlying API session is built lazily on first use.
type Client struct {
	apiKey    string
	apiSecret string
	api       *lastfm.Api
	log       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for fetch progress.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Last.fm client with the given API credentials.
func New(apiKey, apiSecret string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ensureAPI() error {
	if c.api != nil {
		return nil
	}
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	c.api = lastfm.New(c.apiKey, c.apiSecret)
	return nil
}

// RecentTracks returns the user's scrobbles in [from, to], newest first,
// up to limit (0 means no cap beyond the window). Now-playing entries
// carry no timestamp and are skipped.
func (c *Client) RecentTracks(ctx context.Context, user string, limit int, from, to time.Time) ([]Scrobble, error) {
	if err := c.ensureAPI(); err != nil {
		return nil, err
	}

	var scrobbles []Scrobble
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := lastfm.P{
			"user":  user,
			"limit": pageSize,
			"page":  page,
		}
		if !from.IsZero() {
			params["from"] = from.Unix()
		}
		if !to.IsZero() {
			params["to"] = to.Unix()
		}

		result, err := c.api.User.GetRecentTracks(params)
		if err != nil {
			return nil, fmt.Errorf("fetching recent tracks page %d: %w", page, err)
		}

		for _, t := range result.Tracks {
			if t.NowPlaying == "true" || t.Date.Uts == "" {
				continue
			}
			uts, convErr := strconv.ParseInt(t.Date.Uts, 10, 64)
			if convErr != nil {
				c.log.Warn("skipping scrobble with bad timestamp", "track", t.Name, "uts", t.Date.Uts)
				continue
			}
			scrobbles = append(scrobbles, Scrobble{
				Artist:   t.Artist.Name,
				Title:    t.Name,
				Album:    t.Album.Name,
				PlayedAt: time.Unix(uts, 0).UTC(),
			})
			if limit > 0 && len(scrobbles) >= limit {
				return scrobbles, nil
			}
		}

		c.log.Debug("fetched scrobble page", "page", page, "total_pages", result.TotalPages, "collected", len(scrobbles))
		if page >= result.TotalPages || len(result.Tracks) == 0 {
			break
		}
	}
	return scrobbles, nil
}
