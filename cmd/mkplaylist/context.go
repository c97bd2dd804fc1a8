package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mkplaylist/internal/auth"
	"mkplaylist/internal/config"
	"mkplaylist/internal/lastfm"
	"mkplaylist/internal/spotify"
	"mkplaylist/internal/store"
)

// commandContext lazily builds the shared collaborators commands need.
// Config and logger are resolved once; the store and API clients are
// only constructed by commands that use them, so `config status` works
// without a reachable database or network.
type commandContext struct {
	dbFlag  *string
	logFlag *string

	cfg *config.Config
	log *slog.Logger
	st  *store.Store
}

func newCommandContext(dbFlag, logFlag *string) *commandContext {
	return &commandContext{dbFlag: dbFlag, logFlag: logFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if c.dbFlag != nil && *c.dbFlag != "" {
		cfg.DBPath = *c.dbFlag
	}
	if c.logFlag != nil && *c.logFlag != "" {
		cfg.LogLevel = strings.ToUpper(*c.logFlag)
	}
	c.cfg = cfg
	c.log = newLogger(cfg.LogLevel)
	slog.SetDefault(c.log)
	return cfg, nil
}

func (c *commandContext) logger() *slog.Logger {
	if c.log == nil {
		return slog.Default()
	}
	return c.log
}

func (c *commandContext) openStore() (*store.Store, error) {
	if c.st != nil {
		return c.st, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DBPath, store.WithLogger(c.logger()))
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", cfg.DBPath, err)
	}
	c.st = st
	return st, nil
}

func (c *commandContext) closeStore() {
	if c.st != nil {
		if err := c.st.Close(); err != nil {
			c.logger().Warn("closing database", "error", err)
		}
		c.st = nil
	}
}

// spotifyClient runs the OAuth flow (or reuses the cached token) and
// returns an authenticated client.
func (c *commandContext) spotifyClient(ctx context.Context) (*spotify.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	authenticator, err := auth.New(cfg)
	if err != nil {
		return nil, err
	}
	api, err := authenticator.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticating with Spotify: %w", err)
	}
	return spotify.New(api), nil
}

func (c *commandContext) lastfmClient() (*lastfm.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return lastfm.New(cfg.LastfmAPIKey, cfg.LastfmAPISecret, lastfm.WithLogger(c.logger())), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARNING", "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
