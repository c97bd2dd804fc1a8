// Package sync pulls playlist and listening data from the external
// services into the local store.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mkplaylist/internal/lastfm"
	"mkplaylist/internal/spotify"
	"mkplaylist/internal/store"
)

// historyFetchLimit bounds one Last.fm sync to a sane number of
// scrobbles; the window filter does the real narrowing.
const historyFetchLimit = 1000

// Sync run source tags.
const (
	SourceSpotify = "spotify"
	SourceLastfm  = "lastfm"
)

// PlaylistSource lists the user's external playlists and their contents,
// fully materialized.
type PlaylistSource interface {
	ListPlaylists(ctx context.Context) ([]spotify.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]spotify.PlaylistTrack, error)
}

// HistorySource reads a user's scrobbled plays for a time window.
type HistorySource interface {
	RecentTracks(ctx context.Context, user string, limit int, from, to time.Time) ([]lastfm.Scrobble, error)
}

// Service syncs external data into the store.
type Service struct {
	store    *store.Store
	playlist PlaylistSource
	history  HistorySource
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for sync progress.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a sync service over the given collaborators.
func New(st *store.Store, playlists PlaylistSource, history HistorySource, opts ...Option) *Service {
	s := &Service{
		store:    st,
		playlist: playlists,
		history:  history,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SpotifyStats summarizes one playlist sync.
type SpotifyStats struct {
	PlaylistsSynced  int `json:"playlists_synced"`
	TracksSynced     int `json:"tracks_synced"`
	NewPlaylists     int `json:"new_playlists"`
	UpdatedPlaylists int `json:"updated_playlists"`
	NewTracks        int `json:"new_tracks"`
	UpdatedTracks    int `json:"updated_tracks"`
}

// LastfmStats summarizes one history sync.
type LastfmStats struct {
	TracksProcessed int `json:"tracks_processed"`
	EventsRecorded  int `json:"listening_events_added"`
	TracksMatched   int `json:"tracks_matched"`
	TracksUnmatched int `json:"tracks_not_matched"`
	NewTracks       int `json:"new_tracks_added"`
}

// SyncSpotify mirrors the user's playlists into the store. Track walks
// are skipped for playlists the store already knows unless full is set;
// a fresh playlist is always walked.
func (s *Service) SyncSpotify(ctx context.Context, full bool) (*SpotifyStats, error) {
	started := s.now()
	s.log.Info("syncing Spotify playlists", "full", full)

	playlists, err := s.playlist.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	s.log.Info("found playlists", "count", len(playlists))

	stats := &SpotifyStats{}
	for _, p := range playlists {
		spotifyID := p.ID
		_, err := s.store.Playlists().BySpotifyID(ctx, spotifyID)
		isNew := errors.Is(err, store.ErrNotFound)
		if err != nil && !isNew {
			return nil, fmt.Errorf("looking up playlist %q: %w", p.Name, err)
		}

		record := &store.Playlist{
			SpotifyID: &spotifyID,
			Name:      p.Name,
			Owner:     p.Owner,
			IsPublic:  p.IsPublic,
		}
		if _, err := s.store.Playlists().Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("upserting playlist %q: %w", p.Name, err)
		}
		if isNew {
			stats.NewPlaylists++
		} else {
			stats.UpdatedPlaylists++
		}

		if !full && !isNew {
			s.log.Debug("skipping tracks for known playlist", "playlist", p.Name)
			continue
		}

		synced, err := s.syncPlaylistTracks(ctx, record, stats)
		if err != nil {
			return nil, err
		}
		stats.TracksSynced += synced
		stats.PlaylistsSynced++
	}

	if err := s.store.SyncRuns().Record(ctx, &store.SyncRun{
		Source:      SourceSpotify,
		StartedAt:   started,
		FinishedAt:  s.now(),
		ItemsSynced: stats.TracksSynced,
	}); err != nil {
		return nil, err
	}

	s.log.Info("Spotify sync complete",
		"playlists", stats.PlaylistsSynced, "tracks", stats.TracksSynced,
		"new_playlists", stats.NewPlaylists, "new_tracks", stats.NewTracks)
	return stats, nil
}

func (s *Service) syncPlaylistTracks(ctx context.Context, playlist *store.Playlist, stats *SpotifyStats) (int, error) {
	tracks, err := s.playlist.PlaylistTracks(ctx, *playlist.SpotifyID)
	if err != nil {
		return 0, fmt.Errorf("fetching tracks for %q: %w", playlist.Name, err)
	}
	s.log.Debug("syncing playlist tracks", "playlist", playlist.Name, "count", len(tracks))

	for i, t := range tracks {
		spotifyID := t.ID

		record := &store.Track{
			SpotifyID: &spotifyID,
			Name:      t.Name,
			Artist:    t.Artist,
			AddedAt:   t.AddedAt,
		}
		// Zero values from the platform mean "unknown"; a nil pointer
		// leaves whatever an earlier sync stored.
		if t.Album != "" {
			album := t.Album
			record.Album = &album
		}
		if t.DurationMs != 0 {
			duration := t.DurationMs
			record.DurationMs = &duration
		}
		if t.Popularity != 0 {
			popularity := t.Popularity
			record.Popularity = &popularity
		}
		created, err := s.store.Tracks().Upsert(ctx, record)
		if err != nil {
			return 0, fmt.Errorf("upserting track %q: %w", t.Name, err)
		}
		if created {
			stats.NewTracks++
		} else {
			stats.UpdatedTracks++
		}

		position := i
		addedAt := t.AddedAt
		var addedAtPtr *time.Time
		if !addedAt.IsZero() {
			addedAtPtr = &addedAt
		}
		if err := s.store.Playlists().AddTrack(ctx, playlist.ID, record.ID, &position, addedAtPtr); err != nil {
			return 0, fmt.Errorf("linking track %q to %q: %w", t.Name, playlist.Name, err)
		}
	}
	return len(tracks), nil
}

// SyncLastfm records the user's scrobbles from the last days days.
// Scrobbles that match a known track are recorded against it; the rest
// create local tracks without an external identity.
func (s *Service) SyncLastfm(ctx context.Context, user string, days int) (*LastfmStats, error) {
	started := s.now()
	to := s.now()
	from := to.Add(-time.Duration(days) * 24 * time.Hour)
	s.log.Info("syncing Last.fm history", "user", user, "days", days)

	scrobbles, err := s.history.RecentTracks(ctx, user, historyFetchLimit, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetching recent tracks: %w", err)
	}
	s.log.Info("found scrobbles", "count", len(scrobbles))

	stats := &LastfmStats{TracksProcessed: len(scrobbles)}
	for _, scrobble := range scrobbles {
		track, err := s.store.Tracks().ByTitleArtist(ctx, scrobble.Title, scrobble.Artist)
		switch {
		case err == nil:
			stats.TracksMatched++
		case errors.Is(err, store.ErrNotFound):
			stats.TracksUnmatched++
			track = &store.Track{Name: scrobble.Title, Artist: scrobble.Artist}
			if scrobble.Album != "" {
				album := scrobble.Album
				track.Album = &album
			}
			if _, err := s.store.Tracks().Upsert(ctx, track); err != nil {
				return nil, fmt.Errorf("creating track %q: %w", scrobble.Title, err)
			}
			stats.NewTracks++
		default:
			return nil, fmt.Errorf("matching scrobble %q: %w", scrobble.Title, err)
		}

		recorded, err := s.store.History().Record(ctx, track.ID, scrobble.PlayedAt, store.DefaultHistorySource)
		if err != nil {
			return nil, fmt.Errorf("recording play of %q: %w", scrobble.Title, err)
		}
		if recorded {
			stats.EventsRecorded++
		}
	}

	if err := s.store.SyncRuns().Record(ctx, &store.SyncRun{
		Source:      SourceLastfm,
		StartedAt:   started,
		FinishedAt:  s.now(),
		ItemsSynced: stats.EventsRecorded,
	}); err != nil {
		return nil, err
	}

	s.log.Info("Last.fm sync complete",
		"processed", stats.TracksProcessed, "events", stats.EventsRecorded,
		"matched", stats.TracksMatched, "new_tracks", stats.NewTracks)
	return stats, nil
}

// Options controls a combined sync.
type Options struct {
	Full        bool
	Days        int
	User        string
	SpotifyOnly bool
	LastfmOnly  bool
}

// Stats aggregates both sources' results; a nil field means that source
// was skipped.
type Stats struct {
	Spotify *SpotifyStats `json:"spotify,omitempty"`
	Lastfm  *LastfmStats  `json:"lastfm,omitempty"`
}

// SyncAll runs the Spotify and Last.fm syncs per opts.
func (s *Service) SyncAll(ctx context.Context, opts Options) (*Stats, error) {
	stats := &Stats{}

	if !opts.LastfmOnly {
		spotifyStats, err := s.SyncSpotify(ctx, opts.Full)
		if err != nil {
			return nil, fmt.Errorf("spotify sync: %w", err)
		}
		stats.Spotify = spotifyStats
	}

	if !opts.SpotifyOnly {
		lastfmStats, err := s.SyncLastfm(ctx, opts.User, opts.Days)
		if err != nil {
			return nil, fmt.Errorf("lastfm sync: %w", err)
		}
		stats.Lastfm = lastfmStats
	}

	return stats, nil
}
