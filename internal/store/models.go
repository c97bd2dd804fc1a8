package store

import "time"

// Track is a locally known music track. SpotifyID is nil for tracks that
// only exist via listening history and have not been resolved against the
// streaming platform yet.
type Track struct {
	ID           int64
	SpotifyID    *string
	Name         string
	Artist       string
	Album        *string
	DurationMs   *int
	Popularity   *int
	AddedAt      time.Time
	LastPlayedAt *time.Time
	PlayCount    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Playlist mirrors an external playlist. Names are not unique; matching
// by name is a synthesis policy, not a store invariant.
type Playlist struct {
	ID          int64
	SpotifyID   *string
	Name        string
	Description string
	Owner       string
	IsPublic    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlaylistTrack is a membership edge. At most one row exists per
// (playlist, track) pair.
type PlaylistTrack struct {
	ID         int64
	PlaylistID int64
	TrackID    int64
	Position   *int
	AddedAt    *time.Time
	CreatedAt  time.Time
}

// ListeningEvent is an append-only record of one play.
type ListeningEvent struct {
	ID        int64
	TrackID   int64
	PlayedAt  time.Time
	Source    string
	CreatedAt time.Time
}

// SyncRun records one completed sync against an external service.
type SyncRun struct {
	ID          string
	Source      string
	StartedAt   time.Time
	FinishedAt  time.Time
	ItemsSynced int
}

// DefaultHistorySource tags listening events that came from the scrobble
// service.
const DefaultHistorySource = "lastfm"
