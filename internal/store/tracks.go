package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// TrackRepository handles track persistence.
type TrackRepository struct {
	db  *sql.DB
	log *slog.Logger
}

const trackColumns = `id, spotify_id, name, artist, album, duration_ms, popularity,
	added_at, last_played_at, play_count, created_at, updated_at`

// Upsert creates the track, or merges its attributes into the existing
// row with the same Spotify ID. Only name, artist, album, duration and
// popularity are mutable on update; identity, added_at, play_count and
// last_played_at are never clobbered by a sync. Returns true when a new
// row was created. The track's ID and bookkeeping fields are filled in.
func (r *TrackRepository) Upsert(ctx context.Context, track *Track) (created bool, err error) {
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		if track.SpotifyID != nil {
			existing, findErr := scanTrackRow(tx.QueryRowContext(ctx,
				`SELECT `+trackColumns+` FROM tracks WHERE spotify_id = ?`, *track.SpotifyID))
			if findErr != nil && !errors.Is(findErr, ErrNotFound) {
				return findErr
			}
			if findErr == nil {
				return r.mergeInto(ctx, tx, existing, track)
			}
		}
		created = true
		return r.insert(ctx, tx, track)
	})
	return created, err
}

func (r *TrackRepository) insert(ctx context.Context, tx *sql.Tx, track *Track) error {
	now := time.Now().UTC()
	if track.AddedAt.IsZero() {
		track.AddedAt = now
	}
	track.CreatedAt = now
	track.UpdatedAt = now

	var spotifyID any
	if track.SpotifyID != nil {
		spotifyID = *track.SpotifyID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tracks (spotify_id, name, artist, album, duration_ms, popularity,
			added_at, last_played_at, play_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spotifyID,
		track.Name,
		track.Artist,
		nullableString(track.Album),
		nullableInt(track.DurationMs),
		nullableInt(track.Popularity),
		fmtTime(track.AddedAt),
		fmtTimePtr(track.LastPlayedAt),
		track.PlayCount,
		fmtTime(track.CreatedAt),
		fmtTime(track.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting track %q: %w", track.Name, err)
	}
	track.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("track insert id: %w", err)
	}
	r.log.Debug("added track", "name", track.Name, "artist", track.Artist)
	return nil
}

// mergeInto applies the incoming track's mutable fields to the existing
// row and copies the stored identity and counters back onto track.
func (r *TrackRepository) mergeInto(ctx context.Context, tx *sql.Tx, existing, track *Track) error {
	now := time.Now().UTC()

	album := existing.Album
	if track.Album != nil {
		album = track.Album
	}
	duration := existing.DurationMs
	if track.DurationMs != nil {
		duration = track.DurationMs
	}
	popularity := existing.Popularity
	if track.Popularity != nil {
		popularity = track.Popularity
	}

	_, err := tx.ExecContext(ctx,
		`UPDATE tracks SET name = ?, artist = ?, album = ?, duration_ms = ?, popularity = ?, updated_at = ?
		WHERE id = ?`,
		track.Name,
		track.Artist,
		nullableString(album),
		nullableInt(duration),
		nullableInt(popularity),
		fmtTime(now),
		existing.ID,
	)
	if err != nil {
		return fmt.Errorf("updating track %q: %w", track.Name, err)
	}

	track.ID = existing.ID
	track.Album = album
	track.DurationMs = duration
	track.Popularity = popularity
	track.AddedAt = existing.AddedAt
	track.LastPlayedAt = existing.LastPlayedAt
	track.PlayCount = existing.PlayCount
	track.CreatedAt = existing.CreatedAt
	track.UpdatedAt = now
	r.log.Debug("updated track", "name", track.Name, "artist", track.Artist)
	return nil
}

// BySpotifyID retrieves a track by its external identity.
func (r *TrackRepository) BySpotifyID(ctx context.Context, spotifyID string) (*Track, error) {
	return scanTrackRow(r.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE spotify_id = ?`, spotifyID))
}

// ByTitleArtist finds a track by title and artist: exact match first,
// then a case-insensitive substring fallback mirroring how scrobble
// metadata drifts from platform metadata.
func (r *TrackRepository) ByTitleArtist(ctx context.Context, title, artist string) (*Track, error) {
	track, err := scanTrackRow(r.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE name = ? AND artist = ? ORDER BY id LIMIT 1`,
		title, artist))
	if err == nil || !errors.Is(err, ErrNotFound) {
		return track, err
	}

	return scanTrackRow(r.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM tracks
		WHERE name LIKE '%' || ? || '%' AND artist LIKE '%' || ? || '%'
		ORDER BY id LIMIT 1`,
		title, artist))
}

// All returns every track, in insertion order.
func (r *TrackRepository) All(ctx context.Context) ([]Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()
	return scanTracks(rows)
}

// Count returns the number of stored tracks.
func (r *TrackRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(sc rowScanner) (*Track, error) {
	var (
		track        Track
		spotifyID    sql.NullString
		album        sql.NullString
		durationMs   sql.NullInt64
		popularity   sql.NullInt64
		addedAt      string
		lastPlayedAt sql.NullString
		createdAt    string
		updatedAt    string
	)
	err := sc.Scan(
		&track.ID, &spotifyID, &track.Name, &track.Artist, &album,
		&durationMs, &popularity, &addedAt, &lastPlayedAt,
		&track.PlayCount, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if spotifyID.Valid {
		track.SpotifyID = &spotifyID.String
	}
	if album.Valid {
		track.Album = &album.String
	}
	if durationMs.Valid {
		v := int(durationMs.Int64)
		track.DurationMs = &v
	}
	if popularity.Valid {
		v := int(popularity.Int64)
		track.Popularity = &v
	}
	if track.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, err
	}
	if track.LastPlayedAt, err = parseTimePtr(lastPlayedAt); err != nil {
		return nil, err
	}
	if track.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if track.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &track, nil
}

func scanTrackRow(row *sql.Row) (*Track, error) {
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning track: %w", err)
	}
	return track, nil
}

func scanTracks(rows *sql.Rows) ([]Track, error) {
	var tracks []Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
