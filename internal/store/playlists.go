package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PlaylistRepository handles playlist persistence and membership edges.
type PlaylistRepository struct {
	db  *sql.DB
	log *slog.Logger
}

const playlistColumns = `id, spotify_id, name, description, owner, is_public, created_at, updated_at`

// Upsert creates the playlist or merges name, description, owner and
// visibility into the existing row with the same Spotify ID. Returns true
// when a new row was created.
func (r *PlaylistRepository) Upsert(ctx context.Context, playlist *Playlist) (created bool, err error) {
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		if playlist.SpotifyID != nil {
			existing, findErr := scanPlaylistRow(tx.QueryRowContext(ctx,
				`SELECT `+playlistColumns+` FROM playlists WHERE spotify_id = ?`, *playlist.SpotifyID))
			if findErr != nil && !errors.Is(findErr, ErrNotFound) {
				return findErr
			}
			if findErr == nil {
				_, execErr := tx.ExecContext(ctx,
					`UPDATE playlists SET name = ?, description = ?, owner = ?, is_public = ?, updated_at = ?
					WHERE id = ?`,
					playlist.Name, playlist.Description, playlist.Owner,
					playlist.IsPublic, fmtTime(now), existing.ID,
				)
				if execErr != nil {
					return fmt.Errorf("updating playlist %q: %w", playlist.Name, execErr)
				}
				playlist.ID = existing.ID
				playlist.CreatedAt = existing.CreatedAt
				playlist.UpdatedAt = now
				r.log.Debug("updated playlist", "name", playlist.Name)
				return nil
			}
		}

		created = true
		playlist.CreatedAt = now
		playlist.UpdatedAt = now

		var spotifyID any
		if playlist.SpotifyID != nil {
			spotifyID = *playlist.SpotifyID
		}
		res, execErr := tx.ExecContext(ctx,
			`INSERT INTO playlists (spotify_id, name, description, owner, is_public, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			spotifyID, playlist.Name, playlist.Description, playlist.Owner,
			playlist.IsPublic, fmtTime(now), fmtTime(now),
		)
		if execErr != nil {
			return fmt.Errorf("inserting playlist %q: %w", playlist.Name, execErr)
		}
		playlist.ID, execErr = res.LastInsertId()
		if execErr != nil {
			return fmt.Errorf("playlist insert id: %w", execErr)
		}
		r.log.Debug("added playlist", "name", playlist.Name)
		return nil
	})
	return created, err
}

// BySpotifyID retrieves a playlist by its external identity.
func (r *PlaylistRepository) BySpotifyID(ctx context.Context, spotifyID string) (*Playlist, error) {
	return scanPlaylistRow(r.db.QueryRowContext(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE spotify_id = ?`, spotifyID))
}

// All returns every playlist, in insertion order.
func (r *PlaylistRepository) All(ctx context.Context) ([]Playlist, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+playlistColumns+` FROM playlists ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		p, scanErr := scanPlaylist(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning playlist: %w", scanErr)
		}
		playlists = append(playlists, *p)
	}
	return playlists, rows.Err()
}

// AddTrack records playlist membership. Re-adding an existing pair
// updates position and added_at in place rather than duplicating the
// edge.
func (r *PlaylistRepository) AddTrack(ctx context.Context, playlistID, trackID int64, position *int, addedAt *time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if addedAt == nil {
			addedAt = &now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_tracks (playlist_id, track_id, position, added_at, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (playlist_id, track_id) DO UPDATE SET
				position = COALESCE(excluded.position, position),
				added_at = COALESCE(excluded.added_at, added_at)`,
			playlistID, trackID, nullableInt(position), fmtTimePtr(addedAt), fmtTime(now),
		)
		if err != nil {
			return fmt.Errorf("adding track %d to playlist %d: %w", trackID, playlistID, err)
		}
		return nil
	})
}

// TrackCount returns the number of membership edges for a playlist.
func (r *PlaylistRepository) TrackCount(ctx context.Context, playlistID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM playlist_tracks WHERE playlist_id = ?`, playlistID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting playlist tracks: %w", err)
	}
	return n, nil
}

func scanPlaylist(sc rowScanner) (*Playlist, error) {
	var (
		playlist  Playlist
		spotifyID sql.NullString
		createdAt string
		updatedAt string
	)
	err := sc.Scan(
		&playlist.ID, &spotifyID, &playlist.Name, &playlist.Description,
		&playlist.Owner, &playlist.IsPublic, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if spotifyID.Valid {
		playlist.SpotifyID = &spotifyID.String
	}
	if playlist.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if playlist.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &playlist, nil
}

func scanPlaylistRow(row *sql.Row) (*Playlist, error) {
	playlist, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning playlist: %w", err)
	}
	return playlist, nil
}
