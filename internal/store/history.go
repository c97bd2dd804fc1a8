package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// HistoryRepository handles the append-only listening history.
type HistoryRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// Record inserts a listening event and, in the same transaction, bumps
// the owning track's play_count by exactly one and advances
// last_played_at when the event is strictly more recent. This keeps
// play_count equal to the number of history rows for the track.
//
// An event that was already recorded (same track, timestamp and source)
// is a no-op; Record returns false so re-syncing an overlapping window
// cannot inflate counters.
func (r *HistoryRepository) Record(ctx context.Context, trackID int64, playedAt time.Time, source string) (recorded bool, err error) {
	if source == "" {
		source = DefaultHistorySource
	}
	playedAtStr := fmtTime(playedAt)

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO listening_history (track_id, played_at, source, created_at)
			VALUES (?, ?, ?, ?)`,
			trackID, playedAtStr, source, fmtTime(time.Now()),
		)
		if execErr != nil {
			return fmt.Errorf("inserting listening event: %w", execErr)
		}
		n, execErr := res.RowsAffected()
		if execErr != nil {
			return fmt.Errorf("listening event rows affected: %w", execErr)
		}
		if n == 0 {
			r.log.Debug("duplicate listening event ignored", "track_id", trackID, "played_at", playedAtStr)
			return nil
		}
		recorded = true

		res, execErr = tx.ExecContext(ctx,
			`UPDATE tracks SET
				play_count = play_count + 1,
				last_played_at = CASE
					WHEN last_played_at IS NULL OR last_played_at < ? THEN ?
					ELSE last_played_at
				END,
				updated_at = ?
			WHERE id = ?`,
			playedAtStr, playedAtStr, fmtTime(time.Now()), trackID,
		)
		if execErr != nil {
			return fmt.Errorf("updating track counters: %w", execErr)
		}
		n, execErr = res.RowsAffected()
		if execErr != nil {
			return fmt.Errorf("track counter rows affected: %w", execErr)
		}
		if n == 0 {
			return fmt.Errorf("listening event for unknown track %d: %w", trackID, ErrNotFound)
		}
		return nil
	})
	return recorded, err
}

// CountFor returns the number of listening events recorded for a track.
func (r *HistoryRepository) CountFor(ctx context.Context, trackID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listening_history WHERE track_id = ?`, trackID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting listening events: %w", err)
	}
	return n, nil
}
