package store

import (
	"context"
	"fmt"
	"strings"

	"mkplaylist/internal/criteria"
)

// Query returns tracks matching a single (non-compound) specification.
//
// Artist and album filters match exactly but case-insensitively, since the
// parser folds criteria to lower case. Date filters are inclusive lower
// bounds. Sorting is always descending on the requested key with the
// insertion id as a deterministic tie-break. A zero spec returns the
// entire store in insertion order.
//
// The genre filter is accepted but inert: the schema has no genre column.
func (r *TrackRepository) Query(ctx context.Context, spec criteria.Spec) ([]Track, error) {
	if spec.IsCompound() {
		return nil, fmt.Errorf("compound specification passed to store query")
	}

	var (
		where []string
		args  []any
	)
	if spec.Artist != "" {
		where = append(where, "artist = ? COLLATE NOCASE")
		args = append(args, spec.Artist)
	}
	if spec.Album != "" {
		where = append(where, "album = ? COLLATE NOCASE")
		args = append(args, spec.Album)
	}
	if spec.AddedAfter != nil {
		where = append(where, "added_at >= ?")
		args = append(args, fmtTime(*spec.AddedAfter))
	}
	if spec.PlayedAfter != nil {
		where = append(where, "last_played_at IS NOT NULL AND last_played_at >= ?")
		args = append(args, fmtTime(*spec.PlayedAfter))
	}

	query := `SELECT ` + trackColumns + ` FROM tracks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	switch spec.SortBy {
	case criteria.SortAddedAt:
		query += " ORDER BY added_at DESC, id ASC"
	case criteria.SortLastPlayedAt:
		query += " ORDER BY last_played_at DESC, id ASC"
	case criteria.SortPlayCount:
		query += " ORDER BY play_count DESC, id ASC"
	case "":
		query += " ORDER BY id ASC"
	default:
		return nil, fmt.Errorf("unknown sort key %q", spec.SortBy)
	}

	if spec.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *spec.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tracks by criteria: %w", err)
	}
	defer rows.Close()
	return scanTracks(rows)
}
