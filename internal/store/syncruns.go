package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SyncRunRepository records completed sync operations so later syncs and
// status output can see when each source was last refreshed.
type SyncRunRepository struct {
	db *sql.DB
}

// Record persists a sync run, assigning it an ID if needed.
func (r *SyncRunRepository) Record(ctx context.Context, run *SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, source, started_at, finished_at, items_synced)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, fmtTime(run.StartedAt), fmtTime(run.FinishedAt), run.ItemsSynced,
	)
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

// LastFor returns the most recently finished sync run for a source, or
// ErrNotFound if the source has never been synced.
func (r *SyncRunRepository) LastFor(ctx context.Context, source string) (*SyncRun, error) {
	var (
		run        SyncRun
		startedAt  string
		finishedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, source, started_at, finished_at, items_synced
		FROM sync_runs WHERE source = ?
		ORDER BY finished_at DESC LIMIT 1`, source,
	).Scan(&run.ID, &run.Source, &startedAt, &finishedAt, &run.ItemsSynced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying last sync run: %w", err)
	}
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, err
	}
	return &run, nil
}
