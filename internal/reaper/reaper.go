// Package reaper implements the periodic cleanup pass over execution logs:
// time-based eviction of stale pending/failed rows and collapse of duplicate
// pending rows down to the newest. Safe to re-run repeatedly.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// retentionHorizon is the age past which pending/failed log rows are
// unconditionally evicted.
const retentionHorizon = 24 * time.Hour

// LogRow is the slice of an execution log row the reaper groups on.
type LogRow struct {
	ID            int64
	RuleName      string
	ContentType   string
	ScheduledTime time.Time
	CreatedAt     time.Time
}

// LogStore is the log access the reaper needs. *Store satisfies it; tests
// use an in-memory fake.
type LogStore interface {
	// DeleteStale removes pending/failed rows created before the cutoff.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
	// PendingRows returns all pending rows, newest first.
	PendingRows(ctx context.Context) ([]LogRow, error)
	// DeleteRows removes rows by id.
	DeleteRows(ctx context.Context, ids []int64) (int64, error)
}

// Result reports what one cleanup pass deleted.
type Result struct {
	DeletedStale      int64 `json:"deleted_stale"`
	DeletedDuplicates int64 `json:"deleted_duplicates"`
}

// Reaper runs the cleanup pass.
type Reaper struct {
	store  LogStore
	now    func() time.Time
	logger *slog.Logger
}

// New creates a reaper. now may be nil for time.Now.
func New(store LogStore, now func() time.Time, logger *slog.Logger) *Reaper {
	if now == nil {
		now = time.Now
	}
	return &Reaper{store: store, now: now, logger: logger}
}

// groupKey identifies a logical execution slot. A struct key rather than a
// concatenated string, so field values containing delimiters cannot collide.
type groupKey struct {
	RuleName      string
	ContentType   string
	ScheduledUnix int64
}

// Cleanup deletes stale rows, then collapses duplicate pending rows sharing
// (rule, content type, scheduled time) down to the most recently created.
// Idempotent: a second run with no intervening writes deletes nothing.
func (r *Reaper) Cleanup(ctx context.Context) (Result, error) {
	var result Result

	stale, err := r.store.DeleteStale(ctx, r.now().Add(-retentionHorizon))
	if err != nil {
		return result, fmt.Errorf("delete stale logs: %w", err)
	}
	result.DeletedStale = stale

	pending, err := r.store.PendingRows(ctx)
	if err != nil {
		return result, fmt.Errorf("read pending logs: %w", err)
	}

	// Rows arrive newest first; the first row seen per group survives.
	seen := make(map[groupKey]bool)
	var duplicates []int64
	for _, row := range pending {
		key := groupKey{
			RuleName:      row.RuleName,
			ContentType:   row.ContentType,
			ScheduledUnix: row.ScheduledTime.Unix(),
		}
		if seen[key] {
			duplicates = append(duplicates, row.ID)
			continue
		}
		seen[key] = true
	}

	if len(duplicates) > 0 {
		deleted, err := r.store.DeleteRows(ctx, duplicates)
		if err != nil {
			return result, fmt.Errorf("delete duplicate logs: %w", err)
		}
		result.DeletedDuplicates = deleted
	}

	if result.DeletedStale > 0 || result.DeletedDuplicates > 0 {
		r.logger.Info("Cleanup complete",
			"deleted_stale", result.DeletedStale,
			"deleted_duplicates", result.DeletedDuplicates)
	}
	return result, nil
}
