package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the pgx-backed log store for the reaper.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over the shared pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// DeleteStale removes pending/failed log rows created before the cutoff.
// Hard delete, no soft-delete.
func (s *Store) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM automation_logs
		WHERE status IN ('pending', 'failed') AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PendingRows returns all pending log rows, newest first.
func (s *Store) PendingRows(ctx context.Context) ([]LogRow, error) {
	rows, err := s.pool.Query(ctx, "pending_log_rows")
	if err != nil {
		return nil, fmt.Errorf("pending log rows: %w", err)
	}
	defer rows.Close()

	var result []LogRow
	for rows.Next() {
		var row LogRow
		if err := rows.Scan(&row.ID, &row.RuleName, &row.ContentType, &row.ScheduledTime, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// DeleteRows removes log rows by id.
func (s *Store) DeleteRows(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM automation_logs WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete rows: %w", err)
	}
	return tag.RowsAffected(), nil
}
