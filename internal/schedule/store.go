package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scorewire/telecast/internal/distribution"
)

// Store is the pgx-backed schedule entry store. Every mutation is scoped to
// a single row by primary key; no cross-row transaction is needed beyond the
// batch insert.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over the shared pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertBatch persists compiled entries in one transaction. All-or-nothing:
// a failed write leaves no partial schedule and the caller retries the whole
// compile.
func (s *Store) InsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO schedule_entries (
				match_id, content_type, content_subtype, scheduled_for,
				offset_minutes, jitter_minutes, priority, language,
				target_channels, status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			e.MatchID, e.ContentType, nullable(e.ContentSubtype), e.ScheduledFor,
			e.OffsetMinutes, e.JitterMinutes, e.Priority, e.Language,
			e.TargetChannels, StatusPending,
		)
		if err != nil {
			return fmt.Errorf("insert entry (match %d, %s/%s): %w",
				e.MatchID, e.ContentType, e.Language, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert batch: %w", err)
	}
	return nil
}

// DueEntries returns pending entries with scheduled_for in
// [now - lookback, now], highest priority first.
func (s *Store) DueEntries(ctx context.Context, now time.Time, lookback time.Duration) ([]Entry, error) {
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	rows, err := s.pool.Query(ctx, "due_schedule_entries", now.Add(-lookback), now)
	if err != nil {
		return nil, fmt.Errorf("due entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var subtype, result *string
		if err := rows.Scan(
			&e.ID, &e.MatchID, &e.ContentType, &subtype, &e.ScheduledFor,
			&e.OffsetMinutes, &e.JitterMinutes, &e.Priority, &e.Language,
			&e.TargetChannels, &e.Status, &result,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if subtype != nil {
			e.ContentSubtype = *subtype
		}
		if result != nil {
			e.ExecutionResult = *result
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkExecuting claims a pending entry. The status-equality guard makes the
// transition a compare-and-set: a second concurrent claimant sees zero rows
// affected and gets ErrNotClaimed.
func (s *Store) MarkExecuting(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE schedule_entries
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, StatusExecuting, StatusPending)
	if err != nil {
		return fmt.Errorf("mark executing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotClaimed
	}
	return nil
}

// MarkCompleted records a successful execution.
func (s *Store) MarkCompleted(ctx context.Context, id int64, result string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE schedule_entries
		SET status = $2, execution_result = $3, updated_at = NOW()
		WHERE id = $1`,
		id, StatusCompleted, result)
	if err != nil {
		return fmt.Errorf("mark completed %d: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed execution.
func (s *Store) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE schedule_entries
		SET status = $2, execution_result = $3, updated_at = NOW()
		WHERE id = $1`,
		id, StatusFailed, errMsg)
	if err != nil {
		return fmt.Errorf("mark failed %d: %w", id, err)
	}
	return nil
}

// Cancel cancels all non-terminal entries for a match (postponement,
// abandonment). Already-terminal rows are immutable history.
func (s *Store) Cancel(ctx context.Context, matchID int64, reason string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE schedule_entries
		SET status = $2, execution_result = $3, updated_at = NOW()
		WHERE match_id = $1 AND status IN ($4, $5)`,
		matchID, StatusCancelled, reason, StatusPending, StatusExecuting)
	if err != nil {
		return 0, fmt.Errorf("cancel match %d: %w", matchID, err)
	}
	return tag.RowsAffected(), nil
}

// Reschedule re-derives scheduled_for for every non-terminal entry from the
// new kickoff and the stored offset + jitter. The original template is not
// consulted; the persisted offset makes the recomputation reproducible.
func (s *Store) Reschedule(ctx context.Context, matchID int64, newKickoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE schedule_entries
		SET scheduled_for = $2 + (offset_minutes + jitter_minutes) * INTERVAL '1 minute',
		    updated_at = NOW()
		WHERE match_id = $1 AND status IN ($3, $4)`,
		matchID, newKickoff, StatusPending, StatusExecuting)
	if err != nil {
		return 0, fmt.Errorf("reschedule match %d: %w", matchID, err)
	}
	return tag.RowsAffected(), nil
}

// RecordDelivery appends one per-channel delivery record for an entry.
func (s *Store) RecordDelivery(ctx context.Context, entryID int64, res distribution.ChannelResult) error {
	status := "sent"
	if !res.Success {
		status = "failed"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO delivery_records (schedule_entry_id, channel_id, status, error_detail)
		VALUES ($1, $2, $3, $4)`,
		entryID, res.ChannelID, status, nullable(res.Error))
	if err != nil {
		return fmt.Errorf("record delivery entry %d: %w", entryID, err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
