package smartpush

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scorewire/telecast/internal/distribution"
)

// Store is the pgx-backed push queue store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over the shared pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertItem persists a queue item and returns its id.
func (s *Store) InsertItem(ctx context.Context, item *Item) (int64, error) {
	var contextJSON interface{}
	if len(item.ContextData) > 0 {
		raw, err := json.Marshal(item.ContextData)
		if err != nil {
			return 0, fmt.Errorf("marshal context data: %w", err)
		}
		contextJSON = raw
	}

	var couponID interface{}
	if item.SelectedCouponID != "" {
		couponID = item.SelectedCouponID
	}

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO push_queue (
			primary_content_id, primary_content_type, channel_ids, language,
			scheduled_at, delay_minutes, selected_coupon_id, status, context_data
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`,
		item.PrimaryContentID, item.PrimaryContentType, item.ChannelIDs, item.Language,
		item.ScheduledAt, item.DelayMinutes, couponID, item.Status, contextJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert queue item: %w", err)
	}
	return id, nil
}

// DueItems returns pending items whose scheduled_at has passed.
func (s *Store) DueItems(ctx context.Context, now time.Time) ([]Item, error) {
	rows, err := s.pool.Query(ctx, "due_queue_items", now)
	if err != nil {
		return nil, fmt.Errorf("due queue items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var couponID *string
		var contextJSON []byte
		if err := rows.Scan(
			&item.ID, &item.PrimaryContentID, &item.PrimaryContentType, &item.ChannelIDs,
			&item.Language, &item.ScheduledAt, &item.DelayMinutes, &couponID,
			&item.Status, &contextJSON,
		); err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		if couponID != nil {
			item.SelectedCouponID = *couponID
		}
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &item.ContextData); err != nil {
				return nil, fmt.Errorf("unmarshal context data for item %d: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkProcessing claims a pending item. Compare-and-set on status so a
// concurrent pass gets ErrNotClaimed and backs off.
func (s *Store) MarkProcessing(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE push_queue
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, StatusProcessing, StatusPending)
	if err != nil {
		return fmt.Errorf("mark processing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotClaimed
	}
	return nil
}

// MarkCompleted marks an item delivered to at least one channel.
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE push_queue SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, StatusCompleted)
	if err != nil {
		return fmt.Errorf("mark completed %d: %w", id, err)
	}
	return nil
}

// MarkFailed marks an item that reached no channel at all.
func (s *Store) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE push_queue SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, StatusFailed)
	if err != nil {
		return fmt.Errorf("mark failed %d (%s): %w", id, reason, err)
	}
	return nil
}

// RecordDelivery appends one per-channel delivery record for a queue item.
func (s *Store) RecordDelivery(ctx context.Context, itemID int64, res distribution.ChannelResult) error {
	status := "sent"
	var detail interface{}
	if !res.Success {
		status = "failed"
		if res.Error != "" {
			detail = res.Error
		}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO delivery_records (queue_item_id, channel_id, status, error_detail)
		VALUES ($1, $2, $3, $4)`,
		itemID, res.ChannelID, status, detail)
	if err != nil {
		return fmt.Errorf("record delivery item %d: %w", itemID, err)
	}
	return nil
}
