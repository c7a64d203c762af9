// Package listener provides a Postgres LISTEN/NOTIFY consumer for real-time
// match schedule corrections. It holds a dedicated pgx connection (not from
// the pool) listening on the `match_updates` channel.
//
// The upstream match sync NOTIFYs when a fixture is postponed, rescheduled,
// or cancelled; this consumer applies the correction to the match's schedule
// entries without waiting for the next tick.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	channel          = "match_updates"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Match update event types.
const (
	EventRescheduled = "rescheduled"
	EventPostponed   = "postponed"
	EventCancelled   = "cancelled"
)

// MatchEvent is the JSON payload from pg_notify('match_updates', ...).
type MatchEvent struct {
	MatchID   int64     `json:"match_id"`
	Event     string    `json:"event"`
	Kickoff   time.Time `json:"kickoff,omitempty"`
	Timestamp int64     `json:"ts"`
}

// ScheduleStore is the slice of the schedule store the listener needs.
type ScheduleStore interface {
	Reschedule(ctx context.Context, matchID int64, newKickoff time.Time) (int64, error)
	Cancel(ctx context.Context, matchID int64, reason string) (int64, error)
}

// Start opens a dedicated connection and listens on the match_updates
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, store ScheduleStore, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, store, logger)
		if ctx.Err() != nil {
			logger.Info("Match listener stopped (context cancelled)")
			return
		}

		logger.Error("Match listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, store ScheduleStore, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Match listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var event MatchEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			logger.Warn("Failed to parse match event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Info("Match event received",
			"match_id", event.MatchID, "event", event.Event)

		handleEvent(ctx, store, event, logger)
	}
}

// handleEvent applies one schedule correction. Malformed or unknown events
// are logged and dropped; the listener never dies over a bad payload.
func handleEvent(ctx context.Context, store ScheduleStore, event MatchEvent, logger *slog.Logger) {
	if event.MatchID == 0 {
		logger.Warn("Match event without match_id dropped", "event", event.Event)
		return
	}

	switch event.Event {
	case EventRescheduled:
		if event.Kickoff.IsZero() {
			logger.Warn("Rescheduled event without kickoff dropped", "match_id", event.MatchID)
			return
		}
		updated, err := store.Reschedule(ctx, event.MatchID, event.Kickoff)
		if err != nil {
			logger.Error("Failed to reschedule match entries",
				"match_id", event.MatchID, "error", err)
			return
		}
		logger.Info("Match entries rescheduled",
			"match_id", event.MatchID, "kickoff", event.Kickoff, "entries", updated)

	case EventPostponed, EventCancelled:
		cancelled, err := store.Cancel(ctx, event.MatchID, "match "+event.Event)
		if err != nil {
			logger.Error("Failed to cancel match entries",
				"match_id", event.MatchID, "error", err)
			return
		}
		logger.Info("Match entries cancelled",
			"match_id", event.MatchID, "reason", event.Event, "entries", cancelled)

	default:
		logger.Warn("Unknown match event dropped",
			"match_id", event.MatchID, "event", event.Event)
	}
}
