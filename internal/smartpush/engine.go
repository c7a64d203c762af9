package smartpush

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/scorewire/telecast/internal/distribution"
	"github.com/scorewire/telecast/internal/generator"
)

// QueueStore is the slice of the store the engine needs. *Store satisfies
// it; tests use an in-memory fake.
type QueueStore interface {
	InsertItem(ctx context.Context, item *Item) (int64, error)
	DueItems(ctx context.Context, now time.Time) ([]Item, error)
	MarkProcessing(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	RecordDelivery(ctx context.Context, itemID int64, res distribution.ChannelResult) error
}

// Engine decides whether a soft trigger spawns follow-up content and runs
// the delayed queue. Constructed once at startup and injected; no
// module-level singleton.
type Engine struct {
	store    QueueStore
	selector generator.Selector
	sender   distribution.Sender
	rng      *rand.Rand
	now      func() time.Time
	loc      *time.Location
	logger   *slog.Logger
}

// NewEngine creates an engine. rng, now and loc may be nil for production
// defaults (seeded PCG, time.Now, UTC).
func NewEngine(store QueueStore, selector generator.Selector, sender distribution.Sender, rng *rand.Rand, now func() time.Time, loc *time.Location, logger *slog.Logger) *Engine {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		store:    store,
		selector: selector,
		sender:   sender,
		rng:      rng,
		now:      now,
		loc:      loc,
		logger:   logger,
	}
}

// Enqueue decides whether to attach a follow-up item for a trigger.
// Outside active hours it always skips; otherwise a content-type-specific
// probability draw decides, unless force_send is set. A trigger that finds
// no suitable follow-up content records a skip, not a failure.
func (e *Engine) Enqueue(ctx context.Context, trigger Trigger) (*EnqueueResult, error) {
	now := e.now()

	local := now.In(e.loc)
	if local.Hour() < activeStartHour || local.Hour() >= activeEndHour {
		return &EnqueueResult{SkipReason: "outside active hours"}, nil
	}

	if !trigger.ForceSend {
		prob, ok := followUpProbability[trigger.PrimaryContentType]
		if !ok {
			prob = defaultFollowUpProbability
		}
		if e.rng.Float64() >= prob {
			return &EnqueueResult{SkipReason: "probability draw declined"}, nil
		}
	}

	content, couponID, err := e.selector.SelectFollowUp(ctx, trigger.PrimaryContentType, trigger.Language)
	if err != nil {
		return nil, fmt.Errorf("select follow-up: %w", err)
	}
	if content == nil {
		return &EnqueueResult{SkipReason: "no suitable follow-up content"}, nil
	}

	// Delayed path: decouple "decide to send" from "actually send" so a
	// later queue pass batch-delivers.
	if trigger.Type == TriggerAfterContent && !trigger.ForceSend {
		delay := trigger.DelayMinutes
		if delay <= 0 {
			delay = minDelayMinutes + e.rng.IntN(maxDelayMinutes-minDelayMinutes+1)
		}

		item := &Item{
			PrimaryContentID:   trigger.PrimaryContentID,
			PrimaryContentType: trigger.PrimaryContentType,
			ChannelIDs:         trigger.ChannelIDs,
			Language:           trigger.Language,
			ScheduledAt:        now.Add(time.Duration(delay) * time.Minute),
			DelayMinutes:       delay,
			SelectedCouponID:   couponID,
			Status:             StatusPending,
			ContextData:        trigger.Context,
		}
		id, err := e.store.InsertItem(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("insert queue item: %w", err)
		}
		item.ID = id
		e.logger.Info("Follow-up queued",
			"item_id", id, "primary_type", trigger.PrimaryContentType,
			"delay_minutes", delay, "channels", len(trigger.ChannelIDs))
		return &EnqueueResult{Item: item}, nil
	}

	// Immediate path (manual or forced triggers).
	res, err := e.sender.Send(ctx, content, trigger.Language, trigger.ChannelIDs, distribution.ModeAuto)
	if err != nil {
		return nil, fmt.Errorf("send follow-up: %w", err)
	}
	e.logger.Info("Follow-up sent immediately",
		"primary_type", trigger.PrimaryContentType, "channels_sent", res.ChannelsSent)
	return &EnqueueResult{SentNow: true}, nil
}

// ProcessQueue scans all pending items whose scheduled time has passed and
// attempts delivery. An item completes when at least one of its channels
// succeeded; per-channel failures are recorded individually and never abort
// sibling channels or other queue items.
func (e *Engine) ProcessQueue(ctx context.Context) (ProcessResult, error) {
	start := time.Now()
	now := e.now()
	var result ProcessResult

	due, err := e.store.DueItems(ctx, now)
	if err != nil {
		return result, fmt.Errorf("read due queue items: %w", err)
	}
	if len(due) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	e.logger.Info("Due queue items found", "count", len(due))

	for _, item := range due {
		if err := e.store.MarkProcessing(ctx, item.ID); err != nil {
			if errors.Is(err, ErrNotClaimed) {
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("claim item %d: %s", item.ID, err))
			continue
		}

		result.Processed++
		if e.deliverItem(ctx, item) {
			result.Successful++
		} else {
			result.Failed++
		}
	}

	result.Duration = time.Since(start)
	e.logger.Info("Queue processing complete", "summary", result.Summary())
	return result, nil
}

// deliverItem re-selects the follow-up content for a claimed item and
// delivers it. Returns true when at least one channel succeeded.
func (e *Engine) deliverItem(ctx context.Context, item Item) bool {
	content, _, err := e.selector.SelectFollowUp(ctx, item.PrimaryContentType, item.Language)
	if err != nil || content == nil {
		reason := "follow-up content no longer available"
		if err != nil {
			reason = err.Error()
		}
		e.logger.Warn("Queue item content unavailable", "item_id", item.ID, "reason", reason)
		_ = e.store.MarkFailed(ctx, item.ID, reason)
		return false
	}

	res, err := e.sender.Send(ctx, content, item.Language, item.ChannelIDs, distribution.ModeAuto)
	if err != nil {
		e.logger.Warn("Queue item delivery failed", "item_id", item.ID, "error", err)
		_ = e.store.MarkFailed(ctx, item.ID, err.Error())
		return false
	}

	for _, cr := range res.PerChannelResults {
		if recErr := e.store.RecordDelivery(ctx, item.ID, cr); recErr != nil {
			e.logger.Warn("Failed to record delivery", "item_id", item.ID, "channel_id", cr.ChannelID, "error", recErr)
		}
	}

	if res.ChannelsSent == 0 {
		reason := res.Error
		if reason == "" {
			reason = "no channels delivered"
		}
		_ = e.store.MarkFailed(ctx, item.ID, reason)
		return false
	}

	_ = e.store.MarkCompleted(ctx, item.ID)
	return true
}
