package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scorewire/telecast/internal/distribution"
	"github.com/scorewire/telecast/internal/generator"
	"github.com/scorewire/telecast/internal/smartpush"
)

// EntryStore is the slice of the store the runner needs. *Store satisfies
// it; tests use an in-memory fake.
type EntryStore interface {
	DueEntries(ctx context.Context, now time.Time, lookback time.Duration) ([]Entry, error)
	MarkExecuting(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64, result string) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	RecordDelivery(ctx context.Context, entryID int64, res distribution.ChannelResult) error
}

// FollowUpEnqueuer fires the soft follow-up trigger after a primary delivery.
// *smartpush.Engine satisfies it.
type FollowUpEnqueuer interface {
	Enqueue(ctx context.Context, trigger smartpush.Trigger) (*smartpush.EnqueueResult, error)
}

// Runner executes due schedule entries: claim, generate, distribute, mark.
// Entries are processed sequentially in due-query order; a failure on one
// entry never aborts the rest of the tick.
type Runner struct {
	store    EntryStore
	gen      generator.Generator
	sender   distribution.Sender
	push     FollowUpEnqueuer
	lookback time.Duration
	logger   *slog.Logger
}

// NewRunner creates a runner. lookback <= 0 uses DefaultLookback; a nil push
// disables follow-up triggering.
func NewRunner(store EntryStore, gen generator.Generator, sender distribution.Sender, push FollowUpEnqueuer, lookback time.Duration, logger *slog.Logger) *Runner {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Runner{
		store:    store,
		gen:      gen,
		sender:   sender,
		push:     push,
		lookback: lookback,
		logger:   logger,
	}
}

// Run processes all due entries as of now. A store read failure is fatal to
// the tick and propagates; per-entry failures are isolated and counted.
func (r *Runner) Run(ctx context.Context, now time.Time) (RunResult, error) {
	start := time.Now()
	var result RunResult

	due, err := r.store.DueEntries(ctx, now, r.lookback)
	if err != nil {
		return result, fmt.Errorf("read due entries: %w", err)
	}

	result.Found = len(due)
	if len(due) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	r.logger.Info("Due schedule entries found", "count", len(due))

	for _, entry := range due {
		if err := r.store.MarkExecuting(ctx, entry.ID); err != nil {
			if errors.Is(err, ErrNotClaimed) {
				// Another tick got there first; back off.
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("claim entry %d: %s", entry.ID, err))
			result.Failed++
			continue
		}

		result.Processed++
		if r.executeEntry(ctx, entry) {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	result.Duration = time.Since(start)
	r.logger.Info("Schedule tick complete", "summary", result.Summary())
	return result, nil
}

// executeEntry generates and distributes one claimed entry and records the
// terminal status. Returns true on success.
func (r *Runner) executeEntry(ctx context.Context, entry Entry) bool {
	channelID := int64(0)
	if len(entry.TargetChannels) > 0 {
		channelID = entry.TargetChannels[0]
	}

	content, err := r.gen.Generate(ctx, entry.ContentType, entry.Language, channelID, generator.Options{
		MatchID: entry.MatchID,
		Subtype: entry.ContentSubtype,
	})
	if err != nil {
		r.logger.Warn("Generation failed",
			"entry_id", entry.ID, "content_type", entry.ContentType,
			"language", entry.Language, "error", err)
		_ = r.store.MarkFailed(ctx, entry.ID, "generation failed: "+err.Error())
		return false
	}

	sendRes, err := r.sender.Send(ctx, content, entry.Language, entry.TargetChannels, distribution.ModeAuto)
	if err != nil {
		r.logger.Warn("Distribution failed",
			"entry_id", entry.ID, "channels", len(entry.TargetChannels), "error", err)
		_ = r.store.MarkFailed(ctx, entry.ID, "distribution failed: "+err.Error())
		return false
	}

	for _, cr := range sendRes.PerChannelResults {
		if recErr := r.store.RecordDelivery(ctx, entry.ID, cr); recErr != nil {
			r.logger.Warn("Failed to record delivery",
				"entry_id", entry.ID, "channel_id", cr.ChannelID, "error", recErr)
		}
	}

	// Partial success is success: at least one channel delivered.
	if sendRes.ChannelsSent == 0 {
		msg := sendRes.Error
		if msg == "" {
			msg = "no channels delivered"
		}
		_ = r.store.MarkFailed(ctx, entry.ID, msg)
		return false
	}

	_ = r.store.MarkCompleted(ctx, entry.ID,
		fmt.Sprintf("sent to %d/%d channels", sendRes.ChannelsSent, len(entry.TargetChannels)))

	if r.push != nil {
		// Soft trigger: the push engine decides whether a follow-up happens
		// at all, so a failure here never affects the entry's outcome.
		_, pushErr := r.push.Enqueue(ctx, smartpush.Trigger{
			Type:               smartpush.TriggerAfterContent,
			PrimaryContentID:   fmt.Sprintf("entry-%d", entry.ID),
			PrimaryContentType: entry.ContentType,
			Language:           entry.Language,
			ChannelIDs:         entry.TargetChannels,
		})
		if pushErr != nil {
			r.logger.Warn("Follow-up trigger failed", "entry_id", entry.ID, "error", pushErr)
		}
	}
	return true
}
