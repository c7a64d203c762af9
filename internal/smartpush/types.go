// Package smartpush implements the delayed follow-up queue: after primary
// content is delivered (e.g. a betting tip), a soft trigger probabilistically
// attaches follow-up content (e.g. a coupon) scheduled with a randomized
// delay instead of a fixed time.
package smartpush

import (
	"errors"
	"fmt"
	"time"

	"github.com/scorewire/telecast/internal/config"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Active-hours window (local time). Outside it, enqueue always skips.
const (
	activeStartHour = 6  // 06:00
	activeEndHour   = 23 // 23:00
)

// Randomized delay bounds when a trigger carries no explicit delay.
const (
	minDelayMinutes = 30
	maxDelayMinutes = 90
)

// Item statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Trigger types.
const (
	TriggerAfterContent = "after_content"
	TriggerManual       = "manual"
)

// followUpProbability is the content-type-specific chance a soft trigger
// attaches follow-up content at all. force_send bypasses the draw.
var followUpProbability = map[string]float64{
	config.ContentBettingTip: 0.8,
	config.ContentNews:       0.3,
	config.ContentPoll:       0.5,
	config.ContentAnalysis:   0.6,
}

const defaultFollowUpProbability = 0.5

// ErrNotClaimed is returned by MarkProcessing when another pass already
// claimed the item.
var ErrNotClaimed = errors.New("queue item not in pending state")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Item is a queued follow-up delivery.
type Item struct {
	ID                 int64             `json:"id"`
	PrimaryContentID   string            `json:"primary_content_id"`
	PrimaryContentType string            `json:"primary_content_type"`
	ChannelIDs         []int64           `json:"channel_ids"`
	Language           string            `json:"language"`
	ScheduledAt        time.Time         `json:"scheduled_at"`
	DelayMinutes       int               `json:"delay_minutes"`
	SelectedCouponID   string            `json:"selected_coupon_id,omitempty"`
	Status             string            `json:"status"`
	ContextData        map[string]string `json:"context_data,omitempty"`
}

// Trigger describes the primary content event that may spawn a follow-up.
type Trigger struct {
	Type               string            `json:"type"`
	PrimaryContentID   string            `json:"primary_content_id"`
	PrimaryContentType string            `json:"primary_content_type"`
	Language           string            `json:"language"`
	ChannelIDs         []int64           `json:"channel_ids"`
	DelayMinutes       int               `json:"delay_minutes,omitempty"`
	ForceSend          bool              `json:"force_send,omitempty"`
	Context            map[string]string `json:"context,omitempty"`
}

// EnqueueResult reports what Enqueue decided. Exactly one of Item/SentNow/
// SkipReason is meaningful: a queued item, an immediate delivery, or a skip.
type EnqueueResult struct {
	Item       *Item  `json:"item,omitempty"`
	SentNow    bool   `json:"sent_now,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// Skipped reports whether the trigger produced no work. Skips are a normal
// steady state, not failures.
func (r *EnqueueResult) Skipped() bool { return r.SkipReason != "" }

// ProcessResult summarizes one queue-processing pass.
type ProcessResult struct {
	Processed  int           `json:"processed"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
	Errors     []string      `json:"errors,omitempty"`
}

// Summary returns a human-readable summary.
func (r *ProcessResult) Summary() string {
	return fmt.Sprintf("processed=%d successful=%d failed=%d dur=%s",
		r.Processed, r.Successful, r.Failed, r.Duration.Round(time.Millisecond))
}
