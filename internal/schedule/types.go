// Package schedule owns the per-match dynamic content schedule: compiling
// timing templates into dated entries, the persistent entry store, and the
// tick runner that executes due entries.
//
// Ownership: the store is the sole owner of entry state. Components mutate
// entries through single-row transitions keyed by id and never hold them in
// memory across ticks. Overlapping ticks are safe because the
// pending → executing transition is a compare-and-set.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// Jitter applied to every compiled entry, uniform in [-15, +15] minutes.
	maxJitterMinutes = 15

	// DefaultPriority is used when a template rule carries none.
	DefaultPriority = 5

	// DefaultLookback keeps a late-running tick from silently skipping work.
	DefaultLookback = 5 * time.Minute
)

// Entry statuses. Exactly one terminal status is reached per entry.
const (
	StatusPending   = "pending"
	StatusExecuting = "executing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ErrNotClaimed is returned by MarkExecuting when another tick already
// claimed the entry. Callers back off; this is not a failure.
var ErrNotClaimed = errors.New("entry not in pending state")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Entry is one scheduled content item for a match, language and channel set.
// OffsetMinutes and JitterMinutes are persisted so a reschedule can re-derive
// ScheduledFor from a new kickoff without re-reading the template.
type Entry struct {
	ID              int64
	MatchID         int64
	ContentType     string
	ContentSubtype  string
	ScheduledFor    time.Time
	OffsetMinutes   int
	JitterMinutes   int
	Priority        int
	Language        string
	TargetChannels  []int64
	Status          string
	ExecutionResult string
}

// RunResult tracks the outcome of one tick over due entries.
type RunResult struct {
	Found     int           `json:"found"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	Errors    []string      `json:"errors,omitempty"`
}

// Summary returns a human-readable summary.
func (r *RunResult) Summary() string {
	return fmt.Sprintf("found=%d processed=%d succeeded=%d failed=%d skipped=%d dur=%s",
		r.Found, r.Processed, r.Succeeded, r.Failed, r.Skipped,
		r.Duration.Round(time.Millisecond))
}
