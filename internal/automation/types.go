// Package automation implements the rule-based automation engine: enabled
// rules are evaluated every tick, due rules generate content per language
// and either auto-send it or queue it for manual approval.
package automation

import (
	"fmt"
	"time"

	"github.com/scorewire/telecast/internal/config"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Execution modes.
const (
	ModeFullAuto       = "full_auto"
	ModeManualApproval = "manual_approval"
)

// Automation types.
const (
	TypeScheduled    = "scheduled"
	TypeContinuous   = "continuous"
	TypeEventDriven  = "event_driven"
	TypeContextAware = "context_aware"
)

// Schedule frequencies.
const (
	FreqHourly = "hourly"
	FreqDaily  = "daily"
	FreqWeekly = "weekly"
	FreqCustom = "custom"
)

// Log statuses. A pending row marks an execution in flight; the reaper
// collapses duplicates and evicts stale ones.
const (
	LogPending   = "pending"
	LogCompleted = "completed"
	LogFailed    = "failed"
)

// continuousFireThreshold is the per-tick draw a continuous rule must exceed
// to fire. Yields an expected firing frequency rather than a fixed period —
// a deliberate simplification kept behind the same due() path as the
// deterministic schedules.
const continuousFireThreshold = 0.9

// defaultTickGranularity bounds how far a scheduled slot may drift from the
// tick time and still count as matching.
const defaultTickGranularity = time.Minute

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// ScheduleSpec is the persisted schedule of a scheduled rule.
type ScheduleSpec struct {
	Frequency string   `json:"frequency"`
	Times     []string `json:"times"`
	Days      []string `json:"days,omitempty"`
}

// Rule is an automation rule row. lastRun and the counters are mutated only
// by the engine after each attempt; rules are never deleted automatically.
type Rule struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Enabled        bool         `json:"enabled"`
	ExecutionMode  string       `json:"execution_mode"`
	AutomationType string       `json:"automation_type"`
	ContentType    string       `json:"content_type"`
	Schedule       ScheduleSpec `json:"schedule"`
	Languages      []string     `json:"languages"`
	Channels       []int64      `json:"channels"`
	LastRun        *time.Time   `json:"last_run,omitempty"`
	SuccessCount   int          `json:"success_count"`
	ErrorCount     int          `json:"error_count"`
}

// TickResult summarizes one engine tick over all enabled rules.
type TickResult struct {
	RulesEvaluated int           `json:"rules_evaluated"`
	RulesDue       int           `json:"rules_due"`
	RulesSucceeded int           `json:"rules_succeeded"`
	RulesFailed    int           `json:"rules_failed"`
	Duration       time.Duration `json:"duration"`
	Errors         []string      `json:"errors,omitempty"`
}

// Summary returns a human-readable summary.
func (r *TickResult) Summary() string {
	return fmt.Sprintf("evaluated=%d due=%d succeeded=%d failed=%d dur=%s",
		r.RulesEvaluated, r.RulesDue, r.RulesSucceeded, r.RulesFailed,
		r.Duration.Round(time.Millisecond))
}

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

var validModes = map[string]bool{ModeFullAuto: true, ModeManualApproval: true}

var validTypes = map[string]bool{
	TypeScheduled: true, TypeContinuous: true,
	TypeEventDriven: true, TypeContextAware: true,
}

var validFrequencies = map[string]bool{
	FreqHourly: true, FreqDaily: true, FreqWeekly: true, FreqCustom: true,
}

// Validate rejects configuration errors synchronously at creation/update
// time. The only silent fallback is the documented default schedule
// daily@09:00 when no schedule is supplied at all.
func Validate(r *Rule) error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if !validTypes[r.AutomationType] {
		return fmt.Errorf("unknown automation type %q", r.AutomationType)
	}
	if r.ExecutionMode == "" {
		r.ExecutionMode = ModeFullAuto
	}
	if !validModes[r.ExecutionMode] {
		return fmt.Errorf("unknown execution mode %q", r.ExecutionMode)
	}
	if !config.KnownContentTypes[r.ContentType] {
		return fmt.Errorf("unknown content type %q", r.ContentType)
	}
	if len(r.Languages) == 0 {
		return fmt.Errorf("at least one language is required")
	}
	for _, lang := range r.Languages {
		if _, ok := config.LanguageRegistry[lang]; !ok {
			return fmt.Errorf("unknown language %q", lang)
		}
	}

	if r.Schedule.Frequency == "" && len(r.Schedule.Times) == 0 {
		// Documented fallback.
		r.Schedule = ScheduleSpec{Frequency: FreqDaily, Times: []string{"09:00"}}
	}
	if !validFrequencies[r.Schedule.Frequency] {
		return fmt.Errorf("unknown schedule frequency %q", r.Schedule.Frequency)
	}
	for _, t := range r.Schedule.Times {
		if _, err := parseClock(t); err != nil {
			return fmt.Errorf("invalid schedule time %q: %w", t, err)
		}
	}
	return nil
}

// parseClock parses an HH:MM wall-clock string.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
