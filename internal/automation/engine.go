package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scorewire/telecast/internal/distribution"
	"github.com/scorewire/telecast/internal/generator"
)

// RuleStore is the slice of the store the engine reads and updates rules
// through. *Store satisfies it; tests use an in-memory fake.
type RuleStore interface {
	EnabledRules(ctx context.Context) ([]Rule, error)
	UpdateRunResult(ctx context.Context, id int64, success bool, ranAt time.Time) error
}

// LogStore records execution log rows.
type LogStore interface {
	InsertPendingLog(ctx context.Context, runID uuid.UUID, ruleName, contentType string, scheduledTime time.Time) (int64, error)
	CompleteLog(ctx context.Context, id int64, status string, executedAt time.Time, duration time.Duration, langsSucceeded, channelsUpdated int, errDetail string) error
}

// ApprovalStore queues manual-approval content.
type ApprovalStore interface {
	InsertApproval(ctx context.Context, ruleID int64, language, contentType string, content *generator.Content, confidence float64) error
}

// Engine evaluates enabled rules every tick. Per-rule state machine:
// idle → due → running → {succeeded, failed}. All errors are caught at the
// per-rule boundary so one bad rule never blocks the tick's remaining rules.
type Engine struct {
	rules       RuleStore
	logs        LogStore
	approvals   ApprovalStore
	gen         generator.Generator
	sender      distribution.Sender
	rng         *rand.Rand
	now         func() time.Time
	granularity time.Duration
	logger      *slog.Logger
}

// NewEngine creates an engine. rng and now may be nil for production
// defaults; granularity <= 0 uses one minute.
func NewEngine(
	rules RuleStore,
	logs LogStore,
	approvals ApprovalStore,
	gen generator.Generator,
	sender distribution.Sender,
	rng *rand.Rand,
	now func() time.Time,
	granularity time.Duration,
	logger *slog.Logger,
) *Engine {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if now == nil {
		now = time.Now
	}
	if granularity <= 0 {
		granularity = defaultTickGranularity
	}
	return &Engine{
		rules:       rules,
		logs:        logs,
		approvals:   approvals,
		gen:         gen,
		sender:      sender,
		rng:         rng,
		now:         now,
		granularity: granularity,
		logger:      logger,
	}
}

// Tick evaluates all enabled rules once. A store read failure is fatal to
// the tick; everything below the per-rule boundary is isolated.
func (e *Engine) Tick(ctx context.Context) (TickResult, error) {
	start := time.Now()
	now := e.now()
	var result TickResult

	rules, err := e.rules.EnabledRules(ctx)
	if err != nil {
		return result, fmt.Errorf("read enabled rules: %w", err)
	}
	result.RulesEvaluated = len(rules)

	for _, rule := range rules {
		slot, due := e.due(&rule, now)
		if !due {
			continue
		}
		result.RulesDue++

		if e.runRule(ctx, &rule, slot, now) {
			result.RulesSucceeded++
		} else {
			result.RulesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("rule %q failed", rule.Name))
		}
	}

	result.Duration = time.Since(start)
	if result.RulesDue > 0 {
		e.logger.Info("Automation tick complete", "summary", result.Summary())
	}
	return result, nil
}

// due decides whether a rule fires this tick and returns the nominal slot
// time the firing is attributed to.
func (e *Engine) due(rule *Rule, now time.Time) (time.Time, bool) {
	switch rule.AutomationType {
	case TypeScheduled:
		return e.scheduledSlot(rule, now)
	case TypeContinuous:
		// Expected-frequency firing instead of a fixed period.
		if e.rng.Float64() > continuousFireThreshold {
			return now, true
		}
		return time.Time{}, false
	case TypeEventDriven, TypeContextAware:
		// Always eligible; content availability decides during execution.
		return now, true
	}
	return time.Time{}, false
}

// scheduledSlot finds a schedule time matching now within the tick
// granularity that the rule has not already run for.
func (e *Engine) scheduledSlot(rule *Rule, now time.Time) (time.Time, bool) {
	if rule.Schedule.Frequency == FreqWeekly && len(rule.Schedule.Days) > 0 {
		if !containsDay(rule.Schedule.Days, now.Weekday()) {
			return time.Time{}, false
		}
	}

	for _, clock := range rule.Schedule.Times {
		offset, err := parseClock(clock)
		if err != nil {
			continue // validated at creation; defensive against legacy rows
		}
		slot := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(offset)

		diff := now.Sub(slot)
		if diff < 0 {
			diff = -diff
		}
		if diff > e.granularity {
			continue
		}
		// Already ran for this slot?
		if rule.LastRun != nil && !rule.LastRun.Before(slot.Add(-e.granularity)) {
			continue
		}
		return slot, true
	}
	return time.Time{}, false
}

func containsDay(days []string, day time.Weekday) bool {
	name := strings.ToLower(day.String())
	for _, d := range days {
		if strings.ToLower(d) == name || strings.ToLower(d) == name[:3] {
			return true
		}
	}
	return false
}

// runRule executes one due rule: generate per language, then distribute or
// queue for approval. Returns true when the run succeeded. Only a
// total-zero-success run is a rule failure.
func (e *Engine) runRule(ctx context.Context, rule *Rule, slot, now time.Time) (succeeded bool) {
	runID := uuid.New()
	start := time.Now()

	logID, logErr := e.logs.InsertPendingLog(ctx, runID, rule.Name, rule.ContentType, slot)
	if logErr != nil {
		e.logger.Warn("Failed to insert execution log", "rule", rule.Name, "error", logErr)
	}

	defer func() {
		// Per-rule boundary: a panic in a collaborator marks the rule failed
		// instead of killing the tick.
		if r := recover(); r != nil {
			e.logger.Error("Rule execution panicked", "rule", rule.Name, "panic", r)
			succeeded = false
			e.finishRule(ctx, rule, logID, false, now, time.Since(start), 0, 0, fmt.Sprintf("panic: %v", r))
		}
	}()

	type generated struct {
		language string
		content  *generator.Content
	}
	var successes []generated
	var partialErrors []string

	for _, lang := range rule.Languages {
		channelID := int64(0)
		if len(rule.Channels) > 0 {
			channelID = rule.Channels[0]
		}
		content, err := e.gen.Generate(ctx, rule.ContentType, lang, channelID, generator.Options{})
		if err != nil {
			// One language failing does not abort the others.
			e.logger.Warn("Generation failed", "rule", rule.Name, "language", lang, "error", err)
			partialErrors = append(partialErrors, fmt.Sprintf("%s: %s", lang, err))
			continue
		}
		successes = append(successes, generated{language: lang, content: content})
	}

	if len(successes) == 0 {
		e.finishRule(ctx, rule, logID, false, now, time.Since(start), 0, 0, "no content generated")
		return false
	}

	channelsUpdated := 0
	switch rule.ExecutionMode {
	case ModeManualApproval:
		for _, g := range successes {
			if err := e.approvals.InsertApproval(ctx, rule.ID, g.language, rule.ContentType, g.content, g.content.AIConfidence()); err != nil {
				e.logger.Warn("Failed to queue approval", "rule", rule.Name, "language", g.language, "error", err)
				partialErrors = append(partialErrors, fmt.Sprintf("approval %s: %s", g.language, err))
			}
		}
	default: // full_auto
		for _, g := range successes {
			res, err := e.sender.Send(ctx, g.content, g.language, rule.Channels, distribution.ModeAuto)
			if err != nil {
				e.logger.Warn("Distribution failed", "rule", rule.Name, "language", g.language, "error", err)
				partialErrors = append(partialErrors, fmt.Sprintf("send %s: %s", g.language, err))
				continue
			}
			channelsUpdated += res.ChannelsSent
		}
	}

	e.finishRule(ctx, rule, logID, true, now, time.Since(start), len(successes), channelsUpdated, strings.Join(partialErrors, "; "))
	return true
}

// finishRule updates counters/last_run and finalizes the execution log.
func (e *Engine) finishRule(ctx context.Context, rule *Rule, logID int64, success bool, now time.Time, duration time.Duration, langsSucceeded, channelsUpdated int, errDetail string) {
	if err := e.rules.UpdateRunResult(ctx, rule.ID, success, now); err != nil {
		e.logger.Warn("Failed to update rule counters", "rule", rule.Name, "error", err)
	}

	status := LogCompleted
	if !success {
		status = LogFailed
	}
	if logID != 0 {
		if err := e.logs.CompleteLog(ctx, logID, status, now, duration, langsSucceeded, channelsUpdated, errDetail); err != nil {
			e.logger.Warn("Failed to complete execution log", "rule", rule.Name, "error", err)
		}
	}
}
