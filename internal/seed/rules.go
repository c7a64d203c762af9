// Package seed installs the default automation rule set into a fresh
// deployment. Seeding is idempotent: rules are keyed by name and existing
// rows are never overwritten, so operator edits survive re-seeding.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scorewire/telecast/internal/automation"
	"github.com/scorewire/telecast/internal/config"
)

// defaultRules is the rule set a new deployment starts with.
func defaultRules() []automation.Rule {
	allLangs := []string{"en", "am", "sw"}
	return []automation.Rule{
		{
			Name:           "morning-news-digest",
			Enabled:        true,
			ExecutionMode:  automation.ModeFullAuto,
			AutomationType: automation.TypeScheduled,
			ContentType:    config.ContentNews,
			Schedule:       automation.ScheduleSpec{Frequency: automation.FreqDaily, Times: []string{"08:00"}},
			Languages:      allLangs,
		},
		{
			Name:           "evening-betting-tips",
			Enabled:        true,
			ExecutionMode:  automation.ModeFullAuto,
			AutomationType: automation.TypeScheduled,
			ContentType:    config.ContentBettingTip,
			Schedule:       automation.ScheduleSpec{Frequency: automation.FreqDaily, Times: []string{"18:00"}},
			Languages:      allLangs,
		},
		{
			Name:           "weekend-fan-poll",
			Enabled:        true,
			ExecutionMode:  automation.ModeFullAuto,
			AutomationType: automation.TypeScheduled,
			ContentType:    config.ContentPoll,
			Schedule: automation.ScheduleSpec{
				Frequency: automation.FreqWeekly,
				Times:     []string{"12:00"},
				Days:      []string{"sat", "sun"},
			},
			Languages: allLangs,
		},
		{
			Name:           "weekly-deep-analysis",
			Enabled:        true,
			ExecutionMode:  automation.ModeManualApproval,
			AutomationType: automation.TypeScheduled,
			ContentType:    config.ContentAnalysis,
			Schedule: automation.ScheduleSpec{
				Frequency: automation.FreqWeekly,
				Times:     []string{"10:00"},
				Days:      []string{"monday"},
			},
			Languages: []string{"en"},
		},
		{
			Name:           "ambient-live-updates",
			Enabled:        false, // opt-in; noisy outside match days
			ExecutionMode:  automation.ModeFullAuto,
			AutomationType: automation.TypeContinuous,
			ContentType:    config.ContentLiveUpdate,
			Schedule:       automation.ScheduleSpec{Frequency: automation.FreqCustom, Times: []string{"00:00"}},
			Languages:      allLangs,
		},
	}
}

// Result summarizes one seeding run.
type Result struct {
	Created int
	Skipped int
	Errors  []string
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("created=%d skipped=%d errors=%d", r.Created, r.Skipped, len(r.Errors))
}

// DefaultRules inserts the default rule set, skipping rules whose name
// already exists.
func DefaultRules(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) Result {
	var result Result

	for _, rule := range defaultRules() {
		if err := automation.Validate(&rule); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", rule.Name, err))
			continue
		}

		scheduleJSON, err := json.Marshal(rule.Schedule)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: marshal schedule: %s", rule.Name, err))
			continue
		}

		tag, err := pool.Exec(ctx, `
			INSERT INTO automation_rules (
				name, enabled, execution_mode, automation_type, content_type,
				schedule, languages, channels
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (name) DO NOTHING`,
			rule.Name, rule.Enabled, rule.ExecutionMode, rule.AutomationType,
			rule.ContentType, scheduleJSON, rule.Languages, rule.Channels,
		)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", rule.Name, err))
			continue
		}
		if tag.RowsAffected() == 0 {
			result.Skipped++
			continue
		}
		result.Created++
		logger.Info("Default rule installed", "rule", rule.Name, "type", rule.AutomationType)
	}

	return result
}
