// Package ticker drives the scheduling core: a process-scoped service object
// runs the minute / hourly / discovery ticks on intervals, and the same tick
// functions are invocable on demand from the HTTP cron endpoints and the CLI.
// Constructed once at startup and injected; no module-level singletons.
package ticker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scorewire/telecast/internal/automation"
	"github.com/scorewire/telecast/internal/directory"
	"github.com/scorewire/telecast/internal/reaper"
	"github.com/scorewire/telecast/internal/schedule"
	"github.com/scorewire/telecast/internal/smartpush"
)

// MinuteSummary is the structured result of one minute tick.
type MinuteSummary struct {
	Schedule   schedule.RunResult    `json:"schedule"`
	Automation automation.TickResult `json:"automation"`
}

// HourlySummary is the structured result of one hourly tick.
type HourlySummary struct {
	Queue   smartpush.ProcessResult `json:"queue"`
	Cleanup reaper.Result           `json:"cleanup"`
}

// DiscoverySummary is the structured result of one match-discovery tick.
type DiscoverySummary struct {
	MatchesFound   int      `json:"matches_found"`
	Compiled       int      `json:"compiled"`
	EntriesCreated int      `json:"entries_created"`
	Errors         []string `json:"errors,omitempty"`
}

// Ticks is the set of tick operations the service loops over. *Pipeline
// satisfies it; lifecycle tests use a stub.
type Ticks interface {
	Minute(ctx context.Context) (MinuteSummary, error)
	Hourly(ctx context.Context) (HourlySummary, error)
	Discovery(ctx context.Context) (DiscoverySummary, error)
}

// EntryWriter persists compiled schedule entries in one batch.
type EntryWriter interface {
	InsertBatch(ctx context.Context, entries []schedule.Entry) error
}

// Pipeline wires the scheduling components into the three tick operations.
type Pipeline struct {
	pool     *pgxpool.Pool
	runner   *schedule.Runner
	engine   *automation.Engine
	push     *smartpush.Engine
	reaper   *reaper.Reaper
	compiler *schedule.Compiler
	entries  EntryWriter
	logger   *slog.Logger
}

// NewPipeline creates the tick pipeline.
func NewPipeline(
	pool *pgxpool.Pool,
	runner *schedule.Runner,
	engine *automation.Engine,
	push *smartpush.Engine,
	rpr *reaper.Reaper,
	compiler *schedule.Compiler,
	entries EntryWriter,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		pool:     pool,
		runner:   runner,
		engine:   engine,
		push:     push,
		reaper:   rpr,
		compiler: compiler,
		entries:  entries,
		logger:   logger,
	}
}

// Minute runs the due schedule entries and the automation rules. A store
// read failure on either half propagates so the invoker's alerting fires.
func (p *Pipeline) Minute(ctx context.Context) (MinuteSummary, error) {
	var summary MinuteSummary

	runRes, err := p.runner.Run(ctx, time.Now())
	if err != nil {
		return summary, fmt.Errorf("schedule tick: %w", err)
	}
	summary.Schedule = runRes

	tickRes, err := p.engine.Tick(ctx)
	if err != nil {
		return summary, fmt.Errorf("automation tick: %w", err)
	}
	summary.Automation = tickRes
	return summary, nil
}

// Hourly processes the smart-push queue and runs the cleanup pass.
func (p *Pipeline) Hourly(ctx context.Context) (HourlySummary, error) {
	var summary HourlySummary

	queueRes, err := p.push.ProcessQueue(ctx)
	if err != nil {
		return summary, fmt.Errorf("process queue: %w", err)
	}
	summary.Queue = queueRes

	cleanupRes, err := p.reaper.Cleanup(ctx)
	if err != nil {
		return summary, fmt.Errorf("cleanup: %w", err)
	}
	summary.Cleanup = cleanupRes
	return summary, nil
}

// Discovery compiles content schedules for today's important matches that
// have none yet. A failed batch write leaves the match unscheduled, so the
// next discovery tick naturally retries it.
func (p *Pipeline) Discovery(ctx context.Context) (DiscoverySummary, error) {
	var summary DiscoverySummary

	matches, err := directory.UnscheduledMatches(ctx, p.pool)
	if err != nil {
		return summary, fmt.Errorf("unscheduled matches: %w", err)
	}
	summary.MatchesFound = len(matches)
	if len(matches) == 0 {
		return summary, nil
	}

	channels, err := directory.ActiveChannels(ctx, p.pool, "")
	if err != nil {
		return summary, fmt.Errorf("active channels: %w", err)
	}

	byLanguage := make(map[string][]int64)
	for _, ch := range channels {
		byLanguage[ch.Language] = append(byLanguage[ch.Language], ch.ID)
	}
	languages := make([]string, 0, len(byLanguage))
	for lang := range byLanguage {
		languages = append(languages, lang)
	}
	if len(languages) == 0 {
		// No eligible channels is "nothing to do", not an error.
		return summary, nil
	}

	for i := range matches {
		match := &matches[i]
		entries := p.compiler.Compile(match, languages, byLanguage, "")
		if len(entries) == 0 {
			continue
		}
		if err := p.entries.InsertBatch(ctx, entries); err != nil {
			p.logger.Warn("Failed to persist schedule", "match_id", match.ID, "error", err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("match %d: %s", match.ID, err))
			continue
		}
		summary.Compiled++
		summary.EntriesCreated += len(entries)
		p.logger.Info("Schedule compiled",
			"match_id", match.ID,
			"home", match.HomeTeam, "away", match.AwayTeam,
			"entries", len(entries))
	}
	return summary, nil
}
