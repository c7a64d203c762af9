// Command telecastctl is the Telecast operational CLI.
//
// Usage:
//
//	telecastctl migrate
//	telecastctl tick minute
//	telecastctl tick hourly
//	telecastctl tick discover
//	telecastctl queue process
//	telecastctl cleanup
//	telecastctl schedule compile --match 42
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scorewire/telecast/internal/automation"
	"github.com/scorewire/telecast/internal/config"
	"github.com/scorewire/telecast/internal/db"
	"github.com/scorewire/telecast/internal/directory"
	"github.com/scorewire/telecast/internal/distribution"
	"github.com/scorewire/telecast/internal/generator"
	"github.com/scorewire/telecast/internal/reaper"
	"github.com/scorewire/telecast/internal/schedule"
	"github.com/scorewire/telecast/internal/seed"
	"github.com/scorewire/telecast/internal/smartpush"
	"github.com/scorewire/telecast/internal/ticker"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "telecastctl",
		Short: "Telecast scheduling operations CLI",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(tickCmd())
	root.AddCommand(queueCmd())
	root.AddCommand(cleanupCmd())
	root.AddCommand(scheduleCmd())
	root.AddCommand(seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			version, dirty, err := db.Migrate(cfg.DatabaseURL)
			if err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					logger.Info("Schema already up to date", "version", version)
					return nil
				}
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("Migrations applied", "version", version, "dirty", dirty)
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// tick command
// --------------------------------------------------------------------------

func tickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run one tick of the scheduling pipeline",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "minute",
		Short: "Execute due schedule entries and due automation rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPipeline(func(ctx context.Context, p *ticker.Pipeline) error {
				summary, err := p.Minute(ctx)
				if err != nil {
					return err
				}
				logger.Info("Minute tick finished",
					"schedule", summary.Schedule.Summary(),
					"automation", summary.Automation.Summary())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "hourly",
		Short: "Process the push queue and run log cleanup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPipeline(func(ctx context.Context, p *ticker.Pipeline) error {
				summary, err := p.Hourly(ctx)
				if err != nil {
					return err
				}
				logger.Info("Hourly tick finished",
					"queue", summary.Queue.Summary(),
					"deleted_stale", summary.Cleanup.DeletedStale,
					"deleted_duplicates", summary.Cleanup.DeletedDuplicates)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "discover",
		Short: "Compile schedules for unscheduled important matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPipeline(func(ctx context.Context, p *ticker.Pipeline) error {
				summary, err := p.Discovery(ctx)
				if err != nil {
					return err
				}
				logger.Info("Discovery tick finished",
					"matches_found", summary.MatchesFound,
					"compiled", summary.Compiled,
					"entries_created", summary.EntriesCreated)
				for _, e := range summary.Errors {
					logger.Error("discovery error", "error", e)
				}
				return nil
			})
		},
	})

	return cmd
}

// --------------------------------------------------------------------------
// queue command
// --------------------------------------------------------------------------

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Smart-push queue operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "process",
		Short: "Deliver all due delayed follow-up items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, deps *deps) error {
				start := time.Now()
				result, err := deps.push.ProcessQueue(ctx)
				if err != nil {
					return err
				}
				logger.Info("Queue processing finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				return nil
			})
		},
	})

	return cmd
}

// --------------------------------------------------------------------------
// cleanup command
// --------------------------------------------------------------------------

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stale execution logs and collapse duplicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, deps *deps) error {
				result, err := deps.reaper.Cleanup(ctx)
				if err != nil {
					return err
				}
				logger.Info("Cleanup finished",
					"deleted_stale", result.DeletedStale,
					"deleted_duplicates", result.DeletedDuplicates)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// schedule command
// --------------------------------------------------------------------------

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule compilation operations",
	}
	cmd.AddCommand(scheduleCompileCmd())
	return cmd
}

func scheduleCompileCmd() *cobra.Command {
	var matchID int64
	var template string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile and persist the content schedule for one match",
		RunE: func(cmd *cobra.Command, args []string) error {
			if matchID == 0 {
				return fmt.Errorf("--match is required")
			}
			return run(func(ctx context.Context, deps *deps) error {
				match, err := directory.MatchByID(ctx, deps.pool.Pool, matchID)
				if err != nil {
					return err
				}

				channels, err := directory.ActiveChannels(ctx, deps.pool.Pool, "")
				if err != nil {
					return err
				}
				byLanguage := make(map[string][]int64)
				for _, ch := range channels {
					byLanguage[ch.Language] = append(byLanguage[ch.Language], ch.ID)
				}
				languages := make([]string, 0, len(byLanguage))
				for lang := range byLanguage {
					languages = append(languages, lang)
				}

				entries := deps.compiler.Compile(match, languages, byLanguage, template)
				if len(entries) == 0 {
					logger.Info("Nothing to schedule",
						"match_id", matchID, "importance", match.ImportanceScore)
					return nil
				}
				if err := deps.entries.InsertBatch(ctx, entries); err != nil {
					return fmt.Errorf("persist schedule: %w", err)
				}
				logger.Info("Schedule compiled",
					"match_id", matchID,
					"home", match.HomeTeam, "away", match.AwayTeam,
					"entries", len(entries))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&matchID, "match", 0, "Match ID to compile")
	cmd.Flags().StringVar(&template, "template", "", "Timing template override (empty = resolve by importance)")
	return cmd
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Install default data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rules",
		Short: "Install the default automation rule set (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, deps *deps) error {
				result := seed.DefaultRules(ctx, deps.pool.Pool, logger)
				logger.Info("Rule seed finished", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("seed error", "error", e)
				}
				return nil
			})
		},
	})

	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// deps bundles the wired scheduling components for one-shot commands.
type deps struct {
	cfg      *config.Config
	pool     *db.Pool
	push     *smartpush.Engine
	reaper   *reaper.Reaper
	compiler *schedule.Compiler
	entries  *schedule.Store
	pipeline *ticker.Pipeline
}

// run handles config loading, DB connection, component wiring, and context
// cancellation.
func run(fn func(ctx context.Context, deps *deps) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	d, err := build(cfg, pool)
	if err != nil {
		return err
	}
	return fn(ctx, d)
}

func runWithPipeline(fn func(ctx context.Context, p *ticker.Pipeline) error) error {
	return run(func(ctx context.Context, deps *deps) error {
		return fn(ctx, deps.pipeline)
	})
}

// build wires the scheduling components the same way cmd/api does.
func build(cfg *config.Config, pool *db.Pool) (*deps, error) {
	gen := generator.NewClient(cfg.GeneratorBaseURL, cfg.GeneratorAPIKey, cfg.CollaboratorTO)
	sender := distribution.NewClient(cfg.DistributorBaseURL, cfg.DistributorAPIKey, cfg.CollaboratorTO)

	loc, err := time.LoadLocation(cfg.PushLocalTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid PUSH_LOCAL_TZ %q: %w", cfg.PushLocalTZ, err)
	}

	scheduleStore := schedule.NewStore(pool.Pool)
	ruleStore := automation.NewStore(pool.Pool)
	queueStore := smartpush.NewStore(pool.Pool)
	logStore := reaper.NewStore(pool.Pool)

	push := smartpush.NewEngine(queueStore, gen, sender, nil, nil, loc, logger)
	runner := schedule.NewRunner(scheduleStore, gen, sender, push, cfg.DueLookback, logger)
	engine := automation.NewEngine(ruleStore, ruleStore, ruleStore, gen, sender, nil, nil, 0, logger)
	rpr := reaper.New(logStore, nil, logger)
	compiler := schedule.NewCompiler(nil, nil)

	pipeline := ticker.NewPipeline(pool.Pool, runner, engine, push, rpr, compiler, scheduleStore, logger)

	return &deps{
		cfg:      cfg,
		pool:     pool,
		push:     push,
		reaper:   rpr,
		compiler: compiler,
		entries:  scheduleStore,
		pipeline: pipeline,
	}, nil
}
