// Package db provides a pgxpool-based connection pool with prepared statement
// registration, embedded schema migrations, and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scorewire/telecast/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and scheduling
// layers use. Prepared statements eliminate parse overhead on every tick.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Directory
		"active_channels": `
			SELECT id, telegram_chat_id, name, language, is_active
			FROM channels
			WHERE is_active = true AND ($1::text IS NULL OR language = $1)
			ORDER BY id`,
		"todays_important_matches": `
			SELECT id, home_team, away_team, competition, kickoff, importance_score
			FROM matches
			WHERE kickoff >= date_trunc('day', NOW())
			  AND kickoff < date_trunc('day', NOW()) + INTERVAL '1 day'
			  AND importance_score > 0
			ORDER BY importance_score DESC, kickoff`,
		"match_by_id": `
			SELECT id, home_team, away_team, competition, kickoff, importance_score
			FROM matches WHERE id = $1`,
		"unscheduled_matches": `
			SELECT m.id, m.home_team, m.away_team, m.competition, m.kickoff, m.importance_score
			FROM matches m
			WHERE m.kickoff >= date_trunc('day', NOW())
			  AND m.kickoff < date_trunc('day', NOW()) + INTERVAL '1 day'
			  AND m.importance_score > 0
			  AND NOT EXISTS (
				SELECT 1 FROM schedule_entries se WHERE se.match_id = m.id
			  )
			ORDER BY m.importance_score DESC, m.kickoff`,

		// Schedule store
		"due_schedule_entries": `
			SELECT id, match_id, content_type, content_subtype, scheduled_for,
			       offset_minutes, jitter_minutes, priority, language,
			       target_channels, status, execution_result
			FROM schedule_entries
			WHERE status = 'pending' AND scheduled_for BETWEEN $1 AND $2
			ORDER BY priority DESC, scheduled_for`,

		// Automation rules
		"enabled_rules": `
			SELECT id, name, enabled, execution_mode, automation_type,
			       content_type, schedule, languages, channels,
			       last_run, success_count, error_count
			FROM automation_rules
			WHERE enabled = true
			ORDER BY id`,

		// Smart push
		"due_queue_items": `
			SELECT id, primary_content_id, primary_content_type, channel_ids,
			       language, scheduled_at, delay_minutes, selected_coupon_id,
			       status, context_data
			FROM push_queue
			WHERE status = 'pending' AND scheduled_at <= $1
			ORDER BY scheduled_at`,

		// Reaper
		"pending_log_rows": `
			SELECT id, rule_name, content_type, scheduled_time, created_at
			FROM automation_logs
			WHERE status = 'pending'
			ORDER BY created_at DESC`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
