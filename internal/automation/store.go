package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scorewire/telecast/internal/generator"
)

// Store is the pgx-backed rule, log, and approval store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over the shared pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --------------------------------------------------------------------------
// Rules
// --------------------------------------------------------------------------

// Insert persists a validated rule and returns its id.
func (s *Store) Insert(ctx context.Context, r *Rule) (int64, error) {
	scheduleJSON, err := json.Marshal(r.Schedule)
	if err != nil {
		return 0, fmt.Errorf("marshal schedule: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO automation_rules (
			name, enabled, execution_mode, automation_type, content_type,
			schedule, languages, channels
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		r.Name, r.Enabled, r.ExecutionMode, r.AutomationType, r.ContentType,
		scheduleJSON, r.Languages, r.Channels,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert rule %q: %w", r.Name, err)
	}
	return id, nil
}

// EnabledRules returns all enabled rules in id order.
func (s *Store) EnabledRules(ctx context.Context) ([]Rule, error) {
	rows, err := s.pool.Query(ctx, "enabled_rules")
	if err != nil {
		return nil, fmt.Errorf("enabled rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var r Rule
		var scheduleJSON []byte
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Enabled, &r.ExecutionMode, &r.AutomationType,
			&r.ContentType, &scheduleJSON, &r.Languages, &r.Channels,
			&r.LastRun, &r.SuccessCount, &r.ErrorCount,
		); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if err := json.Unmarshal(scheduleJSON, &r.Schedule); err != nil {
			return nil, fmt.Errorf("unmarshal schedule for rule %q: %w", r.Name, err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// UpdateRunResult records the outcome of one rule execution. A failed run
// bumps the error counter but leaves last_run untouched so the slot stays
// eligible for the next tick.
func (s *Store) UpdateRunResult(ctx context.Context, id int64, success bool, ranAt time.Time) error {
	var err error
	if success {
		_, err = s.pool.Exec(ctx, `
			UPDATE automation_rules
			SET last_run = $2, success_count = success_count + 1, updated_at = NOW()
			WHERE id = $1`, id, ranAt)
	} else {
		_, err = s.pool.Exec(ctx, `
			UPDATE automation_rules
			SET error_count = error_count + 1, updated_at = NOW()
			WHERE id = $1`, id)
	}
	if err != nil {
		return fmt.Errorf("update run result for rule %d: %w", id, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Execution logs
// --------------------------------------------------------------------------

// InsertPendingLog writes the in-flight execution row for a due rule. The
// row is completed after the run; rows left pending by a crash are reaped.
func (s *Store) InsertPendingLog(ctx context.Context, runID uuid.UUID, ruleName, contentType string, scheduledTime time.Time) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO automation_logs (run_id, rule_name, content_type, status, scheduled_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		runID, ruleName, contentType, LogPending, scheduledTime,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert pending log for %q: %w", ruleName, err)
	}
	return id, nil
}

// CompleteLog finalizes an execution log row.
func (s *Store) CompleteLog(ctx context.Context, id int64, status string, executedAt time.Time, duration time.Duration, langsSucceeded, channelsUpdated int, errDetail string) error {
	var detail interface{}
	if errDetail != "" {
		detail = errDetail
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE automation_logs
		SET status = $2, executed_at = $3, duration_ms = $4,
		    languages_succeeded = $5, channels_updated = $6, error_detail = $7
		WHERE id = $1`,
		id, status, executedAt, duration.Milliseconds(), langsSucceeded, channelsUpdated, detail)
	if err != nil {
		return fmt.Errorf("complete log %d: %w", id, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Pending approvals
// --------------------------------------------------------------------------

// InsertApproval queues one generated content item for manual approval.
func (s *Store) InsertApproval(ctx context.Context, ruleID int64, language, contentType string, content *generator.Content, confidence float64) error {
	var imageURL interface{}
	if content.ImageURL != "" {
		imageURL = content.ImageURL
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pending_approvals (rule_id, language, content_type, title, content, image_url, ai_confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ruleID, language, contentType, content.Title, content.Body, imageURL, confidence)
	if err != nil {
		return fmt.Errorf("insert approval for rule %d: %w", ruleID, err)
	}
	return nil
}
