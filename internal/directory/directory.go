// Package directory provides read-only access to the match and channel
// tables. The scheduling core never mutates either; admin tooling owns them.
package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Channel is a Telegram distribution target.
type Channel struct {
	ID             int64
	TelegramChatID string
	Name           string
	Language       string
	IsActive       bool
}

// Match is a fixture eligible for content scheduling.
type Match struct {
	ID              int64
	HomeTeam        string
	AwayTeam        string
	Competition     string
	Kickoff         time.Time
	ImportanceScore int
}

// ActiveChannels returns active channels, optionally filtered by language.
// An empty language returns all active channels.
func ActiveChannels(ctx context.Context, pool *pgxpool.Pool, language string) ([]Channel, error) {
	var langParam interface{} = language
	if language == "" {
		langParam = nil
	}

	rows, err := pool.Query(ctx, "active_channels", langParam)
	if err != nil {
		return nil, fmt.Errorf("active channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ID, &c.TelegramChatID, &c.Name, &c.Language, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// TodaysImportantMatches returns today's matches with a positive importance
// score, most important first.
func TodaysImportantMatches(ctx context.Context, pool *pgxpool.Pool) ([]Match, error) {
	return queryMatches(ctx, pool, "todays_important_matches")
}

// UnscheduledMatches returns today's important matches that have no schedule
// entries yet. The discovery tick compiles schedules for these.
func UnscheduledMatches(ctx context.Context, pool *pgxpool.Pool) ([]Match, error) {
	return queryMatches(ctx, pool, "unscheduled_matches")
}

// MatchByID returns a single match row.
func MatchByID(ctx context.Context, pool *pgxpool.Pool, id int64) (*Match, error) {
	var m Match
	err := pool.QueryRow(ctx, "match_by_id", id).Scan(
		&m.ID, &m.HomeTeam, &m.AwayTeam, &m.Competition, &m.Kickoff, &m.ImportanceScore,
	)
	if err != nil {
		return nil, fmt.Errorf("get match %d: %w", id, err)
	}
	return &m, nil
}

func queryMatches(ctx context.Context, pool *pgxpool.Pool, stmt string) ([]Match, error) {
	rows, err := pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.HomeTeam, &m.AwayTeam, &m.Competition, &m.Kickoff, &m.ImportanceScore); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
