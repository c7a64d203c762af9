// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/telecastctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Language registry — the languages content can be generated for
// --------------------------------------------------------------------------

type LanguageConfig struct {
	Code string
	Name string
}

var LanguageRegistry = map[string]LanguageConfig{
	"en": {Code: "en", Name: "English"},
	"am": {Code: "am", Name: "Amharic"},
	"sw": {Code: "sw", Name: "Swahili"},
}

// --------------------------------------------------------------------------
// Content types — every kind of content the generators can produce
// --------------------------------------------------------------------------

const (
	ContentNews       = "news"
	ContentBettingTip = "betting_tip"
	ContentPoll       = "poll"
	ContentAnalysis   = "analysis"
	ContentSummary    = "summary"
	ContentCoupon     = "coupon"
	ContentLiveUpdate = "live_update"
)

// KnownContentTypes is the validation set for rule and template content types.
var KnownContentTypes = map[string]bool{
	ContentNews:       true,
	ContentBettingTip: true,
	ContentPoll:       true,
	ContentAnalysis:   true,
	ContentSummary:    true,
	ContentCoupon:     true,
	ContentLiveUpdate: true,
}

// --------------------------------------------------------------------------
// Table names — single source of truth, matches the migrations
// --------------------------------------------------------------------------

const (
	AutomationRulesTable  = "automation_rules"
	ScheduleEntriesTable  = "schedule_entries"
	PushQueueTable        = "push_queue"
	AutomationLogsTable   = "automation_logs"
	DeliveryRecordsTable  = "delivery_records"
	PendingApprovalsTable = "pending_approvals"
	ChannelsTable         = "channels"
	MatchesTable          = "matches"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cron endpoint auth: either a bearer token match against CronSecret or
	// the trusted-caller header set by the platform scheduler.
	CronSecret        string
	TrustedCronCaller string

	// Collaborator APIs
	GeneratorBaseURL   string
	GeneratorAPIKey    string
	DistributorBaseURL string
	DistributorAPIKey  string
	CollaboratorTO     time.Duration

	// Ticker intervals
	MinuteTickInterval    time.Duration
	HourlyTickInterval    time.Duration
	DiscoveryTickInterval time.Duration
	TickerAutoStart       bool

	// Scheduling
	DueLookback time.Duration

	// Smart push
	PushLocalTZ string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("TELECAST_DATABASE_URL", envOr("DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("TELECAST_DATABASE_URL or DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CronSecret:        envOr("CRON_SECRET", ""),
		TrustedCronCaller: envOr("TRUSTED_CRON_CALLER", "platform-scheduler"),

		GeneratorBaseURL:   envOr("GENERATOR_BASE_URL", ""),
		GeneratorAPIKey:    envOr("GENERATOR_API_KEY", ""),
		DistributorBaseURL: envOr("DISTRIBUTOR_BASE_URL", ""),
		DistributorAPIKey:  envOr("DISTRIBUTOR_API_KEY", ""),
		CollaboratorTO:     time.Duration(envInt("COLLABORATOR_TIMEOUT_SECONDS", 30)) * time.Second,

		MinuteTickInterval:    time.Duration(envInt("MINUTE_TICK_SECONDS", 60)) * time.Second,
		HourlyTickInterval:    time.Duration(envInt("HOURLY_TICK_MINUTES", 60)) * time.Minute,
		DiscoveryTickInterval: time.Duration(envInt("DISCOVERY_TICK_MINUTES", 360)) * time.Minute,
		TickerAutoStart:       envBool("TICKER_AUTO_START", true),

		DueLookback: time.Duration(envInt("DUE_LOOKBACK_MINUTES", 5)) * time.Minute,

		PushLocalTZ: envOr("PUSH_LOCAL_TZ", "UTC"),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
