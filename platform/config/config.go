// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// StoreConfig selects and configures the lead store adapter.
type StoreConfig interface {
	GetLeadStoreKind() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetLeadStoreRowCap() int
	GetLeadStoreTimeout() time.Duration
}

// OutreachConfig provides the engine tunables.
type OutreachConfig interface {
	GetDailyEngageLimit() int
	GetEngageInterval() time.Duration
	GetDMInterval() time.Duration
	GetLocation() *time.Location
}

// AuthConfig provides operator unlock and token settings.
type AuthConfig interface {
	GetOperatorPINHash() string
	GetJWTAccessSecret() string
	GetSessionTTL() time.Duration
	GetSessionIdleTimeout() time.Duration
	GetUnlockRatePerMinute() int
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// SchedulerConfig provides Redis and asynq settings for background work.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// DraftingConfig provides settings for DM draft generation.
type DraftingConfig interface {
	GetDraftsAPIKey() string
	GetDraftsBaseURL() string
	GetDraftsModel() string
	GetDraftsSweepInterval() time.Duration
	GetDraftsBatchLimit() int
	GetDraftsConcurrency() int
	GetDraftsRequestsPerMinute() int
	IsDraftingEnabled() bool
}

// ExportConfig provides settings for MinIO S3-compatible export storage.
type ExportConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOBucketExports() string
	IsMinIOEnabled() bool
}

// SentryConfig provides error tracking settings.
type SentryConfig interface {
	GetSentryDSN() string
	GetSentryRelease() string
	GetEnv() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Lead store kinds.
const (
	LeadStorePostgREST = "postgrest"
	LeadStorePostgres  = "postgres"
)

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool
	RateLimitRPS   float64
	RateLimitBurst int

	LeadStoreKind    string
	SupabaseURL      string
	SupabaseKey      string
	LeadStoreRowCap  int
	LeadStoreTimeout time.Duration
	DatabaseURL      string

	DailyEngageLimit int
	EngageInterval   time.Duration
	DMInterval       time.Duration
	Location         *time.Location

	OperatorPINHash     string
	JWTAccessSecret     string
	SessionTTL          time.Duration
	SessionIdleTimeout  time.Duration
	UnlockRatePerMinute int

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	DraftsAPIKey            string
	DraftsBaseURL           string
	DraftsModel             string
	DraftsSweepInterval     time.Duration
	DraftsBatchLimit        int
	DraftsConcurrency       int
	DraftsRequestsPerMinute int

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketExports string

	SentryDSN     string
	SentryRelease string
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetEnv() string { return c.Env }

// DatabaseConfig
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// StoreConfig
func (c *Config) GetLeadStoreKind() string           { return c.LeadStoreKind }
func (c *Config) GetSupabaseURL() string             { return c.SupabaseURL }
func (c *Config) GetSupabaseKey() string             { return c.SupabaseKey }
func (c *Config) GetLeadStoreRowCap() int            { return c.LeadStoreRowCap }
func (c *Config) GetLeadStoreTimeout() time.Duration { return c.LeadStoreTimeout }

// OutreachConfig
func (c *Config) GetDailyEngageLimit() int         { return c.DailyEngageLimit }
func (c *Config) GetEngageInterval() time.Duration { return c.EngageInterval }
func (c *Config) GetDMInterval() time.Duration     { return c.DMInterval }
func (c *Config) GetLocation() *time.Location      { return c.Location }

// AuthConfig
func (c *Config) GetOperatorPINHash() string           { return c.OperatorPINHash }
func (c *Config) GetJWTAccessSecret() string           { return c.JWTAccessSecret }
func (c *Config) GetSessionTTL() time.Duration         { return c.SessionTTL }
func (c *Config) GetSessionIdleTimeout() time.Duration { return c.SessionIdleTimeout }
func (c *Config) GetUnlockRatePerMinute() int          { return c.UnlockRatePerMinute }

// HTTPConfig
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// SchedulerConfig
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// DraftingConfig
func (c *Config) GetDraftsAPIKey() string               { return c.DraftsAPIKey }
func (c *Config) GetDraftsBaseURL() string              { return c.DraftsBaseURL }
func (c *Config) GetDraftsModel() string                { return c.DraftsModel }
func (c *Config) GetDraftsSweepInterval() time.Duration { return c.DraftsSweepInterval }
func (c *Config) GetDraftsBatchLimit() int              { return c.DraftsBatchLimit }
func (c *Config) GetDraftsConcurrency() int             { return c.DraftsConcurrency }
func (c *Config) GetDraftsRequestsPerMinute() int       { return c.DraftsRequestsPerMinute }
func (c *Config) IsDraftingEnabled() bool               { return c.DraftsAPIKey != "" }

// ExportConfig
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOBucketExports() string { return c.MinIOBucketExports }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// SentryConfig
func (c *Config) GetSentryDSN() string     { return c.SentryDSN }
func (c *Config) GetSentryRelease() string { return c.SentryRelease }

// Load reads configuration from the environment (and .env when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")
	defaultStore := LeadStorePostgres
	if supabaseURL != "" {
		defaultStore = LeadStorePostgREST
	}

	location, err := loadLocation(getEnv("OUTREACH_TIMEZONE", "Local"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDS", "true"), "true"),
		RateLimitRPS:            mustFloat(getEnv("RATE_LIMIT_RPS", "10")),
		RateLimitBurst:          mustInt(getEnv("RATE_LIMIT_BURST", "20")),
		LeadStoreKind:           strings.ToLower(getEnv("LEAD_STORE", defaultStore)),
		SupabaseURL:             supabaseURL,
		SupabaseKey:             getEnv("SUPABASE_KEY", ""),
		LeadStoreRowCap:         mustInt(getEnv("LEAD_STORE_ROW_CAP", "1000")),
		LeadStoreTimeout:        mustDuration(getEnv("LEAD_STORE_TIMEOUT", "10s")),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		DailyEngageLimit:        mustInt(getEnv("OUTREACH_DAILY_ENGAGE_LIMIT", "20")),
		EngageInterval:          mustDuration(getEnv("OUTREACH_ENGAGE_INTERVAL", "5s")),
		DMInterval:              mustDuration(getEnv("OUTREACH_DM_INTERVAL", "20s")),
		Location:                location,
		OperatorPINHash:         getEnv("OPERATOR_PIN_HASH", ""),
		JWTAccessSecret:         getEnv("JWT_ACCESS_SECRET", ""),
		SessionTTL:              mustDuration(getEnv("SESSION_TTL", "12h")),
		SessionIdleTimeout:      mustDuration(getEnv("SESSION_IDLE_TIMEOUT", "2h")),
		UnlockRatePerMinute:     mustInt(getEnv("UNLOCK_RATE_LIMIT_PER_MINUTE", "5")),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:        strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:        mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		DraftsAPIKey:            getEnv("DRAFTS_API_KEY", ""),
		DraftsBaseURL:           strings.TrimRight(getEnv("DRAFTS_BASE_URL", "https://api.openai.com/v1"), "/"),
		DraftsModel:             getEnv("DRAFTS_MODEL", "gpt-4o-mini"),
		DraftsSweepInterval:     mustDuration(getEnv("DRAFTS_SWEEP_INTERVAL", "1h")),
		DraftsBatchLimit:        mustInt(getEnv("DRAFTS_BATCH_LIMIT", "20")),
		DraftsConcurrency:       mustInt(getEnv("DRAFTS_CONCURRENCY", "5")),
		DraftsRequestsPerMinute: mustInt(getEnv("DRAFTS_REQUESTS_PER_MINUTE", "60")),
		MinIOEndpoint:           getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:             strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucketExports:      getEnv("MINIO_BUCKET_EXPORTS", "outreach-exports"),
		SentryDSN:               getEnv("SENTRY_DSN", ""),
		SentryRelease:           getEnv("SENTRY_RELEASE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LeadStoreKind {
	case LeadStorePostgREST:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required when LEAD_STORE=%s", LeadStorePostgREST)
		}
	case LeadStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when LEAD_STORE=%s", LeadStorePostgres)
		}
	default:
		return fmt.Errorf("LEAD_STORE must be %q or %q, got %q", LeadStorePostgREST, LeadStorePostgres, c.LeadStoreKind)
	}
	if c.DailyEngageLimit < 0 {
		return fmt.Errorf("OUTREACH_DAILY_ENGAGE_LIMIT must not be negative")
	}
	if c.EngageInterval <= 0 || c.DMInterval <= 0 {
		return fmt.Errorf("OUTREACH_ENGAGE_INTERVAL and OUTREACH_DM_INTERVAL must be positive durations")
	}
	if c.LeadStoreRowCap <= 0 {
		return fmt.Errorf("LEAD_STORE_ROW_CAP must be positive")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

// RequireAuth checks the settings only the API process needs.
func (c *Config) RequireAuth() error {
	if c.OperatorPINHash == "" || c.JWTAccessSecret == "" {
		return fmt.Errorf("OPERATOR_PIN_HASH and JWT_ACCESS_SECRET are required")
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("OUTREACH_TIMEZONE: %w", err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
