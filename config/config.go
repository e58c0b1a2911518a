// Package config loads and validates application configuration from
// environment variables. Every knob has a sensible default so a bare
// `go run ./cmd/server` against a local Postgres works out of the box.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the deployment environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	CheckIn       CheckInConfig
	Notifier      NotifierConfig
	Scheduler     SchedulerConfig
	Features      *FeatureFlags
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Timezone the studio operates in. Schedules, civil dates, and the
	// daily report boundary all follow this zone.
	Timezone string
	Location *time.Location

	// ShutdownTimeout is the grace period for in-flight requests on stop.
	ShutdownTimeout time.Duration
}

// ServerConfig holds the kiosk HTTP server settings.
type ServerConfig struct {
	Host string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	EnableCORS     bool
	AllowedOrigins []string

	// RateLimitPerMinute is the coarse per-IP request budget.
	RateLimitPerMinute int

	// AdminAPIKeys guard the owner endpoints. Empty leaves them open,
	// which is only acceptable in development.
	AdminAPIKeys []string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL takes precedence when set. Otherwise the DSN is composed from
	// the individual DB_* variables.
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MinIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	QueryTimeout time.Duration
	LogQueries   bool
}

// DSN returns the connection string, composing one from parts when no URL
// was given.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// URL takes precedence when set.
	URL string

	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Disabled turns off Redis entirely. Caching and distributed
	// rate limiting degrade to no-ops.
	Disabled bool
}

// Addr returns the host:port pair for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CheckInConfig holds the check-in transaction settings.
type CheckInConfig struct {
	// IsolatedHistoryReads moves the streak history read inside the
	// check-in transaction. Off by default.
	IsolatedHistoryReads bool

	// HistoryLimit is how many prior visits the streak read fetches.
	// Zero keeps the application default.
	HistoryLimit int

	// LookupRateLimitPerMinute throttles the phone-digit lookup per
	// kiosk device.
	LookupRateLimitPerMinute int
}

// NotifierConfig selects and tunes the outbound notification channel.
type NotifierConfig struct {
	// Channel is one of "kakao", "sms", "push", or "log".
	Channel string

	// BreakerEnabled wraps the channel in a circuit breaker.
	BreakerEnabled bool
}

// SchedulerConfig holds background job settings for the worker.
type SchedulerConfig struct {
	Enabled bool

	// ExpirySweepHour/Minute schedule the membership-expiry reminder,
	// default 13:00 studio time.
	ExpirySweepHour   int
	ExpirySweepMinute int

	// DailyReportHour/Minute schedule the owner's operations report,
	// default 23:00 studio time.
	DailyReportHour   int
	DailyReportMinute int

	JobTimeout        time.Duration
	MaxConcurrentJobs int
}

// ObservabilityConfig holds logging and monitoring settings.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadAppConfig(); err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	cfg.loadServerConfig()
	cfg.loadDatabaseConfig()
	cfg.loadRedisConfig()
	cfg.loadCheckInConfig()
	cfg.loadNotifierConfig()
	cfg.loadSchedulerConfig()
	cfg.loadObservabilityConfig()
	cfg.Features = LoadFeatureFlags()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadAppConfig() error {
	c.App = AppConfig{
		Name:            getEnv("APP_NAME", "boksaem-kiosk"),
		Environment:     Environment(getEnv("APP_ENV", string(EnvDevelopment))),
		Debug:           getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "dev"),
		Timezone:        getEnv("APP_TIMEZONE", "Asia/Seoul"),
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}
	c.App.Location = loc

	return nil
}

func (c *Config) loadServerConfig() {
	c.Server = ServerConfig{
		Host:               getEnv("SERVER_HOST", "0.0.0.0"),
		Port:               getEnvInt("SERVER_PORT", 8080),
		ReadTimeout:        getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		EnableCORS:         getEnvBool("SERVER_ENABLE_CORS", true),
		AllowedOrigins:     getEnvStringSlice("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("SERVER_RATE_LIMIT_PER_MINUTE", 120),
		AdminAPIKeys:       getEnvStringSlice("SERVER_ADMIN_API_KEYS", nil),
	}
}

func (c *Config) loadDatabaseConfig() {
	c.Database = DatabaseConfig{
		URL:             getEnv("DATABASE_URL", ""),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "boksaem"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "boksaem"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MinIdleConns:    getEnvInt("DB_MIN_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
		QueryTimeout:    getEnvDuration("DB_QUERY_TIMEOUT", 30*time.Second),
		LogQueries:      getEnvBool("DB_LOG_QUERIES", false),
	}
}

func (c *Config) loadRedisConfig() {
	c.Redis = RedisConfig{
		URL:          getEnv("REDIS_URL", ""),
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func (c *Config) loadCheckInConfig() {
	c.CheckIn = CheckInConfig{
		IsolatedHistoryReads:     getEnvBool("CHECKIN_ISOLATED_READS", false),
		HistoryLimit:             getEnvInt("CHECKIN_HISTORY_LIMIT", 0),
		LookupRateLimitPerMinute: getEnvInt("LOOKUP_RATE_LIMIT_PER_MINUTE", 10),
	}
}

func (c *Config) loadNotifierConfig() {
	c.Notifier = NotifierConfig{
		Channel:        getEnv("NOTIFIER_CHANNEL", "log"),
		BreakerEnabled: getEnvBool("NOTIFIER_BREAKER_ENABLED", true),
	}
}

func (c *Config) loadSchedulerConfig() {
	c.Scheduler = SchedulerConfig{
		Enabled:           getEnvBool("SCHEDULER_ENABLED", true),
		ExpirySweepHour:   getEnvInt("EXPIRY_SWEEP_HOUR", 13),
		ExpirySweepMinute: getEnvInt("EXPIRY_SWEEP_MINUTE", 0),
		DailyReportHour:   getEnvInt("DAILY_REPORT_HOUR", 23),
		DailyReportMinute: getEnvInt("DAILY_REPORT_MINUTE", 0),
		JobTimeout:        getEnvDuration("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
		MaxConcurrentJobs: getEnvInt("SCHEDULER_MAX_CONCURRENT_JOBS", 3),
	}
}

func (c *Config) loadObservabilityConfig() {
	c.Observability = ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	switch c.App.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Sprintf("unknown environment: %s", c.App.Environment))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid server port: %d", c.Server.Port))
	}

	if c.Database.URL == "" && c.Database.Name == "" {
		errs = append(errs, "database name is required when DATABASE_URL is not set")
	}

	switch c.Notifier.Channel {
	case "kakao", "sms", "push", "log":
	default:
		errs = append(errs, fmt.Sprintf("unknown notifier channel: %s", c.Notifier.Channel))
	}

	if h := c.Scheduler.ExpirySweepHour; h < 0 || h > 23 {
		errs = append(errs, fmt.Sprintf("invalid expiry sweep hour: %d", h))
	}
	if h := c.Scheduler.DailyReportHour; h < 0 || h > 23 {
		errs = append(errs, fmt.Sprintf("invalid daily report hour: %d", h))
	}

	if c.IsProduction() && len(c.Server.AdminAPIKeys) == 0 {
		errs = append(errs, "admin API keys are required in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsDevelopment returns true in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true in the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// ─────────────────────────────────────────────────────────────────────────────
// Environment helpers
// ─────────────────────────────────────────────────────────────────────────────

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvStringSlice(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
