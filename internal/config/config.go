package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Review   ReviewConfig   `mapstructure:"review" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port               int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel           string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// Per-user request budget enforced by the rate limiting middleware.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" validate:"gte=0"`
}

// Supported persistence drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig selects and locates the persistence backend. URL is a
// connection string for postgres and a file path for sqlite.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite memory"`
	URL    string `mapstructure:"url" validate:"required_unless=Driver memory"`
}

// AuthConfig contains the settings used to sign and verify bearer tokens.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
}

// CacheConfig enables the redis catalog cache when URL is set.
type CacheConfig struct {
	URL string        `mapstructure:"url" validate:"omitempty,url"`
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// ReviewConfig tunes the review schedule and question selection.
type ReviewConfig struct {
	IntervalDays            []int         `mapstructure:"interval_days" validate:"required,min=1,dive,gte=0"`
	CorrectGain             int           `mapstructure:"correct_gain" validate:"gt=0,lte=100"`
	IncorrectPenalty        int           `mapstructure:"incorrect_penalty" validate:"gt=0,lte=100"`
	RetryDelay              time.Duration `mapstructure:"retry_delay" validate:"gt=0"`
	FallbackProficiency     int           `mapstructure:"fallback_proficiency" validate:"gt=0,lte=100"`
	VariantAttemptThreshold int           `mapstructure:"variant_attempt_threshold" validate:"gte=0"`
	TopTags                 int           `mapstructure:"top_tags" validate:"gt=0"`
}
