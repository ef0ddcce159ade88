// Package config defines the global configuration structure for the
// platewatch pipeline. Configuration is loaded once at process
// initialization (Lambda cold start or server boot) and is immutable
// thereafter. It follows 12-Factor principles by strictly separating code
// from configuration.
//
// Values resolve from the OS environment, with a local .env file as a
// non-overriding fallback. Any missing required value or invalid format
// fails the process immediately on startup.
package config

import (
	"log/slog"
	"strings"
	"time"

	"platewatch/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret
// type used throughout configuration to prevent accidental logging of
// sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the pipeline.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"platewatch"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain configurations
	Server    ServerConfig
	Database  DatabaseConfig
	AWS       AWSConfig
	Vision    VisionConfig
	Risk      RiskConfig
	Alert     AlertConfig
	Archive   ArchiveConfig
	Watchlist WatchlistConfig
}

// ServerConfig holds ops API server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	// APIKeyHash is the bcrypt hash of the ops API key. Empty disables auth
	// (local development only).
	APIKeyHash SecretString `envconfig:"OPS_API_KEY_HASH"`
}

// DatabaseConfig holds watchlist database connection and pool tuning
// parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout  time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-2"`

	// Resource identifiers
	ImageBucket    string `envconfig:"IMAGE_BUCKET" validate:"required"`
	IncomingPrefix string `envconfig:"INCOMING_PREFIX" default:"captured/incoming/"`
	ArchivePrefix  string `envconfig:"ARCHIVE_PREFIX" default:"captured/archive/"`
	AlertQueueURL  string `envconfig:"SQS_ALERT_QUEUE" validate:"required,url"`

	// LocalStack support (empty in prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// VisionConfig holds the plate-analysis inference endpoint configuration.
type VisionConfig struct {
	BaseURL    string        `envconfig:"VISION_BASE_URL" validate:"required,url"`
	APIKey     SecretString  `envconfig:"VISION_API_KEY" validate:"required"`
	Timeout    time.Duration `envconfig:"VISION_TIMEOUT" default:"45s"`
	MaxRetries int           `envconfig:"VISION_MAX_RETRIES" default:"2"`
}

// RiskConfig holds the classifier tuning surface: named point values, the
// alert threshold, and jurisdiction adjacency. All of it is runtime
// configuration so scoring can be tuned without redeploying classifier
// logic.
type RiskConfig struct {
	FaceCoveringPoints         int `envconfig:"RISK_POINTS_FACE_COVERING" default:"30"`
	SUVPoints                  int `envconfig:"RISK_POINTS_SUV" default:"30"`
	TacticalGearPoints         int `envconfig:"RISK_POINTS_TACTICAL_GEAR" default:"100"`
	KnownSuspiciousPoints      int `envconfig:"RISK_POINTS_KNOWN_SUSPICIOUS" default:"80"`
	WatchlistMatchPoints       int `envconfig:"RISK_POINTS_WATCHLIST_MATCH" default:"100"`
	AdjacentJurisdictionPoints int `envconfig:"RISK_POINTS_ADJACENT_JURISDICTION" default:"20"`
	DistantJurisdictionPoints  int `envconfig:"RISK_POINTS_DISTANT_JURISDICTION" default:"40"`
	HeavyTintPoints            int `envconfig:"RISK_POINTS_HEAVY_TINT" default:"20"`
	MultipleOccupantsPoints    int `envconfig:"RISK_POINTS_MULTIPLE_OCCUPANTS" default:"15"`
	MissingPlatesPoints        int `envconfig:"RISK_POINTS_MISSING_PLATES" default:"50"`

	AlertThreshold int `envconfig:"RISK_ALERT_THRESHOLD" default:"50"`

	HomeJurisdiction      string   `envconfig:"RISK_HOME_JURISDICTION" validate:"required,len=2"`
	AdjacentJurisdictions []string `envconfig:"RISK_ADJACENT_JURISDICTIONS"`
}

// AlertConfig holds outbound alert delivery settings for the alert worker.
type AlertConfig struct {
	WebhookURL    string        `envconfig:"ALERT_WEBHOOK_URL" validate:"omitempty,url"`
	WebhookSecret SecretString  `envconfig:"ALERT_WEBHOOK_SECRET"`
	UserAgent     string        `envconfig:"ALERT_USER_AGENT" default:"Platewatch-Alert/1.0"`
	Timeout       time.Duration `envconfig:"ALERT_TIMEOUT" default:"10s"`
	Location      string        `envconfig:"ALERT_LOCATION"` // camera site label shown in alerts
}

// ArchiveConfig holds audit-record archival settings.
type ArchiveConfig struct {
	CompressionLevel int `envconfig:"ARCHIVE_ZSTD_LEVEL" default:"3" validate:"gte=1,lte=11"`
}

// WatchlistConfig holds watchlist snapshot source settings.
type WatchlistConfig struct {
	// AllowEmpty, when true, treats a zero-entry snapshot as a valid loaded
	// state instead of a load error. Defaults to false: fail-closed on
	// misconfiguration.
	AllowEmpty bool `envconfig:"WATCHLIST_ALLOW_EMPTY" default:"false"`
}

// SlogLevel maps the configured log level string onto a slog.Level.
// Unrecognized values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
