// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Umar7799/course-project/internal/access"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
	"your-super-secret-jwt-key-change-me",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath      string        `env:"FORMS_DB_PATH" envDefault:"./data/forms.db"`
	JWTSecret   string        `env:"FORMS_JWT_SECRET,required"`
	JWTTTL      time.Duration `env:"FORMS_JWT_TTL" envDefault:"24h"`
	ServerHost  string        `env:"FORMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort  int           `env:"FORMS_SERVER_PORT" envDefault:"8080"`
	Env         string        `env:"FORMS_ENV" envDefault:"development"`
	LogLevel    string        `env:"FORMS_LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string      `env:"FORMS_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	FrontendURL string        `env:"FORMS_FRONTEND_URL" envDefault:"http://localhost:5173"`

	// Cache configuration
	RedisURL     string        `env:"FORMS_REDIS_URL"`                         // Optional Redis URL for a shared cache
	CachePrefix  string        `env:"FORMS_CACHE_PREFIX" envDefault:"forms:"`  // Redis key prefix
	CacheTTL     time.Duration `env:"FORMS_CACHE_TTL" envDefault:"5m"`         // Lifetime of cached listings
	CacheMaxSize int           `env:"FORMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Admin override policy
	AdminOverridesAnswers bool `env:"FORMS_ADMIN_OVERRIDES_ANSWERS" envDefault:"false"`
	AdminOverridesSharing bool `env:"FORMS_ADMIN_OVERRIDES_SHARING" envDefault:"false"`

	// Salesforce configuration
	SalesforceClientID     string `env:"FORMS_SALESFORCE_CLIENT_ID"`
	SalesforceClientSecret string `env:"FORMS_SALESFORCE_CLIENT_SECRET"`
	SalesforceRedirectURL  string `env:"FORMS_SALESFORCE_REDIRECT_URL"`
	SalesforceLoginURL     string `env:"FORMS_SALESFORCE_LOGIN_URL" envDefault:"https://login.salesforce.com"`
	SalesforceAPIVersion   string `env:"FORMS_SALESFORCE_API_VERSION" envDefault:"v60.0"`

	// Background jobs
	EventRetentionDays int           `env:"FORMS_EVENT_RETENTION_DAYS" envDefault:"90"`
	CRMRefreshWindow   time.Duration `env:"FORMS_CRM_REFRESH_WINDOW" envDefault:"15m"` // Refresh Salesforce tokens expiring within this window

	// API rate limit per client IP
	RateLimitRPS   float64 `env:"FORMS_RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"FORMS_RATE_LIMIT_BURST" envDefault:"40"`

	// Seeding configuration
	DoSeed            bool   `env:"FORMS_DO_SEED" envDefault:"false"`
	SeedAdminEmail    string `env:"FORMS_SEED_ADMIN_EMAIL" envDefault:"admin@example.com"`
	SeedAdminPassword string `env:"FORMS_SEED_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// SalesforceEnabled returns true if the Salesforce integration is configured.
func (c Config) SalesforceEnabled() bool {
	return c.SalesforceClientID != "" && c.SalesforceClientSecret != "" && c.SalesforceRedirectURL != ""
}

// AccessPolicy returns the admin override policy of the access pipeline.
func (c Config) AccessPolicy() access.Policy {
	return access.Policy{
		AdminOverridesAnswers: c.AdminOverridesAnswers,
		AdminOverridesSharing: c.AdminOverridesSharing,
	}
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// MinJWTSecretLength is the minimum required length for the token signing secret.
// HS256 keys should be at least as long as the hash output.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("FORMS_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("FORMS_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("FORMS_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("FORMS_JWT_TTL must be positive, got %s", cfg.JWTTTL)
	}

	if cfg.DoSeed && cfg.SeedAdminPassword == "" {
		return nil, fmt.Errorf("FORMS_SEED_ADMIN_PASSWORD is required when FORMS_DO_SEED is set")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
