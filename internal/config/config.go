package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Local staff accounts with JWT tokens
)

type (
	Config struct {
		HTTP
		Database
		Auth
		Audit
		Reports
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Auth struct {
		Mode            AuthMode
		SigningKey      string
		AccessTokenTTL  time.Duration
		RefreshTokenTTL time.Duration
		BcryptCost      int

		// Bootstrap credentials for the first admin account. Only used
		// when the user table is empty.
		AdminUsername string
		AdminPassword string
	}
	Audit struct {
		Enabled         bool
		RetentionDays   int    // Days to keep audit events (default: 90)
		CleanupSchedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Reports struct {
		Enabled  bool
		Schedule string // Cron format: "0 7 * * *" = daily at 07:00
		DueAfter time.Duration
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_signing_key", "") // Required when auth_mode=local
	v.SetDefault("auth_access_token_ttl", "15m")
	v.SetDefault("auth_refresh_token_ttl", "720h") // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_admin_username", "admin")
	v.SetDefault("auth_admin_password", "")

	// Audit defaults
	v.SetDefault("audit_enabled", true)
	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *") // Daily at 03:30

	// Lending report defaults
	v.SetDefault("reports_enabled", false)
	v.SetDefault("reports_schedule", "0 7 * * *") // Daily at 07:00
	v.SetDefault("reports_due_after", "720h")     // Loans open longer than 30 days are overdue

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			Mode:            AuthMode(v.GetString("AUTH_MODE")),
			SigningKey:      v.GetString("AUTH_SIGNING_KEY"),
			AccessTokenTTL:  v.GetDuration("AUTH_ACCESS_TOKEN_TTL"),
			RefreshTokenTTL: v.GetDuration("AUTH_REFRESH_TOKEN_TTL"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			AdminUsername:   v.GetString("AUTH_ADMIN_USERNAME"),
			AdminPassword:   v.GetString("AUTH_ADMIN_PASSWORD"),
		},
		Audit: Audit{
			Enabled:         v.GetBool("AUDIT_ENABLED"),
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Reports: Reports{
			Enabled:  v.GetBool("REPORTS_ENABLED"),
			Schedule: v.GetString("REPORTS_SCHEDULE"),
			DueAfter: v.GetDuration("REPORTS_DUE_AFTER"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
