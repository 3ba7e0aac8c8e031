package config

import (
	"time"

	"github.com/spf13/viper"
)

// StoreBackend selects the persistence engine behind the library.
type StoreBackend string

const (
	StoreBackendPebble StoreBackend = "pebble" // embedded key-value store (default)
	StoreBackendSQLite StoreBackend = "sqlite" // single-file SQL database
)

type (
	Config struct {
		HTTP
		Store
		AI
		Tasks
		Backfill
		Session
		Covers
		Audit
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Store struct {
		Backend        StoreBackend
		Path           string
		MaxRecordBytes int // per-record quota; 0 disables the cap
	}
	AI struct {
		BaseURL string
		APIKey  string
		Timeout time.Duration
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		MaxRetries      int
		RetryDelay      time.Duration
		TaskTimeout     time.Duration
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Backfill struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = nightly
	}
	Session struct {
		Enabled       bool
		Secret        string // CSRF secret; auto-generated if empty
		Lifetime      time.Duration
		SecureCookies bool // Set to false for local dev without HTTPS
	}
	Covers struct {
		CacheDir string
	}
	Audit struct {
		Dir           string
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("store_backend", string(StoreBackendPebble))
	v.SetDefault("store_path", DefaultStorePath)
	v.SetDefault("store_max_record_bytes", DefaultMaxRecordBytes)

	v.SetDefault("ai_base_url", "")
	v.SetDefault("ai_api_key", "")
	v.SetDefault("ai_timeout", "60s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Backfill defaults
	v.SetDefault("backfill_enabled", false)
	v.SetDefault("backfill_schedule", "0 3 * * *") // Nightly at 03:00

	// Session defaults
	v.SetDefault("session_enabled", true)
	v.SetDefault("session_secret", "") // Auto-generated if empty
	v.SetDefault("session_lifetime", "720h")
	v.SetDefault("secure_cookies", false)

	v.SetDefault("covers_cache_dir", "./covers-cache")

	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 30)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Store: Store{
			Backend:        StoreBackend(v.GetString("STORE_BACKEND")),
			Path:           v.GetString("STORE_PATH"),
			MaxRecordBytes: v.GetInt("STORE_MAX_RECORD_BYTES"),
		},
		AI: AI{
			BaseURL: v.GetString("AI_BASE_URL"),
			APIKey:  v.GetString("AI_API_KEY"),
			Timeout: v.GetDuration("AI_TIMEOUT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			MaxRetries:      v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:      v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:     v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Backfill: Backfill{
			Enabled:  v.GetBool("BACKFILL_ENABLED"),
			Schedule: v.GetString("BACKFILL_SCHEDULE"),
		},
		Session: Session{
			Enabled:       v.GetBool("SESSION_ENABLED"),
			Secret:        v.GetString("SESSION_SECRET"),
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			SecureCookies: v.GetBool("SECURE_COOKIES"),
		},
		Covers: Covers{
			CacheDir: v.GetString("COVERS_CACHE_DIR"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
