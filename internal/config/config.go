package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// RemoteMode selects the remote store the sync queue replays against.
type RemoteMode string

const (
	RemoteNone   RemoteMode = "none"   // Queue mutations, never deliver (default)
	RemoteMemory RemoteMode = "memory" // In-process store for development
)

type (
	Config struct {
		HTTP
		Global
		Database
		Cache
		Sync
		Encryption
		Connectivity
		Export
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path  string
		Debug bool
	}
	Cache struct {
		PriceTTL      time.Duration
		WeatherTTL    time.Duration
		PriceMaxAge   time.Duration
		SweepSchedule string // Cron format or descriptor: "@hourly"
	}
	Sync struct {
		Remote            RemoteMode
		ReconcileInterval time.Duration
		MaxRetries        int // 0 retries forever
		ReplayTimeout     time.Duration
	}
	Encryption struct {
		Iterations int // PBKDF2 rounds, never below 100000
	}
	Connectivity struct {
		ProbeURL      string // Empty: status only comes from POST /api/connectivity
		ProbeInterval time.Duration
		ProbeTimeout  time.Duration
		AssumeOnline  bool
	}
	Export struct {
		Dir string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

// LoadDotEnv loads variables from a .env file if one exists. Variables that
// are already set win.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("http_port", 8288)
	v.SetDefault("http_host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_debug", false)

	// Cache policy defaults
	v.SetDefault("price_cache_ttl", "24h")
	v.SetDefault("weather_cache_ttl", "3h")
	v.SetDefault("price_cache_max_age", "24h")
	v.SetDefault("cache_sweep_schedule", "@hourly")

	// Sync defaults
	v.SetDefault("sync_remote", string(RemoteNone))
	v.SetDefault("sync_reconcile_interval", "30s")
	v.SetDefault("sync_max_retries", 10)
	v.SetDefault("sync_replay_timeout", "30s")

	v.SetDefault("encryption_iterations", MinEncryptionIterations)

	// Connectivity defaults
	v.SetDefault("connectivity_probe_url", "")
	v.SetDefault("connectivity_probe_interval", "15s")
	v.SetDefault("connectivity_probe_timeout", "5s")
	v.SetDefault("connectivity_assume_online", false)

	v.SetDefault("export_dir", DefaultExportDir)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "10m")
	v.SetDefault("task_cleanup_interval", "1h")

	iterations := v.GetInt("ENCRYPTION_ITERATIONS")
	if iterations < MinEncryptionIterations {
		log.Printf("ENCRYPTION_ITERATIONS=%d is below the minimum, using %d", iterations, MinEncryptionIterations)
		iterations = MinEncryptionIterations
	}

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("HTTP_PORT"),
			Host: v.GetString("HTTP_HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:  v.GetString("DATABASE_PATH"),
			Debug: v.GetBool("DATABASE_DEBUG"),
		},
		Cache: Cache{
			PriceTTL:      v.GetDuration("PRICE_CACHE_TTL"),
			WeatherTTL:    v.GetDuration("WEATHER_CACHE_TTL"),
			PriceMaxAge:   v.GetDuration("PRICE_CACHE_MAX_AGE"),
			SweepSchedule: v.GetString("CACHE_SWEEP_SCHEDULE"),
		},
		Sync: Sync{
			Remote:            RemoteMode(strings.ToLower(v.GetString("SYNC_REMOTE"))),
			ReconcileInterval: v.GetDuration("SYNC_RECONCILE_INTERVAL"),
			MaxRetries:        v.GetInt("SYNC_MAX_RETRIES"),
			ReplayTimeout:     v.GetDuration("SYNC_REPLAY_TIMEOUT"),
		},
		Encryption: Encryption{
			Iterations: iterations,
		},
		Connectivity: Connectivity{
			ProbeURL:      v.GetString("CONNECTIVITY_PROBE_URL"),
			ProbeInterval: v.GetDuration("CONNECTIVITY_PROBE_INTERVAL"),
			ProbeTimeout:  v.GetDuration("CONNECTIVITY_PROBE_TIMEOUT"),
			AssumeOnline:  v.GetBool("CONNECTIVITY_ASSUME_ONLINE"),
		},
		Export: Export{
			Dir: v.GetString("EXPORT_DIR"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}
