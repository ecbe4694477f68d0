package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/prevhub/processync/internal/db"
)

// Config aggregates everything the server needs at startup.
type Config struct {
	Database db.Config
	Server   ServerConfig
	Sync     SyncConfig
	Tasks    TasksConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// SyncConfig controls batch ingestion behaviour.
type SyncConfig struct {
	Workers           int
	CredentialTimeout time.Duration
	LockTimeout       time.Duration
}

// TasksConfig configures the downstream task-creation webhook. An empty
// URL disables notification.
type TasksConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Load reads config.yaml from configPath with environment overrides
// (APP_ prefix, e.g. APP_DATABASE_HOST). Missing files fall back to
// defaults so a bare environment still boots.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Sync: SyncConfig{
			Workers:           4,
			CredentialTimeout: 5 * time.Second,
			LockTimeout:       10 * time.Second,
		},
		Tasks: TasksConfig{
			Timeout: 5 * time.Second,
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	// Config keys are dotted; environment variables use underscores
	// (database.host -> APP_DATABASE_HOST).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("sync.workers")
	v.BindEnv("tasks.webhook_url")

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus env vars are enough.
		_ = err
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("sync.workers") {
		cfg.Sync.Workers = v.GetInt("sync.workers")
	}
	if v.IsSet("sync.credential_timeout") {
		cfg.Sync.CredentialTimeout = v.GetDuration("sync.credential_timeout")
	}
	if v.IsSet("sync.lock_timeout") {
		cfg.Sync.LockTimeout = v.GetDuration("sync.lock_timeout")
	}
	if v.IsSet("tasks.webhook_url") {
		cfg.Tasks.WebhookURL = v.GetString("tasks.webhook_url")
	}
	if v.IsSet("tasks.timeout") {
		cfg.Tasks.Timeout = v.GetDuration("tasks.timeout")
	}

	if cfg.Sync.Workers < 1 {
		cfg.Sync.Workers = 1
	}

	return cfg, nil
}
