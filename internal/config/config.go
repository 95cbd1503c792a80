// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Media    MediaConfig    `mapstructure:"media"`
	Paging   PagingConfig   `mapstructure:"paging"`
	Session  SessionConfig  `mapstructure:"session"`
}

// BotConfig holds Telegram bot configuration. When WebhookURL is set
// the bot registers for push delivery; otherwise it long-polls.
type BotConfig struct {
	Token       string `mapstructure:"token"`
	WebhookURL  string `mapstructure:"webhook_url"`
	ListenAddr  string `mapstructure:"listen_addr"`
	PollTimeout int    `mapstructure:"poll_timeout_seconds"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds the distinguished super-admin handle. Further
// admins live in the database allow-list.
type AdminConfig struct {
	Handle string `mapstructure:"handle"`
}

// MediaConfig holds the animation pools sent with submission verdicts.
// When a pool has more than one entry the pick is uniform random.
type MediaConfig struct {
	CorrectGIFs []string `mapstructure:"correct_gifs"`
	WrongGIFs   []string `mapstructure:"wrong_gifs"`
}

// PagingConfig holds page sizes for the paginated report views.
type PagingConfig struct {
	LeaderboardPageSize int `mapstructure:"leaderboard_page_size"`
	ReportPageSize      int `mapstructure:"report_page_size"`
}

// SessionConfig holds conversation-state housekeeping settings.
// A TTL of 0 disables expiry of abandoned flows.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the given directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, ADMIN_HANDLE, DATABASE_HOST.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.listen_addr", ":5000")
	v.SetDefault("bot.poll_timeout_seconds", 10)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ctfbot")
	v.SetDefault("database.name", "ctfbot")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("media.correct_gifs", []string{"https://tenor.com/bCCX9.gif"})
	v.SetDefault("media.wrong_gifs", []string{"https://tenor.com/Agkx.gif"})

	v.SetDefault("paging.leaderboard_page_size", 10)
	v.SetDefault("paging.report_page_size", 20)

	v.SetDefault("session.ttl", "1h")
}
