package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	TelegramToken string        `mapstructure:"telegram_token"`
	AllowedChatID int64         `mapstructure:"allowed_chat_id"`
	Store         string        `mapstructure:"store"`
	DatabaseURL   string        `mapstructure:"database_url"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	LogLevel      string        `mapstructure:"log_level"`
	TickInterval  time.Duration `mapstructure:"tick_interval"`
	EventWindow   int           `mapstructure:"event_window"`
}

// Load reads defaults, then the optional config file, then TRACKER_* environment
// variables. An explicit path must exist; the default locations may be empty.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tracker")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tracker"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram_token", "")
	v.SetDefault("allowed_chat_id", 0)
	v.SetDefault("store", StoreSQLite)
	v.SetDefault("database_url", defaultDatabaseURL())
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "tracker:")
	v.SetDefault("log_level", "info")
	v.SetDefault("tick_interval", time.Second)
	v.SetDefault("event_window", 14)
}

func defaultDatabaseURL() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tracker.db"
	}
	return filepath.Join(home, ".config", "tracker", "tracker.db")
}

// Validate checks settings every command needs.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.TickInterval < time.Second {
		return fmt.Errorf("tick_interval must be at least 1s, got %s", c.TickInterval)
	}
	if c.EventWindow <= 0 {
		return fmt.Errorf("event_window must be positive, got %d", c.EventWindow)
	}
	return nil
}

// RequireTelegram reports whether the bot can start.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TRACKER_TELEGRAM_TOKEN is required")
	}
	return nil
}
