package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	AppEnv    string
	Port      string
	LogLevel  string
	LogFormat string

	// DataDir is where feature-area documents are stored when no
	// database is configured.
	DataDir string
	// DatabaseURL switches persistence to Postgres when set.
	DatabaseURL string
	// RedisURL enables cross-instance play/stop fan-out when set.
	RedisURL string

	TwitchClientID     string
	TwitchClientSecret string
	BroadcasterUserID  string
	BotUserID          string

	// EventRateLimit caps trigger-event ingestion per source per second.
	EventRateLimit float64
	EventRateBurst int

	// Layers are the overlay layers to run schedulers for.
	Layers []string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		DataDir:            getEnv("DATA_DIR", "data"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		TwitchClientID:     getEnv("TWITCH_CLIENT_ID", ""),
		TwitchClientSecret: getEnv("TWITCH_CLIENT_SECRET", ""),
		BroadcasterUserID:  getEnv("BROADCASTER_USER_ID", ""),
		BotUserID:          getEnv("BOT_USER_ID", ""),
		EventRateBurst:     10,
		EventRateLimit:     20,
		Layers:             []string{"base"},
	}

	if raw := getEnv("EVENT_RATE_LIMIT", ""); raw != "" {
		limit, err := strconv.ParseFloat(raw, 64)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("EVENT_RATE_LIMIT must be a positive number, got %q", raw)
		}
		cfg.EventRateLimit = limit
	}

	if raw := getEnv("EVENT_RATE_BURST", ""); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil || burst <= 0 {
			return nil, fmt.Errorf("EVENT_RATE_BURST must be a positive integer, got %q", raw)
		}
		cfg.EventRateBurst = burst
	}

	// Twitch credentials: all or nothing. Without them follower checks
	// and chat responses are disabled, the trigger core still runs.
	if cfg.TwitchClientID != "" || cfg.TwitchClientSecret != "" {
		if cfg.TwitchClientID == "" {
			return nil, fmt.Errorf("TWITCH_CLIENT_ID is required when TWITCH_CLIENT_SECRET is set")
		}
		if cfg.TwitchClientSecret == "" {
			return nil, fmt.Errorf("TWITCH_CLIENT_SECRET is required when TWITCH_CLIENT_ID is set")
		}
		if cfg.BroadcasterUserID == "" {
			return nil, fmt.Errorf("BROADCASTER_USER_ID is required when Twitch credentials are set")
		}
	}

	return cfg, nil
}

// TwitchEnabled reports whether the platform collaborator is configured.
func (c *Config) TwitchEnabled() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
