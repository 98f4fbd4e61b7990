package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                 string
	AppEnv                  string
	AppPort                 string
	DatabaseURL             string
	RedisURL                string
	NATSURL                 string
	CodeforcesBaseURL       string
	UpstreamTimeout         time.Duration
	SyncConcurrency         int
	SyncHourUTC             int
	InactivityThresholdDays int
	StatsCacheTTL           time.Duration
	SMTPHost                string
	SMTPPort                int
	SMTPUser                string
	SMTPPassword            string
	FromEmail               string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SPMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SPMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("codeforces.base_url", "https://codeforces.com/api")
	v.SetDefault("upstream.timeout", "15s")
	v.SetDefault("sync.concurrency", 4)
	v.SetDefault("sync.hour_utc", 2)
	v.SetDefault("inactivity.threshold_days", 7)
	v.SetDefault("stats.cache_ttl", "5m")
	v.SetDefault("smtp.port", 587)

	timeout, err := time.ParseDuration(v.GetString("upstream.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid upstream timeout: %w", err)
	}

	ttl, err := time.ParseDuration(v.GetString("stats.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		DatabaseURL:             v.GetString("database.url"),
		RedisURL:                v.GetString("redis.url"),
		NATSURL:                 v.GetString("nats.url"),
		CodeforcesBaseURL:       v.GetString("codeforces.base_url"),
		UpstreamTimeout:         timeout,
		SyncConcurrency:         v.GetInt("sync.concurrency"),
		SyncHourUTC:             v.GetInt("sync.hour_utc"),
		InactivityThresholdDays: v.GetInt("inactivity.threshold_days"),
		StatsCacheTTL:           ttl,
		SMTPHost:                v.GetString("smtp.host"),
		SMTPPort:                v.GetInt("smtp.port"),
		SMTPUser:                v.GetString("smtp.user"),
		SMTPPassword:            v.GetString("smtp.password"),
		FromEmail:               v.GetString("from.email"),
	}

	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.SMTPUser
	}

	if cfg.SyncConcurrency <= 0 {
		cfg.SyncConcurrency = 4
	}

	if cfg.SyncHourUTC < 0 || cfg.SyncHourUTC > 23 {
		return Config{}, fmt.Errorf("sync hour must be between 0 and 23")
	}

	if cfg.InactivityThresholdDays <= 0 {
		cfg.InactivityThresholdDays = 7
	}

	return cfg, nil
}
