package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config path.
const EnvConfigPath = "JOBFEEDS_CONFIG"

// DefaultPath is used when neither the flag nor the environment names a file.
const DefaultPath = "config.yaml"

// Config is the root configuration for jobfeeds.
type Config struct {
	Database     string
	Schedule     string // cron spec, e.g. "@hourly"
	RunOnStart   bool
	SiteURL      string
	Settings     Settings
	HTTP         HTTPConfig
	Retry        RetryConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
	Lock         LockConfig
	WhatJobs     WhatJobsConfig
}

// Settings are the import settings shared by every provider.
type Settings struct {
	DescriptionMinLength int
	DeduplicationEnabled bool
}

type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// RateLimitConfig spaces requests to the same host.
type RateLimitConfig struct {
	MinDelay      time.Duration
	HostOverrides map[string]time.Duration // keyed by lower-case host name
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "none", "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// LockConfig selects the duplicate-check lock. An empty RedisURL means an
// in-process lock.
type LockConfig struct {
	RedisURL string
	TTL      time.Duration
}

type WhatJobsConfig struct {
	BaseURL string `yaml:"base_url"` // empty means the public API
}

const (
	defaultDatabase       = "jobfeeds.db"
	defaultSchedule       = "@hourly"
	defaultMinDescription = 100
	defaultUserAgent      = "JobFeedsBot/1.0"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Database     string             `yaml:"database"`
	Schedule     string             `yaml:"schedule"`
	RunOnStart   bool               `yaml:"run_on_start"`
	SiteURL      string             `yaml:"site_url"`
	Settings     rawSettings        `yaml:"settings"`
	HTTP         rawHTTPConfig      `yaml:"http"`
	Retry        rawRetryConfig     `yaml:"retry"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Notification NotificationConfig `yaml:"notification"`
	Lock         rawLockConfig      `yaml:"lock"`
	WhatJobs     WhatJobsConfig     `yaml:"whatjobs"`
}

type rawSettings struct {
	DescriptionMinLength *int  `yaml:"description_min_length"`
	DeduplicationEnabled *bool `yaml:"deduplication_enabled"`
}

type rawHTTPConfig struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawRateLimitConfig struct {
	MinDelay      string            `yaml:"min_delay"`
	HostOverrides map[string]string `yaml:"host_overrides"`
}

type rawLockConfig struct {
	RedisURL string `yaml:"redis_url"`
	TTL      string `yaml:"ttl"`
}

// ResolvePath picks the config file: the flag value, then $JOBFEEDS_CONFIG,
// then ./config.yaml. explicit reports whether the path was asked for.
func ResolvePath(flag string) (path string, explicit bool) {
	if flag != "" {
		return flag, true
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg, err := parse(rawConfig{})
	if err != nil {
		panic(err) // the zero raw config always parses
	}
	return cfg
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(raw rawConfig) (*Config, error) {
	cfg := &Config{
		Database:   orDefault(raw.Database, defaultDatabase),
		Schedule:   orDefault(raw.Schedule, defaultSchedule),
		RunOnStart: raw.RunOnStart,
		SiteURL:    strings.TrimRight(raw.SiteURL, "/"),
		Settings: Settings{
			DescriptionMinLength: defaultMinDescription,
			DeduplicationEnabled: true,
		},
		HTTP:         HTTPConfig{UserAgent: orDefault(raw.HTTP.UserAgent, defaultUserAgent)},
		Retry:        RetryConfig{MaxRetries: 3},
		Notification: raw.Notification,
		Lock:         LockConfig{RedisURL: raw.Lock.RedisURL},
		WhatJobs:     raw.WhatJobs,
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if raw.Settings.DescriptionMinLength != nil {
		cfg.Settings.DescriptionMinLength = *raw.Settings.DescriptionMinLength
	}
	if raw.Settings.DeduplicationEnabled != nil {
		cfg.Settings.DeduplicationEnabled = *raw.Settings.DeduplicationEnabled
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}

	var err error
	if cfg.HTTP.Timeout, err = durationOr(raw.HTTP.Timeout, 30*time.Second, "http.timeout"); err != nil {
		return nil, err
	}
	if cfg.Retry.BaseDelay, err = durationOr(raw.Retry.BaseDelay, 2*time.Second, "retry.base_delay"); err != nil {
		return nil, err
	}
	if cfg.RateLimit.MinDelay, err = durationOr(raw.RateLimit.MinDelay, time.Second, "rate_limit.min_delay"); err != nil {
		return nil, err
	}
	if cfg.Lock.TTL, err = durationOr(raw.Lock.TTL, 30*time.Second, "lock.ttl"); err != nil {
		return nil, err
	}

	cfg.RateLimit.HostOverrides = make(map[string]time.Duration, len(raw.RateLimit.HostOverrides))
	for host, v := range raw.RateLimit.HostOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.host_overrides[%q]: %w", host, err)
		}
		cfg.RateLimit.HostOverrides[strings.ToLower(host)] = d
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func durationOr(v string, def time.Duration, field string) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, v, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.Settings.DescriptionMinLength < 0 {
		return fmt.Errorf("settings.description_min_length must not be negative, got %d", cfg.Settings.DescriptionMinLength)
	}
	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}

	switch cfg.Notification.Type {
	case "none", "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be none, log or slack, got %q", cfg.Notification.Type)
	}

	if cfg.Lock.RedisURL != "" && cfg.Lock.TTL <= 0 {
		return fmt.Errorf("lock.ttl must be positive, got %v", cfg.Lock.TTL)
	}
	return nil
}
