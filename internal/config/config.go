package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the notion-guardian CLI.
type Config struct {
	Token    string       `yaml:"token"`
	UserID   string       `yaml:"user_id"`
	SpaceID  string       `yaml:"space_id"`
	BaseURL  string       `yaml:"base_url"`
	Dest     string       `yaml:"dest"`
	Export   ExportConfig `yaml:"export"`
	Poll     PollConfig   `yaml:"poll"`
	Mirror   MirrorConfig `yaml:"mirror"`
	Progress bool         `yaml:"progress"`
	Log      LogConfig    `yaml:"log"`
}

// ExportConfig selects what the service exports and how.
type ExportConfig struct {
	Type            string `yaml:"type"` // markdown or html
	Locale          string `yaml:"locale"`
	TimeZone        string `yaml:"time_zone"`
	CurrentViewOnly bool   `yaml:"current_view_only"`
	IncludeComments bool   `yaml:"include_comments"`
}

// PollConfig defines polling behavior.
type PollConfig struct {
	Interval       time.Duration `yaml:"interval"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// MirrorConfig defines the optional object-storage mirror. An empty
// bucket URL disables mirroring.
type MirrorConfig struct {
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Workers int    `yaml:"workers"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		BaseURL: "https://www.notion.so",
		Dest:    "workspace-export",
		Export: ExportConfig{
			Type:     "markdown",
			Locale:   "en",
			TimeZone: "UTC",
		},
		Poll: PollConfig{
			Interval:       2 * time.Second,
			MaxAttempts:    120,
			RequestTimeout: 30 * time.Second,
		},
		Mirror: MirrorConfig{
			Prefix:  "workspace",
			Workers: 8,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	Token    string           `yaml:"token"`
	UserID   string           `yaml:"user_id"`
	SpaceID  string           `yaml:"space_id"`
	BaseURL  string           `yaml:"base_url"`
	Dest     string           `yaml:"dest"`
	Export   ExportConfig     `yaml:"export"`
	Poll     yamlPollConfig   `yaml:"poll"`
	Mirror   MirrorConfig     `yaml:"mirror"`
	Progress bool             `yaml:"progress"`
	Log      LogConfig        `yaml:"log"`
}

type yamlPollConfig struct {
	Interval       string `yaml:"interval"`
	MaxAttempts    int    `yaml:"max_attempts"`
	RequestTimeout string `yaml:"request_timeout"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Token != "" {
		cfg.Token = yc.Token
	}
	if yc.UserID != "" {
		cfg.UserID = yc.UserID
	}
	if yc.SpaceID != "" {
		cfg.SpaceID = yc.SpaceID
	}
	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.Dest != "" {
		cfg.Dest = yc.Dest
	}
	if yc.Export.Type != "" {
		cfg.Export.Type = yc.Export.Type
	}
	if yc.Export.Locale != "" {
		cfg.Export.Locale = yc.Export.Locale
	}
	if yc.Export.TimeZone != "" {
		cfg.Export.TimeZone = yc.Export.TimeZone
	}
	cfg.Export.CurrentViewOnly = yc.Export.CurrentViewOnly
	cfg.Export.IncludeComments = yc.Export.IncludeComments
	if yc.Poll.Interval != "" {
		d, err := time.ParseDuration(yc.Poll.Interval)
		if err != nil {
			return Config{}, fmt.Errorf("parse poll.interval: %w", err)
		}
		cfg.Poll.Interval = d
	}
	if yc.Poll.MaxAttempts != 0 {
		cfg.Poll.MaxAttempts = yc.Poll.MaxAttempts
	}
	if yc.Poll.RequestTimeout != "" {
		d, err := time.ParseDuration(yc.Poll.RequestTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse poll.request_timeout: %w", err)
		}
		cfg.Poll.RequestTimeout = d
	}
	if yc.Mirror.Bucket != "" {
		cfg.Mirror.Bucket = yc.Mirror.Bucket
	}
	if yc.Mirror.Prefix != "" {
		cfg.Mirror.Prefix = yc.Mirror.Prefix
	}
	if yc.Mirror.Workers != 0 {
		cfg.Mirror.Workers = yc.Mirror.Workers
	}
	cfg.Progress = yc.Progress
	if yc.Log.Level != "" {
		cfg.Log.Level = yc.Log.Level
	}
	if yc.Log.Format != "" {
		cfg.Log.Format = yc.Log.Format
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables. Credentials
// are also accepted via the NOTION_TOKEN, NOTION_SPACE_ID and
// NOTION_USER_ID variables; GUARDIAN_-prefixed variables win over them.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("NOTION_SPACE_ID"); v != "" {
		c.SpaceID = v
	}
	if v := os.Getenv("NOTION_USER_ID"); v != "" {
		c.UserID = v
	}

	if v := os.Getenv("GUARDIAN_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("GUARDIAN_USER_ID"); v != "" {
		c.UserID = v
	}
	if v := os.Getenv("GUARDIAN_SPACE_ID"); v != "" {
		c.SpaceID = v
	}
	if v := os.Getenv("GUARDIAN_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("GUARDIAN_DEST"); v != "" {
		c.Dest = v
	}
	if v := os.Getenv("GUARDIAN_EXPORT_TYPE"); v != "" {
		c.Export.Type = v
	}
	if v := os.Getenv("GUARDIAN_LOCALE"); v != "" {
		c.Export.Locale = v
	}
	if v := os.Getenv("GUARDIAN_TIME_ZONE"); v != "" {
		c.Export.TimeZone = v
	}
	if v := os.Getenv("GUARDIAN_CURRENT_VIEW_ONLY"); v != "" {
		c.Export.CurrentViewOnly = v == "true" || v == "1"
	}
	if v := os.Getenv("GUARDIAN_INCLUDE_COMMENTS"); v != "" {
		c.Export.IncludeComments = v == "true" || v == "1"
	}
	if v := os.Getenv("GUARDIAN_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse GUARDIAN_POLL_INTERVAL: %w", err)
		}
		c.Poll.Interval = d
	}
	if v := os.Getenv("GUARDIAN_POLL_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GUARDIAN_POLL_MAX_ATTEMPTS: %w", err)
		}
		c.Poll.MaxAttempts = n
	}
	if v := os.Getenv("GUARDIAN_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse GUARDIAN_REQUEST_TIMEOUT: %w", err)
		}
		c.Poll.RequestTimeout = d
	}
	if v := os.Getenv("GUARDIAN_MIRROR_BUCKET"); v != "" {
		c.Mirror.Bucket = v
	}
	if v := os.Getenv("GUARDIAN_MIRROR_PREFIX"); v != "" {
		c.Mirror.Prefix = v
	}
	if v := os.Getenv("GUARDIAN_MIRROR_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GUARDIAN_MIRROR_WORKERS: %w", err)
		}
		c.Mirror.Workers = n
	}
	if v := os.Getenv("GUARDIAN_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("GUARDIAN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GUARDIAN_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("config: token is required")
	}
	if c.SpaceID == "" {
		return errors.New("config: space_id is required")
	}
	if c.UserID == "" {
		return errors.New("config: user_id is required")
	}
	if c.Dest == "" {
		return errors.New("config: dest is required")
	}
	if c.Export.Type != "markdown" && c.Export.Type != "html" {
		return fmt.Errorf("config: unknown export type %q", c.Export.Type)
	}
	if c.Poll.Interval <= 0 {
		return errors.New("config: poll.interval must be positive")
	}
	if c.Poll.MaxAttempts <= 0 {
		return errors.New("config: poll.max_attempts must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Token != "" {
		c.Token = override.Token
	}
	if override.UserID != "" {
		c.UserID = override.UserID
	}
	if override.SpaceID != "" {
		c.SpaceID = override.SpaceID
	}
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.Dest != "" {
		c.Dest = override.Dest
	}
	if override.Export.Type != "" {
		c.Export.Type = override.Export.Type
	}
	if override.Export.Locale != "" {
		c.Export.Locale = override.Export.Locale
	}
	if override.Export.TimeZone != "" {
		c.Export.TimeZone = override.Export.TimeZone
	}
	if override.Export.CurrentViewOnly {
		c.Export.CurrentViewOnly = true
	}
	if override.Export.IncludeComments {
		c.Export.IncludeComments = true
	}
	if override.Poll.Interval != 0 {
		c.Poll.Interval = override.Poll.Interval
	}
	if override.Poll.MaxAttempts != 0 {
		c.Poll.MaxAttempts = override.Poll.MaxAttempts
	}
	if override.Poll.RequestTimeout != 0 {
		c.Poll.RequestTimeout = override.Poll.RequestTimeout
	}
	if override.Mirror.Bucket != "" {
		c.Mirror.Bucket = override.Mirror.Bucket
	}
	if override.Mirror.Prefix != "" {
		c.Mirror.Prefix = override.Mirror.Prefix
	}
	if override.Mirror.Workers != 0 {
		c.Mirror.Workers = override.Mirror.Workers
	}
	if override.Progress {
		c.Progress = true
	}
	if override.Log.Level != "" {
		c.Log.Level = override.Log.Level
	}
	if override.Log.Format != "" {
		c.Log.Format = override.Log.Format
	}
	return c
}
