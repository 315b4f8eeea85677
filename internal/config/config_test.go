package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://www.notion.so", cfg.BaseURL)
	assert.Equal(t, "workspace-export", cfg.Dest)
	assert.Equal(t, "markdown", cfg.Export.Type)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 120, cfg.Poll.MaxAttempts)
	assert.Equal(t, 8, cfg.Mirror.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
token: secret
space_id: space-1
user_id: user-1
dest: backups/workspace
export:
  type: html
  time_zone: Europe/Berlin
poll:
  interval: 5s
  max_attempts: 30
mirror:
  bucket: s3://guardian
  workers: 4
log:
  level: debug
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "space-1", cfg.SpaceID)
	assert.Equal(t, "user-1", cfg.UserID)
	assert.Equal(t, "backups/workspace", cfg.Dest)
	assert.Equal(t, "html", cfg.Export.Type)
	assert.Equal(t, "Europe/Berlin", cfg.Export.TimeZone)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 30, cfg.Poll.MaxAttempts)
	assert.Equal(t, "s3://guardian", cfg.Mirror.Bucket)
	assert.Equal(t, 4, cfg.Mirror.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched fields keep their defaults.
	assert.Equal(t, "https://www.notion.so", cfg.BaseURL)
	assert.Equal(t, "en", cfg.Export.Locale)
	assert.Equal(t, 30*time.Second, cfg.Poll.RequestTimeout)
}

func TestLoadFromFileBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll:\n  interval: soon\n"), 0o644))

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "poll.interval")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "from-notion")
	t.Setenv("NOTION_SPACE_ID", "space-env")
	t.Setenv("NOTION_USER_ID", "user-env")
	t.Setenv("GUARDIAN_POLL_INTERVAL", "250ms")
	t.Setenv("GUARDIAN_EXPORT_TYPE", "html")
	t.Setenv("GUARDIAN_PROGRESS", "true")
	t.Setenv("GUARDIAN_MIRROR_WORKERS", "3")

	cfg := Default()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "from-notion", cfg.Token)
	assert.Equal(t, "space-env", cfg.SpaceID)
	assert.Equal(t, "user-env", cfg.UserID)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, "html", cfg.Export.Type)
	assert.True(t, cfg.Progress)
	assert.Equal(t, 3, cfg.Mirror.Workers)
}

func TestLoadFromEnvGuardianWins(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "notion-token")
	t.Setenv("GUARDIAN_TOKEN", "guardian-token")

	cfg := Default()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, "guardian-token", cfg.Token)
}

func TestLoadFromEnvBadValue(t *testing.T) {
	t.Setenv("GUARDIAN_POLL_MAX_ATTEMPTS", "many")

	cfg := Default()
	assert.ErrorContains(t, cfg.LoadFromEnv(), "GUARDIAN_POLL_MAX_ATTEMPTS")
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Token = "tok"
	valid.SpaceID = "space"
	valid.UserID = "user"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing token", func(c *Config) { c.Token = "" }, "token is required"},
		{"missing space", func(c *Config) { c.SpaceID = "" }, "space_id is required"},
		{"missing user", func(c *Config) { c.UserID = "" }, "user_id is required"},
		{"missing dest", func(c *Config) { c.Dest = "" }, "dest is required"},
		{"bad export type", func(c *Config) { c.Export.Type = "pdf" }, "unknown export type"},
		{"zero interval", func(c *Config) { c.Poll.Interval = 0 }, "interval must be positive"},
		{"zero attempts", func(c *Config) { c.Poll.MaxAttempts = 0 }, "max_attempts must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	base.Token = "base-token"
	base.Dest = "base-dest"

	merged := base.Merge(Config{
		Dest:     "override-dest",
		Progress: true,
		Poll:     PollConfig{MaxAttempts: 10},
	})

	assert.Equal(t, "base-token", merged.Token)
	assert.Equal(t, "override-dest", merged.Dest)
	assert.True(t, merged.Progress)
	assert.Equal(t, 10, merged.Poll.MaxAttempts)
	assert.Equal(t, base.Poll.Interval, merged.Poll.Interval)
}
