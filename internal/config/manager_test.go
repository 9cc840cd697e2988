package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  poll_timeout: "15s"
logging:
  level: "debug"
  console: true
storage:
  driver: "sqlite"
  path: "./x.db"
notifier:
  enabled: true
  interval: "30s"
  rate_per_sec: 5
digest:
  enabled: true
  schedule: "0 9 * * MON"
`)

	m := NewManager(path)
	cfg, err := m.Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "15s", cfg.Telegram.PollTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	require.NotNil(t, cfg.Notifier.Enabled)
	assert.True(t, *cfg.Notifier.Enabled)
	assert.Equal(t, "30s", cfg.Notifier.Interval)
	assert.Equal(t, 5, cfg.Notifier.RatePerSec)
	assert.True(t, cfg.Digest.Enabled)
	assert.Same(t, cfg, m.Current())
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
  "telegram": {"token": "123:abc"},
  "logging": {"level": "info", "console": true},
  "storage": {"driver": "memory"}
}`)

	cfg, err := NewManager(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Nil(t, cfg.Notifier.Enabled, "omitted notifier section leaves Enabled nil")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  tokne_typo: "oops"
`)

	_, err := NewManager(path).Load()
	require.Error(t, err)
}

func TestLoadRejectsTrailingJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"telegram":{"token":"a:b"}}{"extra":1}`)
	_, err := NewManager(path).Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing token", mutate: func(c *Config) { c.Telegram.Token = " " }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.Storage.Driver = "oracle" }, wantErr: true},
		{name: "memory driver ok", mutate: func(c *Config) { c.Storage.Driver = "memory" }},
		{name: "bad interval", mutate: func(c *Config) { c.Notifier.Interval = "soon" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Telegram.PollTimeout = "-5s" }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{}
			cfg.Telegram.Token = "123:abc"
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRunsValidator(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
telegram:
  token: ""
logging:
  console: true
`)

	m := NewManager(path)
	m.SetValidator(Validate)
	_, err := m.Load()
	require.Error(t, err)
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()

	d, err := ParseDurationOrDefault("x", "", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), int64(d))

	d, err = ParseDurationOrDefault("x", "3s", 42)
	require.NoError(t, err)
	assert.Equal(t, "3s", d.String())

	_, err = ParseDurationOrDefault("x", "banana", 42)
	require.Error(t, err)
}
