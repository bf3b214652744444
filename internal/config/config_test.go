package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/turn-chat/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnchat.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, config.TransportTCP, cfg.Transport)
	assert.Equal(t, config.FramingRaw, cfg.Framing)
	assert.Zero(t, cfg.DialTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
transport = "WS"
dial_timeout = "3s"
ws_path = "/chat"
handle = "alice"
log_level = "debug"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.TransportWS, cfg.Transport)
	assert.Equal(t, config.FramingRaw, cfg.Framing, "undefined keys keep their defaults")
	assert.Equal(t, 3*time.Second, cfg.DialTimeout)
	assert.Equal(t, "/chat", cfg.WSPath)
	assert.Equal(t, "alice", cfg.Handle)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := config.Load(writeConfig(t, `retries = 3`))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := config.Load(writeConfig(t, `dial_timeout = "soon"`))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(config.EnvFraming, " Length ")
	t.Setenv(config.EnvHandle, "bob")
	t.Setenv(config.EnvLogLevel, "")

	cfg := config.Default()
	config.ApplyEnv(&cfg)

	assert.Equal(t, config.FramingLength, cfg.Framing)
	assert.Equal(t, "bob", cfg.Handle)
	assert.Equal(t, "warn", cfg.LogLevel, "empty variables are ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown transport", func(c *config.Config) { c.Transport = "udp" }},
		{"unknown framing", func(c *config.Config) { c.Framing = "lines" }},
		{"length framing over ws", func(c *config.Config) { c.Transport = config.TransportWS; c.Framing = config.FramingLength }},
		{"negative timeout", func(c *config.Config) { c.DialTimeout = -time.Second }},
		{"relative ws path", func(c *config.Config) { c.Transport = config.TransportWS; c.WSPath = "chat" }},
		{"bad handle", func(c *config.Config) { c.Handle = "two words" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
		})
	}
}
