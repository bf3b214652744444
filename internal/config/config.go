// Package config holds the settings shared by the chat client and peer
// server: defaults, an optional TOML file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/omochice/turn-chat/internal/chat"
)

const (
	TransportTCP = "tcp"
	TransportWS  = "ws"

	// FramingRaw is wire compatible with unframed peers: one read is
	// taken to be one message.
	FramingRaw = "raw"
	// FramingLength prefixes every message with its length.
	FramingLength = "length"
)

const (
	EnvTransport = "TURNCHAT_TRANSPORT"
	EnvFraming   = "TURNCHAT_FRAMING"
	EnvHandle    = "TURNCHAT_HANDLE"
	EnvLogLevel  = "TURNCHAT_LOG_LEVEL"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config is the complete runtime configuration.
type Config struct {
	Transport   string
	Framing     string
	DialTimeout time.Duration
	WSPath      string
	Handle      string
	LogLevel    string
}

// Default returns the settings used when nothing is configured. There is
// no dial timeout: connect blocks until the OS gives up.
func Default() Config {
	return Config{
		Transport: TransportTCP,
		Framing:   FramingRaw,
		WSPath:    "/",
		LogLevel:  "warn",
	}
}

type fileConfig struct {
	Transport   string `toml:"transport"`
	Framing     string `toml:"framing"`
	DialTimeout string `toml:"dial_timeout"`
	WSPath      string `toml:"ws_path"`
	Handle      string `toml:"handle"`
	LogLevel    string `toml:"log_level"`
}

// Load overlays the keys defined in the TOML file at path onto Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}

	if meta.IsDefined("transport") {
		cfg.Transport = normalize(raw.Transport)
	}
	if meta.IsDefined("framing") {
		cfg.Framing = normalize(raw.Framing)
	}
	if meta.IsDefined("dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DialTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse dial_timeout: %w", err)
		}
		cfg.DialTimeout = d
	}
	if meta.IsDefined("ws_path") {
		cfg.WSPath = strings.TrimSpace(raw.WSPath)
	}
	if meta.IsDefined("handle") {
		cfg.Handle = strings.TrimSpace(raw.Handle)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = normalize(raw.LogLevel)
	}

	return cfg, nil
}

// ApplyEnv overrides cfg with any TURNCHAT_* variables that are set.
func ApplyEnv(cfg *Config) {
	if v, ok := lookup(EnvTransport); ok {
		cfg.Transport = normalize(v)
	}
	if v, ok := lookup(EnvFraming); ok {
		cfg.Framing = normalize(v)
	}
	if v, ok := lookup(EnvHandle); ok {
		cfg.Handle = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = normalize(v)
	}
}

// Validate checks enumerations and cross-field constraints.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportTCP, TransportWS:
	default:
		return fmt.Errorf("%w: transport %q (want %s or %s)", ErrInvalidConfig, c.Transport, TransportTCP, TransportWS)
	}
	switch c.Framing {
	case FramingRaw, FramingLength:
	default:
		return fmt.Errorf("%w: framing %q (want %s or %s)", ErrInvalidConfig, c.Framing, FramingRaw, FramingLength)
	}
	if c.Transport == TransportWS && c.Framing == FramingLength {
		return fmt.Errorf("%w: framing %q only applies to the %s transport", ErrInvalidConfig, c.Framing, TransportTCP)
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("%w: negative dial_timeout %s", ErrInvalidConfig, c.DialTimeout)
	}
	if c.Transport == TransportWS && !strings.HasPrefix(c.WSPath, "/") {
		return fmt.Errorf("%w: ws_path %q must start with /", ErrInvalidConfig, c.WSPath)
	}
	if c.Handle != "" {
		if _, err := chat.ParseIdentity(c.Handle); err != nil {
			return fmt.Errorf("%w: handle: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
