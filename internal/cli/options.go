// Package cli holds the flag handling shared by the chat commands.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/omochice/turn-chat/internal/chat"
	"github.com/omochice/turn-chat/internal/config"
)

// Options are the flags common to both commands.
type Options struct {
	ConfigPath  string
	Transport   string
	Framing     string
	Handle      string
	DialTimeout time.Duration
	LogLevel    string
}

// Bind registers the flags on cmd.
func (o *Options) Bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.ConfigPath, "config", "c", "", "TOML config file")
	f.StringVar(&o.Transport, "transport", config.TransportTCP, "transport: tcp or ws")
	f.StringVar(&o.Framing, "framing", config.FramingRaw, "tcp framing: raw (compatible) or length")
	f.StringVar(&o.Handle, "handle", "", "handle to use instead of prompting for one")
	f.DurationVar(&o.DialTimeout, "dial-timeout", 0, "connect timeout (0 waits for the OS)")
	f.StringVar(&o.LogLevel, "log-level", "warn", "diagnostics level: debug, info, warn, error, off")
}

// Config layers defaults, the config file, TURNCHAT_* variables and any
// flags given explicitly, then validates the result.
func (o *Options) Config(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	config.ApplyEnv(&cfg)

	f := cmd.Flags()
	if f.Changed("transport") {
		cfg.Transport = o.Transport
	}
	if f.Changed("framing") {
		cfg.Framing = o.Framing
	}
	if f.Changed("handle") {
		cfg.Handle = o.Handle
	}
	if f.Changed("dial-timeout") {
		cfg.DialTimeout = o.DialTimeout
	}
	if f.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// IdentityPrompter asks the user for a handle.
type IdentityPrompter interface {
	PromptIdentity() (chat.Identity, error)
}

// Identity returns the configured handle, or prompts for one when none is
// configured.
func Identity(cfg config.Config, p IdentityPrompter) (chat.Identity, error) {
	if cfg.Handle == "" {
		return p.PromptIdentity()
	}
	id, err := chat.ParseIdentity(cfg.Handle)
	if err != nil {
		return "", fmt.Errorf("handle: %w", err)
	}
	return id, nil
}
