// Package config loads seance's TOML configuration. Everything has a
// working default; the file exists so users can slow the polling down for
// sluggish machines, pick a default backend, and name allow-lists instead
// of retyping them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/groblegark/seance/internal/poll"
)

// Config is the on-disk configuration, ~/.seance/config.toml.
type Config struct {
	// DefaultTool is used when a command doesn't name one.
	DefaultTool string `toml:"default_tool"`

	// DefaultTimeoutSec bounds a whole wait/stream turn.
	DefaultTimeoutSec int `toml:"default_timeout_sec"`

	Timing TimingConfig `toml:"timing"`

	// AllowLists maps a short name to a tool allow-list, so
	// "--allow-list review" replaces spelling the tools out each time.
	AllowLists map[string][]string `toml:"allow_lists"`

	Mail  MailConfig  `toml:"mail"`
	Watch WatchConfig `toml:"watch"`
}

// TimingConfig overrides the polling engine's loop timing, in milliseconds.
// Zero fields keep the engine defaults.
type TimingConfig struct {
	IntervalMs int `toml:"interval_ms"`
	SettleMs   int `toml:"settle_ms"`
	GraceMs    int `toml:"grace_ms"`
}

// MailConfig controls the notification mailbox.
type MailConfig struct {
	// Path overrides the mailbox location.
	Path string `toml:"path"`

	// RetainHours is how long GC keeps messages.
	RetainHours int `toml:"retain_hours"`
}

// WatchConfig controls the archangel watcher.
type WatchConfig struct {
	// Rules is the path to the watcher rules file.
	Rules string `toml:"rules"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultTool:       "claude",
		DefaultTimeoutSec: 300,
		Mail:              MailConfig{RetainHours: 72},
	}
}

// Path returns the standard config file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating config: %w", err)
	}
	return filepath.Join(home, ".seance", "config.toml"), nil
}

// Load reads path, layering it over the defaults. A missing file is the
// defaults; a malformed file is an error, not a silent fallback.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// LoadDefault loads from the standard location.
func LoadDefault() (*Config, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	return Load(p)
}

// PollTiming converts the millisecond overrides into engine timing.
func (c *Config) PollTiming() poll.Timing {
	return poll.Timing{
		Interval: time.Duration(c.Timing.IntervalMs) * time.Millisecond,
		Settle:   time.Duration(c.Timing.SettleMs) * time.Millisecond,
		Grace:    time.Duration(c.Timing.GraceMs) * time.Millisecond,
	}
}

// Timeout returns the default turn timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DefaultTimeoutSec) * time.Second
}

// MailRetention returns how long mailbox messages are kept.
func (c *Config) MailRetention() time.Duration {
	return time.Duration(c.Mail.RetainHours) * time.Hour
}
