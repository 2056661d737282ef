package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent faqbot configuration stored as config.toml
// in the .faqbot/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Client  ClientConfig  `toml:"client"`
	Chat    ChatConfig    `toml:"chat"`
	Stream  StreamConfig  `toml:"stream"`
	History HistoryConfig `toml:"history"`
}

// ClientConfig holds settings for reaching the FAQ backend.
type ClientConfig struct {
	// APITarget is the backend base URL (scheme + host + port).
	APITarget string `toml:"api_target,omitempty"`

	// Token is an optional pre-issued bearer token.
	Token string `toml:"token,omitempty"`

	// Timeout bounds blocking requests. Streaming requests are bounded only
	// by cancellation, since answers can take a while to generate.
	Timeout Duration `toml:"timeout,omitempty"`
}

// ChatConfig holds defaults for questions sent to the backend.
type ChatConfig struct {
	// ProductID scopes questions to one insurance product. Empty means global.
	ProductID string `toml:"product_id,omitempty"`

	// Language is an ISO code or "auto" to let the backend detect it.
	Language string `toml:"language,omitempty"`

	// Render renders completed answers as markdown on a terminal.
	Render bool `toml:"render,omitempty"`
}

// StreamConfig holds stream decoding limits.
type StreamConfig struct {
	MaxLineSize            int `toml:"max_line_size,omitempty"`
	MaxConsecutiveFailures int `toml:"max_consecutive_failures,omitempty"`
}

// HistoryConfig holds local transcript settings.
type HistoryConfig struct {
	Enabled    bool   `toml:"enabled"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// Duration wraps time.Duration so it round-trips through TOML as a string
// such as "30s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func parseIntKey(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid value for %s: must not be negative", key)
	}
	return n, nil
}

func parseBoolKey(key, v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return b, nil
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.token": {
		get: func(c *Config) string { return c.Client.Token },
		set: func(c *Config, v string) error { c.Client.Token = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string {
			if c.Client.Timeout.Duration == 0 {
				return ""
			}
			return c.Client.Timeout.String()
		},
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.timeout: %w", err)
			}
			c.Client.Timeout = Duration{d}
			return nil
		},
	},
	"chat.product_id": {
		get: func(c *Config) string { return c.Chat.ProductID },
		set: func(c *Config, v string) error { c.Chat.ProductID = v; return nil },
	},
	"chat.language": {
		get: func(c *Config) string { return c.Chat.Language },
		set: func(c *Config, v string) error { c.Chat.Language = v; return nil },
	},
	"chat.render": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.Render) },
		set: func(c *Config, v string) error {
			b, err := parseBoolKey("chat.render", v)
			if err != nil {
				return err
			}
			c.Chat.Render = b
			return nil
		},
	},
	"stream.max_line_size": {
		get: func(c *Config) string { return strconv.Itoa(c.Stream.MaxLineSize) },
		set: func(c *Config, v string) error {
			n, err := parseIntKey("stream.max_line_size", v)
			if err != nil {
				return err
			}
			c.Stream.MaxLineSize = n
			return nil
		},
	},
	"stream.max_consecutive_failures": {
		get: func(c *Config) string { return strconv.Itoa(c.Stream.MaxConsecutiveFailures) },
		set: func(c *Config, v string) error {
			n, err := parseIntKey("stream.max_consecutive_failures", v)
			if err != nil {
				return err
			}
			c.Stream.MaxConsecutiveFailures = n
			return nil
		},
	},
	"history.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.History.Enabled) },
		set: func(c *Config, v string) error {
			b, err := parseBoolKey("history.enabled", v)
			if err != nil {
				return err
			}
			c.History.Enabled = b
			return nil
		},
	},
	"history.sqlite_path": {
		get: func(c *Config) string { return c.History.SQLitePath },
		set: func(c *Config, v string) error { c.History.SQLitePath = v; return nil },
	},
}
