package config

import (
	"path/filepath"
	"time"
)

const (
	defaultAPITarget = "http://localhost:8000"
	defaultTimeout   = 60 * time.Second

	defaultLanguage = "auto"

	// defaultMaxLineSize matches the 1 MiB ceiling the CLI has always used
	// for scanner buffers.
	defaultMaxLineSize = 1024 * 1024

	defaultHistoryFile = "history.sqlite"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
//
// History.SQLitePath is left empty: it resolves to history.sqlite inside the
// .faqbot/ directory at runtime.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APITarget: defaultAPITarget,
			Timeout:   Duration{defaultTimeout},
		},
		Chat: ChatConfig{
			Language: defaultLanguage,
		},
		Stream: StreamConfig{
			MaxLineSize: defaultMaxLineSize,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// HistoryPath returns the configured history database path, or
// history.sqlite inside dir when none is set.
func (c *Config) HistoryPath(dir string) string {
	if c.History.SQLitePath != "" {
		return c.History.SQLitePath
	}
	return filepath.Join(dir, defaultHistoryFile)
}
