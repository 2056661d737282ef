package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/faqbot/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the FAQBOT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (FAQBOT_CLIENT_API_TARGET, FAQBOT_CLIENT_TOKEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("FAQBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper state.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
			Token:     v.GetString("client.token"),
			Timeout:   Duration{v.GetDuration("client.timeout")},
		},
		Chat: ChatConfig{
			ProductID: v.GetString("chat.product_id"),
			Language:  v.GetString("chat.language"),
			Render:    v.GetBool("chat.render"),
		},
		Stream: StreamConfig{
			MaxLineSize:            v.GetInt("stream.max_line_size"),
			MaxConsecutiveFailures: v.GetInt("stream.max_consecutive_failures"),
		},
		History: HistoryConfig{
			Enabled:    v.GetBool("history.enabled"),
			SQLitePath: v.GetString("history.sqlite_path"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)
	v.SetDefault("client.token", d.Client.Token)
	v.SetDefault("client.timeout", d.Client.Timeout.Duration)

	// Chat
	v.SetDefault("chat.product_id", d.Chat.ProductID)
	v.SetDefault("chat.language", d.Chat.Language)
	v.SetDefault("chat.render", d.Chat.Render)

	// Stream
	v.SetDefault("stream.max_line_size", d.Stream.MaxLineSize)
	v.SetDefault("stream.max_consecutive_failures", d.Stream.MaxConsecutiveFailures)

	// History
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.sqlite_path", d.History.SQLitePath)
}
