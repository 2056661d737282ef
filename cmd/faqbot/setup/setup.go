// Package setup wires configuration, logging, the backend client and the
// history store for faqbot commands.
package setup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/faqbot/pkg/chat"
	"github.com/papercomputeco/faqbot/pkg/client"
	"github.com/papercomputeco/faqbot/pkg/config"
	"github.com/papercomputeco/faqbot/pkg/dotdir"
	"github.com/papercomputeco/faqbot/pkg/history"
	"github.com/papercomputeco/faqbot/pkg/history/inmemory"
	"github.com/papercomputeco/faqbot/pkg/history/sqlite"
	"github.com/papercomputeco/faqbot/pkg/logger"
)

// ClientKeys are the registry keys every backend command binds.
var ClientKeys = []string{
	config.FlagAPITarget,
	config.FlagToken,
	config.FlagTimeout,
	config.FlagMaxLineSize,
	config.FlagMaxFailures,
}

// ChatKeys are bound by commands that ask questions.
var ChatKeys = []string{
	config.FlagProduct,
	config.FlagLanguage,
	config.FlagRender,
	config.FlagHistory,
	config.FlagHistoryPath,
}

// Flags holds the flag targets. Values are read back through viper so the
// flag > env > config file > default precedence applies.
type Flags struct {
	APITarget   string
	Token       string
	Timeout     time.Duration
	MaxLineSize int
	MaxFailures int

	Product     string
	Language    string
	Render      bool
	History     bool
	HistoryPath string
}

// AddClientFlags registers the flags named by ClientKeys on cmd.
func AddClientFlags(cmd *cobra.Command, f *Flags) {
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &f.APITarget)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagToken, &f.Token)
	config.AddDurationFlag(cmd, config.ClientFlags, config.FlagTimeout, &f.Timeout)
	config.AddIntFlag(cmd, config.ClientFlags, config.FlagMaxLineSize, &f.MaxLineSize)
	config.AddIntFlag(cmd, config.ClientFlags, config.FlagMaxFailures, &f.MaxFailures)
}

// AddChatFlags registers the flags named by ChatKeys on cmd.
func AddChatFlags(cmd *cobra.Command, f *Flags) {
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagProduct, &f.Product)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagLanguage, &f.Language)
	config.AddBoolFlag(cmd, config.ClientFlags, config.FlagRender, &f.Render)
	config.AddBoolFlag(cmd, config.ClientFlags, config.FlagHistory, &f.History)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagHistoryPath, &f.HistoryPath)
}

// Env is everything a command needs after flags are parsed.
type Env struct {
	Config *config.Config

	// ConfigDir is the --config-dir override, "" when unset.
	ConfigDir string

	Debug  bool
	Logger *slog.Logger
}

// Load resolves configuration for cmd, binding the flags named by keys.
func Load(cmd *cobra.Command, keys ...[]string) (*Env, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	for _, k := range keys {
		config.BindRegisteredFlags(v, cmd, config.ClientFlags, k)
	}

	return &Env{
		Config:    config.FromViper(v),
		ConfigDir: configDir,
		Debug:     debug,
		Logger: logger.New(
			logger.WithDebug(debug),
			logger.WithPretty(true),
			logger.WithWriter(cmd.ErrOrStderr()),
		),
	}, nil
}

// NewClient builds a backend client from the resolved configuration.
func (e *Env) NewClient() (*client.Client, error) {
	cfg := e.Config

	return client.New(cfg.Client.APITarget,
		client.WithToken(cfg.Client.Token),
		client.WithTimeout(cfg.Client.Timeout.Duration),
		client.WithLogger(e.Logger),
		client.WithDecodeOptions(
			chat.WithMaxLineSize(cfg.Stream.MaxLineSize),
			chat.WithMaxConsecutiveFailures(cfg.Stream.MaxConsecutiveFailures),
		),
	)
}

// OpenHistory opens the local history store. With history disabled the
// store is in memory and discarded on Close.
func (e *Env) OpenHistory() (history.Driver, error) {
	if !e.Config.History.Enabled {
		return inmemory.NewDriver(), nil
	}

	dir := ""
	if e.Config.History.SQLitePath == "" {
		var err error
		dir, err = dotdir.NewManager().Ensure(e.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("resolving history directory: %w", err)
		}
	}

	path := e.Config.HistoryPath(dir)
	e.Logger.Debug("opening history", "path", path)

	driver, err := sqlite.NewDriver(path)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	return driver, nil
}

// ExistingHistory opens the history store for reading without creating
// anything. It returns nil when no database has been written yet.
func (e *Env) ExistingHistory() (history.Driver, error) {
	dir := ""
	if e.Config.History.SQLitePath == "" {
		var err error
		dir, err = dotdir.NewManager().Target(e.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("resolving history directory: %w", err)
		}
		if dir == "" {
			return nil, nil
		}
	}

	path := e.Config.HistoryPath(dir)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.Logger.Debug("no history database", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("checking history %s: %w", path, err)
	}

	driver, err := sqlite.NewDriver(path)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	return driver, nil
}
