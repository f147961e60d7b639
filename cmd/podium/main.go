// Command podium is the thin dispatch adapter around the contest engine:
// it turns command-line input into engine operations and engine results
// into text. All contest rules live in the engine; this binary only
// formats.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gridrival/podium/infrastructure/roster"
	"github.com/gridrival/podium/infrastructure/storage"
	"github.com/gridrival/podium/internal/application"
	"github.com/gridrival/podium/internal/ports"
)

var (
	flagConfig string
	flagData   string
	flagRoster string
	flagDebug  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "podium",
		Short:        "Run recurring top-five prediction contests",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "override state file path")
	rootCmd.PersistentFlags().StringVar(&flagRoster, "roster", "", "override roster file path")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newOpenCmd(),
		newSubmitCmd(),
		newCloseCmd(),
		newClearCmd(),
		newStatusCmd(),
		newPredictionCmd(),
		newLeaderboardCmd(),
		newHistoryCmd(),
		newDriversCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration from the optional file
// and command-line overrides.
func loadConfig() (application.Config, error) {
	cfg := application.DefaultConfig()
	if flagConfig != "" {
		loaded, err := application.LoadConfig(flagConfig)
		if err != nil {
			return application.Config{}, err
		}
		cfg = loaded
	}
	if flagData != "" {
		cfg.DataFile = flagData
	}
	if flagRoster != "" {
		cfg.RosterFile = flagRoster
	}
	if flagDebug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// runtime bundles everything a subcommand needs to execute one engine
// operation.
type runtime struct {
	engine ports.ContestEngine
	roster *roster.FileRoster
	logger *zap.Logger
	closer func()
}

// setup builds the roster, the configured store backend, and the engine.
// The returned closer flushes the logger and releases store handles.
func setup(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ros, err := roster.NewFileRoster(cfg.RosterFile, roster.WithLogger(logger.Named("roster")))
	if err != nil {
		logger.Sync()
		return nil, err
	}

	var (
		store  ports.StateStore
		closer = func() { logger.Sync() }
	)
	switch cfg.Backend {
	case "sqlite":
		s, err := storage.NewSQLiteStore(ctx, cfg.DataFile)
		if err != nil {
			logger.Sync()
			return nil, err
		}
		store = s
		closer = func() {
			s.Close()
			logger.Sync()
		}
	default:
		s, err := storage.NewFileStore(cfg.DataFile)
		if err != nil {
			logger.Sync()
			return nil, err
		}
		store = s
	}

	engine, err := application.NewEngine(ctx, store, ros,
		application.WithLogger(logger.Named("engine")))
	if err != nil {
		closer()
		return nil, err
	}

	return &runtime{engine: engine, roster: ros, logger: logger, closer: closer}, nil
}
