package main

import (
	"fmt"

	"github.com/mrzor/compiler-monitor/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "compiler-monitor",
		Short:         "Record compiler invocations and build compile_commands.json",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default \"info\")")

	rootCmd.AddCommand(newRecordCmd(opts))
	rootCmd.AddCommand(newCollectCmd(opts))

	return rootCmd
}

// load resolves the configuration for cmd. override applies the
// subcommand's explicitly set flags on top of file and environment.
func (o *globalOptions) load(cmd *cobra.Command, override func(*config.Config)) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	override(cfg)
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return cfg, logger, nil
}
