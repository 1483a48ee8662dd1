package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"videoscribe/internal/config"
	"videoscribe/internal/logger"
)

// globalOptions holds flags shared by every subcommand
type globalOptions struct {
	configPath string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "videoscribe",
		Short:         "Transcribe local and remote video or audio into time-aligned subtitles",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newTranscribeCommand(opts))
	rootCmd.AddCommand(newLanguagesCommand())
	rootCmd.AddCommand(newFormatsCommand())
	rootCmd.AddCommand(newDevicesCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// loadConfiguration resolves configuration from the --config file when
// given, otherwise from VIDEOSCRIBE_* environment variables
func loadConfiguration(opts *globalOptions) (*config.Configuration, error) {
	if opts.configPath != "" {
		cfg, err := config.NewConfigurationFromFile(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", opts.configPath, err)
		}
		return cfg, nil
	}
	cfg, err := config.NewConfigurationFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return cfg, nil
}

// newCommandLogger builds the logger for a command invocation. Debug
// logging wins over file logging so that --verbose output stays on the
// console.
func newCommandLogger(cfg *config.Configuration, opts *globalOptions) (*zap.Logger, error) {
	if opts.verbose {
		return logger.NewDevelopmentLogger()
	}
	if path := cfg.GetLogFilePath(); path != "" {
		return logger.NewFileLogger(path)
	}
	return logger.NewLogger(), nil
}
