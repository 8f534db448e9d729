package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AidanDelaney/cpr/internal/logging"
	"github.com/AidanDelaney/cpr/internal/service"
)

const (
	configFlag    = "config"
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
	setFlag       = "set"
	overwriteFlag = "overwrite"
)

var (
	rootCmd = &cobra.Command{
		Use:          "cpr",
		Short:        "A project generation tool",
		Long:         `cpr creates new projects from git-hosted project templates.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringP(configFlag, "c", "", "global configuration file path (default ~/.cpr/config.toml)")
	rootCmd.PersistentFlags().String(logLevelFlag, "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String(logFormatFlag, "console", "log format: console or json")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(servicesCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// configPath returns the --config value or the default location.
func configPath(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil || path != "" {
		return path, err
	}
	return service.DefaultPath()
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level, err := cmd.Flags().GetString(logLevelFlag)
	if err != nil {
		return nil, err
	}
	format, err := cmd.Flags().GetString(logFormatFlag)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format)
}

// loadConfig reads the service configuration, writing the default one on
// first use.
func loadConfig(cmd *cobra.Command, logger *zap.Logger) (service.Config, string, error) {
	path, err := configPath(cmd)
	if err != nil {
		return service.Config{}, "", err
	}
	cfg, created, err := service.LoadOrInit(path)
	if err != nil {
		return service.Config{}, "", err
	}
	if created {
		logger.Info("created default configuration", zap.String("path", path))
	}
	return cfg, path, nil
}
