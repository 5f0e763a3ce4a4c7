package main

import (
	"github.com/spf13/cobra"

	"github.com/altmunch/SocialSchedule-sub011/pkg/cli"
	"github.com/altmunch/SocialSchedule-sub011/pkg/config"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "socialschedule",
	Short: "SocialSchedule - social platform metrics ingestion",
	Long: `SocialSchedule fetches post engagement and account activity from
Instagram, TikTok and YouTube.

Each platform adapter paces its own requests and backs off when the platform
reports high quota usage. Calls are wrapped in spans, exported to Prometheus
and OpenTelemetry, and checked against performance budgets.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "socialschedule.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig loads the --config file with environment overrides and stores
// it as the process-wide configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	config.SetConfig(cfg)
	return cfg, nil
}
