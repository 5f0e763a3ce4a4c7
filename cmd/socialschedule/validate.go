package main

import (
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/altmunch/SocialSchedule-sub011/pkg/cli"
	"github.com/altmunch/SocialSchedule-sub011/pkg/config"
)

var validateFlags struct {
	output string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and SOCIALSCHEDULE_*
environment overrides, and check it.

Examples:
  # Validate the default config file
  socialschedule validate

  # Validate a specific file and print the summary as JSON
  socialschedule validate --config /etc/socialschedule.yaml --output json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format: text, json")
}

// configSummary is what validate reports about a valid configuration.
type configSummary struct {
	Path      string     `json:"path"`
	Platforms []string   `json:"platforms"`
	Budgets   int        `json:"budgets"`
	Targets   int        `json:"targets"`
	Posts     int        `json:"posts"`
	Schedule  string     `json:"schedule,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

func (s configSummary) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "✓ Configuration valid: %s\n", s.Path)
	fmt.Fprintf(w, "  Platforms: %v\n", s.Platforms)
	fmt.Fprintf(w, "  Budgets:   %d\n", s.Budgets)
	fmt.Fprintf(w, "  Targets:   %d (%d posts)\n", s.Targets, s.Posts)
	if s.Schedule == "" {
		_, err := fmt.Fprintln(w, "  Schedule:  none (single cycle)")
		return err
	}
	_, err := fmt.Fprintf(w, "  Schedule:  %s (next run %s)\n", s.Schedule, s.NextRun.Format(time.RFC3339))
	return err
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	summary := summarize(cfg, time.Now())
	summary.Path = cfgFile
	return cli.Write(cmd.OutOrStdout(), format, summary)
}

func summarize(cfg *config.Config, now time.Time) configSummary {
	s := configSummary{
		Platforms: []string{},
		Budgets:   len(cfg.Budgets),
		Targets:   len(cfg.Scan.Targets),
		Schedule:  cfg.Scan.Schedule,
	}
	for _, pc := range cfg.PlatformConfigs() {
		s.Platforms = append(s.Platforms, pc.Name)
	}
	for _, t := range cfg.Scan.Targets {
		s.Posts += len(t.Posts)
	}
	if s.Schedule != "" {
		// Validate already parsed the expression.
		if sched, err := cron.ParseStandard(s.Schedule); err == nil {
			next := sched.Next(now)
			s.NextRun = &next
		}
	}
	return s
}
