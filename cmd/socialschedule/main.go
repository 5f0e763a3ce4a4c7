// SocialSchedule fetches engagement metrics from Instagram, TikTok and
// YouTube through rate-limited platform adapters.
//
// Every platform call is traced, measured and checked against the configured
// performance budgets.
//
// Usage:
//
//	# Run one scan cycle and print the report
//	socialschedule scan --config socialschedule.yaml
//
//	# Scan every 15 minutes, serving /metrics on :9090
//	socialschedule scan --schedule "*/15 * * * *" --metrics-addr :9090
//
//	# Check a configuration file
//	socialschedule validate --config socialschedule.yaml
//
//	# Show version information
//	socialschedule version
package main

import (
	"fmt"
	"os"

	"github.com/altmunch/SocialSchedule-sub011/pkg/cli"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}
