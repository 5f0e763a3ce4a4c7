package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/altmunch/SocialSchedule-sub011/pkg/cli"
	"github.com/altmunch/SocialSchedule-sub011/pkg/config"
	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform/registry"
	"github.com/altmunch/SocialSchedule-sub011/pkg/scan"
	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/health"
	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/logging"
	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/metrics"
	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/tracing"
)

var scanFlags struct {
	schedule    string
	metricsAddr string
	output      string
	failOnError bool
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch metrics for the configured targets",
	Long: `Fetch account activity and post metrics for every target in scan.targets.

Without a schedule one cycle runs and its report is printed. With a schedule
(flag or scan.schedule) cycles run on the cron expression until interrupted,
budgets are reloaded when the config file changes, and the metrics server
keeps serving between cycles.

Examples:
  # One cycle, report as JSON
  socialschedule scan --output json

  # Every 15 minutes with Prometheus metrics on :9090
  socialschedule scan --schedule "*/15 * * * *" --metrics-addr :9090`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanFlags.schedule, "schedule", "", "cron expression overriding scan.schedule")
	scanCmd.Flags().StringVar(&scanFlags.metricsAddr, "metrics-addr", "", "metrics listen address overriding telemetry.metrics.address (\"off\" disables)")
	scanCmd.Flags().StringVarP(&scanFlags.output, "output", "o", "text", "report format: text, json")
	scanCmd.Flags().BoolVar(&scanFlags.failOnError, "fail-on-error", false, "exit non-zero when any fetch fails")
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(scanFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if scanFlags.schedule != "" {
		if _, err := cron.ParseStandard(scanFlags.schedule); err != nil {
			return cli.NewConfigError("--schedule", err)
		}
		cfg.Scan.Schedule = scanFlags.schedule
	}
	if scanFlags.metricsAddr != "" {
		cfg.Telemetry.Metrics.Address = scanFlags.metricsAddr
	}

	logger, err := logging.Setup(cfg.Telemetry.Logging, cmd.ErrOrStderr())
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("scan", err)
	}
	defer rt.Close()

	runCycle := func() *scan.Report {
		report := rt.orchestrator.Scan(ctx, rt.targets)
		if err := cli.Write(cmd.OutOrStdout(), format, reportView{report}); err != nil {
			logger.Error("failed to write scan report", "error", err)
		}
		return report
	}

	if cfg.Scan.Schedule == "" {
		report := runCycle()
		if scanFlags.failOnError && report.Failures() > 0 {
			return cli.NewCommandError("scan", fmt.Errorf("%d fetches failed", report.Failures()))
		}
		return nil
	}

	go func() {
		watcher := config.NewWatcher(cfgFile, 0, func(c *config.Config) {
			rt.collector.SetPerformanceBudgets(metrics.BudgetsFromConfig(c.Budgets))
		})
		if err := watcher.Watch(ctx); err != nil {
			logger.Warn("config watcher stopped", "error", err)
		}
	}()

	cl := cronLogger{logger: logger.With("component", "scan.scheduler")}
	scheduler := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := scheduler.AddFunc(cfg.Scan.Schedule, func() { runCycle() }); err != nil {
		return cli.NewConfigError("scan.schedule", err)
	}
	scheduler.Start()

	logger.Info("scan scheduler started",
		"schedule", cfg.Scan.Schedule,
		"targets", len(rt.targets),
		"next_run", scheduler.Entries()[0].Next,
	)

	<-ctx.Done()
	logger.Info("shutting down scan scheduler")
	<-scheduler.Stop().Done()
	return nil
}

// scanRuntime is the wired ingestion stack for one scan command.
type scanRuntime struct {
	logger       *slog.Logger
	collector    *metrics.Collector
	manager      *registry.Manager
	tracer       *tracing.Tracer
	orchestrator *scan.Orchestrator
	targets      []scan.Target
	server       *http.Server
	serverAddr   string
}

func newRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*scanRuntime, error) {
	rt := &scanRuntime{logger: logger}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing,
		tracing.WithServiceVersion(Version),
		tracing.WithGlobal(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	rt.tracer = tracer

	opts := []metrics.Option{
		metrics.WithLogger(logger.With("component", "telemetry.metrics")),
		metrics.WithProvider(tracer.Bridge()),
	}
	var prom *metrics.PrometheusProvider
	if cfg.Telemetry.Metrics.Enabled {
		prom = metrics.NewPrometheusProvider(&cfg.Telemetry.Metrics, nil)
		opts = append(opts, metrics.WithProvider(prom))
	}
	rt.collector = metrics.NewCollector(opts...)
	rt.collector.SetPerformanceBudgets(metrics.BudgetsFromConfig(cfg.Budgets))

	rt.manager = registry.NewManager()
	if err := rt.manager.LoadFromConfig(cfg.PlatformConfigs()); err != nil {
		logger.Warn("some platform adapters failed to initialize", "error", err)
	}
	if rt.manager.Count() == 0 {
		rt.Close()
		return nil, errors.New("no platform adapters configured")
	}

	checker := health.New(0)
	for key, adapter := range rt.manager.Adapters() {
		checker.Register("platform:"+key, health.AdapterCheck(adapter.Health))
		if q, ok := adapter.(interface{ QueueStats() ratelimit.Stats }); ok && prom != nil {
			prom.ObserveQueue(key, q.QueueStats)
		}
	}

	targets, err := scan.TargetsFromConfig(cfg.Scan.Targets, rt.manager)
	if err != nil {
		logger.Warn("some scan targets were skipped", "error", err)
	}
	rt.targets = targets

	rt.orchestrator = scan.New(rt.collector,
		scan.WithRetry(scan.RetryPolicyFromConfig(cfg.Scan.Retry)),
		scan.WithConcurrency(cfg.Scan.Concurrency),
		scan.WithLogger(logger.With("component", "scan")),
	)

	if prom != nil && cfg.Telemetry.Metrics.Address != "off" {
		if err := rt.serveMetrics(ctx, cfg, prom, checker); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func (rt *scanRuntime) serveMetrics(ctx context.Context, cfg *config.Config, prom *metrics.PrometheusProvider, checker *health.Checker) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Telemetry.Metrics.Path, prom.Handler())
	health.Mount(mux, checker, health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", cfg.Telemetry.Metrics.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Telemetry.Metrics.Address, err)
	}

	rt.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	rt.serverAddr = ln.Addr().String()
	go func() {
		if err := rt.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("metrics server failed", "error", err)
		}
	}()

	rt.logger.Info("metrics server listening",
		"address", rt.serverAddr,
		"path", cfg.Telemetry.Metrics.Path,
	)
	return nil
}

// Close stops the metrics server, closes the adapters and flushes traces.
func (rt *scanRuntime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if rt.server != nil {
		_ = rt.server.Shutdown(ctx)
	}
	if rt.manager != nil {
		if err := rt.manager.Close(); err != nil {
			rt.logger.Warn("failed to close platform adapters", "error", err)
		}
	}
	if rt.tracer != nil {
		if err := rt.tracer.Shutdown(ctx); err != nil {
			rt.logger.Warn("failed to flush traces", "error", err)
		}
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
