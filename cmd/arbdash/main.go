// Package main is the entry point for the arbitrage dashboard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard"
	dashboardApp "github.com/fd1az/arbitrage-dashboard/business/dashboard/app"
	dashboardDI "github.com/fd1az/arbitrage-dashboard/business/dashboard/di"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/infra"
	"github.com/fd1az/arbitrage-dashboard/business/network"
	"github.com/fd1az/arbitrage-dashboard/internal/apm"
	"github.com/fd1az/arbitrage-dashboard/internal/config"
	"github.com/fd1az/arbitrage-dashboard/internal/di"
	"github.com/fd1az/arbitrage-dashboard/internal/logger"
	"github.com/fd1az/arbitrage-dashboard/internal/metrics"
	"github.com/fd1az/arbitrage-dashboard/internal/monolith"
	"github.com/fd1az/arbitrage-dashboard/internal/prefs"
	"github.com/fd1az/arbitrage-dashboard/internal/wsconn"
	"github.com/fd1az/arbitrage-dashboard/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var (
	configPath string
	demoMode   bool
	cliMode    bool
)

var rootCmd = &cobra.Command{
	Use:   "arbdash",
	Short: "Terminal dashboard for an arbitrage backend",
	Long: `arbdash polls an arbitrage backend and shows stats, opportunities,
transactions, alerts, wallets and settings in the terminal.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (default ./config.yaml)")
	rootCmd.Flags().BoolVar(&demoMode, "demo", false, "use generated demo data instead of the backend")
	rootCmd.Flags().BoolVar(&cliMode, "cli", false, "log updates to stdout instead of running the TUI")

	rootCmd.AddCommand(versionCmd, themeCmd)
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if demoMode {
		os.Setenv("ARBDASH_DEMO", "true")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.CLIMode = cliMode
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, io.Closer, error) {
	level := logger.ParseLevel(cfg.App.LogLevel)

	if cfg.App.CLIMode {
		return logger.New(os.Stderr, level, cfg.App.Name, nil), nil, nil
	}

	// The TUI owns the terminal: logs go to a file or nowhere.
	if cfg.App.LogFile == "" {
		return logger.New(io.Discard, level, cfg.App.Name, nil), nil, nil
	}
	f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.New(f, level, cfg.App.Name, nil), f, nil
}

func openPreferences(cfg *config.Config) (*prefs.Context, error) {
	path := cfg.Preferences.Path
	if path == "" {
		var err error
		if path, err = prefs.DefaultPath(); err != nil {
			return nil, err
		}
	}
	pc := prefs.NewContext(prefs.NewStore(path))
	return pc, pc.Load()
}

// startTelemetry wires tracing and metrics. The returned func stops both.
func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	tc := cfg.Telemetry

	traceProvider, err := apm.NewTraceProvider(ctx, apm.Config{
		Provider:    apm.Provider(tc.TraceProvider),
		ServiceName: tc.ServiceName,
		Endpoint:    tc.OTLPEndpoint,
		Headers:     tc.OTLPHeaders,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}

	opts := []metrics.OptionFn{
		metrics.WithServiceName(tc.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if tc.MetricsOTLP && tc.OTLPEndpoint != "" {
		headers, err := apm.ParseHeaders(tc.OTLPHeaders)
		if err != nil {
			traceProvider.Stop()
			return nil, fmt.Errorf("invalid otlp headers: %w", err)
		}
		opts = append(opts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(tc.OTLPEndpoint, headers, metrics.InsecureOtel)))
	}

	meterProvider, err := metrics.NewMetricProvider(opts...)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("failed to start metrics: %w", err)
	}

	promServer := metrics.NewServer(metrics.WithPort(strconv.Itoa(tc.PrometheusPort)))
	if err := promServer.Start(); err != nil {
		log.Warn(ctx, "failed to start prometheus server", "error", err)
	} else {
		log.Info(ctx, "prometheus metrics server started", "port", tc.PrometheusPort)
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		promServer.Stop(stopCtx)
		if err := meterProvider.Shutdown(stopCtx); err != nil {
			log.Warn(stopCtx, "metrics shutdown", "error", err)
		}
		if err := traceProvider.Stop(); err != nil {
			log.Warn(stopCtx, "tracing shutdown", "error", err)
		}
	}, nil
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, logFile, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	log.Info(ctx, "starting arbitrage dashboard",
		"version", version,
		"environment", cfg.App.Environment,
		"demo", cfg.API.Demo,
	)

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	// Create monolith (application container)
	mono := monolith.New(cfg, log)

	if cfg.Health.Enabled {
		if err := mono.Health().Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				mono.Health().Stop(stopCtx)
			}()
		}
	}

	// Define modules in dependency order
	modules := []monolith.Module{
		&network.Module{},   // RPC probes, optional
		&dashboard.Module{}, // Polls the backend, merges network probes
	}

	if cfg.App.CLIMode {
		return runCLI(ctx, mono, modules, log)
	}
	return runTUI(ctx, mono, modules, log)
}

func registerReporter(mono *monolith.App, reporter dashboardApp.Reporter) {
	di.RegisterToken(mono.Container(), dashboardDI.Reporter, func(di.ServiceRegistry) dashboardApp.Reporter {
		return reporter
	})
}

func runCLI(ctx context.Context, mono *monolith.App, modules []monolith.Module, log *logger.Logger) error {
	registerReporter(mono, infra.NewConsoleReporter())

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	log.Info(ctx, "all modules started")

	// Wait for shutdown
	<-ctx.Done()

	log.Info(context.Background(), "shutting down")
	return stopModules(mono, log)
}

func runTUI(ctx context.Context, mono *monolith.App, modules []monolith.Module, log *logger.Logger) error {
	cfg := mono.Config()

	pc, err := openPreferences(cfg)
	if err != nil {
		log.Warn(ctx, "preferences not loaded, using defaults", "error", err)
	}

	reporter := infra.NewTUIReporter(nil)
	registerReporter(mono, reporter)

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	model := ui.New(ui.Options{
		Controller:        dashboardDI.GetDashboardService(mono.Services()),
		Prefs:             pc,
		AnimationDuration: cfg.UI.AnimationDuration,
		Animate:           cfg.UI.Animate,
		FrameInterval:     cfg.UI.FrameInterval(),
		Demo:              cfg.API.Demo,
		Version:           version,
		DefaultNetwork:    defaultNetwork(cfg),
		ActionTimeout:     cfg.API.Timeout,
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, opts...)
	reporter.Attach(p)

	if feed := dashboardDI.GetLiveFeed(mono.Services()); feed != nil {
		feed.OnStateChange(func(s wsconn.State) {
			p.Send(ui.LiveStateMsg{State: string(s)})
		})
	}

	// Start polling once the program is running so the first results have
	// somewhere to go.
	started := make(chan error, 1)
	go func() {
		err := mono.StartModules(ctx, modules...)
		if err != nil {
			log.Error(ctx, "failed to start modules", "error", err)
			p.Quit()
		}
		started <- err
	}()

	_, runErr := p.Run()

	startErr := <-started
	stopErr := stopModules(mono, log)

	switch {
	case startErr != nil:
		return fmt.Errorf("failed to start modules: %w", startErr)
	case runErr != nil && ctx.Err() == nil:
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return stopErr
}

func stopModules(mono *monolith.App, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mono.StopModules(ctx); err != nil {
		log.Error(ctx, "error stopping modules", "error", err)
		return err
	}
	return nil
}

func defaultNetwork(cfg *config.Config) string {
	if len(cfg.Networks) > 0 {
		return cfg.Networks[0].Name
	}
	return "ethereum"
}
