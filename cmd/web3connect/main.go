// Package main is the entry point for the web3-connect wallet dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/web3-connect/business/connection"
	connApp "github.com/fd1az/web3-connect/business/connection/app"
	connectionDI "github.com/fd1az/web3-connect/business/connection/di"
	"github.com/fd1az/web3-connect/business/contract"
	"github.com/fd1az/web3-connect/business/dashboard"
	dashboardDI "github.com/fd1az/web3-connect/business/dashboard/di"
	"github.com/fd1az/web3-connect/business/gas"
	gasDI "github.com/fd1az/web3-connect/business/gas/di"
	"github.com/fd1az/web3-connect/internal/apm"
	"github.com/fd1az/web3-connect/internal/config"
	"github.com/fd1az/web3-connect/internal/health"
	"github.com/fd1az/web3-connect/internal/logger"
	"github.com/fd1az/web3-connect/internal/metrics"
	"github.com/fd1az/web3-connect/internal/monolith"
	"github.com/fd1az/web3-connect/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("web3-connect %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set TUI mode in config so modules pick their reporter
	cfg.App.TUIMode = tuiMode

	// Logs go to the activity feed in TUI mode
	var out io.Writer = os.Stderr
	if tuiMode {
		out = ui.NewLogWriter()
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceID)
	log.Info(ctx, "starting web3-connect",
		"version", version,
		"environment", cfg.App.Environment,
		"wallet", cfg.Wallet.Injected(),
	)

	stopTelemetry, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer stopTelemetry()

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Dependency order: contexts, then resolvers, gas, and the dashboard reading all three
	modules := []monolith.Module{
		&connection.Module{},
		&contract.Module{},
		&gas.Module{},
		&dashboard.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	healthServer := newHealthServer(cfg, mono, log)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		healthServer.Stop(shutdownCtx)
	}()

	if tuiMode {
		// Start modules in background so the TUI shows immediately
		return runTUI(ctx, mono, modules)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCLI(ctx, mono, log)
}

// setupTelemetry installs tracing and metrics when enabled and returns their shutdown.
func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	provider, err := apm.ParseProvider(cfg.Telemetry.TraceExporter)
	if err != nil {
		return nil, err
	}

	traceProvider, err := apm.NewTraceProvider(ctx,
		apm.WithProvider(provider),
		apm.WithServiceName(cfg.Telemetry.ServiceName),
		apm.WithEndpoint(cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.Headers()),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", provider, "endpoint", cfg.Telemetry.OTLPEndpoint)

	metricProvider, err := metrics.NewMetricProvider(ctx,
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	promServer := metrics.NewPrometheusServer(log, metrics.WithPort(cfg.Telemetry.PrometheusPort))
	promServer.Start()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var errs []error
		errs = append(errs, promServer.Stop(shutdownCtx))
		errs = append(errs, metricProvider.Shutdown(shutdownCtx))
		errs = append(errs, traceProvider.Stop())
		if err := errors.Join(errs...); err != nil {
			log.Warn(shutdownCtx, "telemetry shutdown", "error", err)
		}
	}, nil
}

// newHealthServer reports each connection context. The service is ready while
// either context serves reads.
func newHealthServer(cfg *config.Config, mono monolith.Monolith, log logger.LoggerInterface) *health.Server {
	srv := health.NewServer(cfg.App.HealthPort, version, log)

	sr := mono.Services()
	srv.RegisterCheck("primary", contextCheck(connectionDI.GetPrimaryContext(sr)))
	srv.RegisterCheck("network", contextCheck(connectionDI.GetNetworkContext(sr)))
	srv.SetReadiness(health.AnyHealthy)

	return srv
}

func contextCheck(c connApp.ContextReader) health.CheckFunc {
	return func(ctx context.Context) health.Check {
		state := c.Snapshot()
		switch {
		case state.Error != nil:
			return health.Check{Message: state.Error.Error()}
		case !state.Active:
			return health.Check{Message: "inactive"}
		}
		return health.Check{
			Healthy: true,
			Message: fmt.Sprintf("chain %d via %s", state.ChainID, state.ConnectorName),
		}
	}
}

func runCLI(ctx context.Context, mono monolith.Monolith, log logger.LoggerInterface) error {
	svc := connectionDI.GetConnectionService(mono.Services())

	select {
	case <-svc.EagerDone():
		log.Info(ctx, "all modules started",
			"active", svc.Active().Name(),
			"wallet_connected", svc.Primary().Snapshot().Active)
	case <-ctx.Done():
	}

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	return nil
}

// wireKeys connects TUI key callbacks to the running services.
func wireKeys(ctx context.Context, mono monolith.Monolith) {
	sr := mono.Services()
	svc := connectionDI.GetConnectionService(sr)
	selector := gasDI.GetSelector(sr)
	monitor := dashboardDI.GetMonitor(sr)

	ui.OnCycleTier = func() {
		if err := selector.SetTier(selector.Tier().Next()); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
		}
	}
	ui.OnConnect = func() {
		if err := svc.Connect(ctx); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
		}
	}
	ui.OnDisconnect = svc.Disconnect
	ui.OnRefresh = monitor.Refresh
}

// startableMonolith is a Monolith that can also start its modules.
type startableMonolith interface {
	monolith.Monolith
	StartModules(ctx context.Context, modules ...monolith.Module) error
}

func startModules(ctx context.Context, mono startableMonolith, modules []monolith.Module) error {
	ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
	ui.Send(ui.StartupMsg{Step: "network", Status: "connecting"})
	ui.Send(ui.StartupMsg{Step: "wallet", Status: "connecting"})

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	wireKeys(ctx, mono)

	svc := connectionDI.GetConnectionService(mono.Services())
	go func() {
		select {
		case <-svc.EagerDone():
		case <-ctx.Done():
			return
		}

		primary := svc.Primary().Snapshot()
		switch {
		case primary.Active:
			ui.Send(ui.StartupMsg{Step: "wallet", Status: "connected"})
		case primary.Error != nil:
			ui.Send(ui.StartupMsg{Step: "wallet", Status: "failed", Message: primary.Error.Error()})
		default:
			ui.Send(ui.StartupMsg{Step: "wallet", Status: "done", Message: "read-only"})
		}
	}()

	return nil
}

func runTUI(ctx context.Context, mono startableMonolith, modules []monolith.Module) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		// Wait for the welcome screen to complete
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startModules(ctx, mono, modules); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
