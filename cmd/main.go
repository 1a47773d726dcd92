package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	acceptor "github.com/ethereum-optimism/infra/api-acceptor"
	"github.com/ethereum-optimism/infra/api-acceptor/flags"
	"github.com/ethereum-optimism/infra/api-acceptor/service"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "api-acceptor"
	app.Usage = "reqres API Acceptance Tester Service"
	app.Description = "api-acceptor runs acceptance scenarios against the reqres API and writes an HTML report"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
			return
		}
		// Runtime errors exit with 2, test failures and anything else with 1
		cli.HandleExitCoder(acceptor.ExitError(err))
	}
	return app
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := acceptor.NewConfig(ctx, log)
	if err != nil {
		return nil, acceptor.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	svcCfg := service.Config{
		Log:         log,
		HealthzHost: service.HealthzHost,
		HealthzPort: cfg.HealthzPort,
	}
	if metricsCfg := opmetrics.ReadCLIConfig(ctx); metricsCfg.Enabled {
		svcCfg.MetricsHost = metricsCfg.ListenAddr
		svcCfg.MetricsPort = metricsCfg.ListenPort
	}

	acc, err := acceptor.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, acceptor.NewRuntimeError(fmt.Errorf("failed to create acceptor: %w", err))
	}

	return &lifecycle{svc: service.New(svcCfg), acc: acc}, nil
}

// lifecycle runs the healthz and metrics servers alongside the acceptor
type lifecycle struct {
	svc *service.Service
	acc cliapp.Lifecycle
}

func (l *lifecycle) Start(ctx context.Context) error {
	l.svc.Start(ctx)
	return l.acc.Start(ctx)
}

func (l *lifecycle) Stop(ctx context.Context) error {
	err := l.acc.Stop(ctx)
	l.svc.Shutdown()
	return err
}

func (l *lifecycle) Stopped() bool {
	return l.acc.Stopped()
}
