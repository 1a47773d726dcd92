// Package acceptor runs the reqres API acceptance scenarios as a service,
// either once or periodically, writing one HTML report per run.
package acceptor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/api-acceptor/exitcodes"
	"github.com/ethereum-optimism/infra/api-acceptor/registry"
	"github.com/ethereum-optimism/infra/api-acceptor/reporting"
	"github.com/ethereum-optimism/infra/api-acceptor/reqres"
	"github.com/ethereum-optimism/infra/api-acceptor/runner"
)

// Acceptor implements cliapp.Lifecycle
type Acceptor struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry
	runner   runner.ScenarioRunner

	mu     sync.Mutex
	result *runner.RunResult

	running          atomic.Bool
	done             chan struct{}
	wg               sync.WaitGroup
	shutdownCallback func(error)
}

// New wires the registry, HTTP client, report accumulator and runner
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Acceptor, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if err := config.Check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating acceptor with config",
		"baseURL", config.BaseURL,
		"reportPath", config.ReportPath,
		"scenarios", config.ScenarioConfig,
		"tags", config.Tags,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"softAssertions", config.SoftAssertions)

	reg, err := registry.NewRegistry(registry.Config{
		Log:                config.Log,
		ScenarioConfigFile: config.ScenarioConfig,
		Tags:               config.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	client, err := reqres.NewClient(reqres.Config{
		Log:       config.Log,
		BaseURL:   config.BaseURL,
		APIKey:    config.APIKey,
		UserAgent: "api-acceptor/" + version,
		Timeout:   config.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reqres client: %w", err)
	}

	title := config.ReportTitle
	if title == "" {
		title = reg.Title()
	}
	report, err := reporting.NewAccumulator(reporting.Config{
		Log:   config.Log,
		Title: title,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create report accumulator: %w", err)
	}

	scenarioRunner, err := runner.NewScenarioRunner(runner.Config{
		Log:            config.Log,
		Registry:       reg,
		Client:         client,
		Report:         report,
		ReportPath:     config.ReportPath,
		SoftAssertions: config.SoftAssertions,
		SlowThreshold:  config.SlowThreshold,
		Out:            config.Out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario runner: %w", err)
	}
	config.Log.Info("acceptor.New: created registry and scenario runner", "scenarios", len(reg.GetScenarios()))

	return &Acceptor{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		runner:           scenarioRunner,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the scenarios immediately. In run-once mode it returns the
// outcome of that run; otherwise it keeps running them every RunInterval
// until Stop is called or the context is canceled.
func (a *Acceptor) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	a.ctx = ctx
	a.done = make(chan struct{})
	a.running.Store(true)

	if a.config.RunOnce {
		a.config.Log.Info("Starting api-acceptor in run-once mode", "version", a.version)
	} else {
		a.config.Log.Info("Starting api-acceptor in continuous mode", "version", a.version, "interval", a.config.RunInterval)
	}

	if err := a.runTests(); err != nil {
		a.config.Log.Error("Runtime error running scenarios", "error", err)
		return NewRuntimeError(err)
	}

	if a.config.RunOnce {
		a.config.Log.Info("Scenarios completed, exiting (run-once mode)")

		result := a.Result()
		if result != nil && result.Failed() {
			a.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
			return NewTestFailureError(fmt.Sprintf("%d of %d scenarios failed (report: %s)",
				countFailed(result), len(result.Results), result.ReportPath))
		}

		go func() {
			a.shutdownCallback(nil)
		}()
		return nil
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.config.Log.Debug("Starting periodic scenario runner goroutine", "interval", a.config.RunInterval)

		for {
			select {
			case <-time.After(a.config.RunInterval):
				if !a.running.Load() {
					a.config.Log.Debug("Service stopped, exiting periodic scenario runner")
					return
				}

				a.config.Log.Info("Running periodic scenarios")
				if err := a.runTests(); err != nil {
					a.config.Log.Error("Error running periodic scenarios", "error", err)
				}

			case <-a.done:
				a.config.Log.Debug("Done signal received, stopping periodic scenario runner")
				return

			case <-ctx.Done():
				a.config.Log.Debug("Context canceled, stopping periodic scenario runner")
				a.running.Store(false)
				return
			}
		}
	}()
	a.config.Log.Debug("api-acceptor started successfully")
	return nil
}

func (a *Acceptor) runTests() error {
	result, err := a.runner.RunAll(a.ctx)
	if err != nil {
		return fmt.Errorf("error running scenarios: %w", err)
	}

	a.mu.Lock()
	a.result = result
	a.mu.Unlock()

	a.config.Log.Info("Scenario run finished",
		"run_id", result.RunID,
		"status", result.Status,
		"passed", result.Stats.Passed,
		"failed", result.Stats.Failed,
		"tests", result.Stats.Tests,
		"duration", result.Duration,
		"report", result.ReportPath)
	if result.Interrupted {
		a.config.Log.Warn("Scenario run was interrupted", "run_id", result.RunID)
	}
	return nil
}

// Stop signals the periodic runner to exit and waits for it
func (a *Acceptor) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping api-acceptor")

	if !a.running.Load() {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	a.running.Store(false)
	close(a.done)

	waited := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for the scenario runner to stop: %w", ctx.Err())
	}

	a.config.Log.Info("api-acceptor stopped successfully")
	return nil
}

// Stopped reports whether the service is no longer running
func (a *Acceptor) Stopped() bool {
	return !a.running.Load()
}

// Result returns the outcome of the most recent run
func (a *Acceptor) Result() *runner.RunResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

func countFailed(result *runner.RunResult) int {
	n := 0
	for _, res := range result.Results {
		if !res.Passed() {
			n++
		}
	}
	return n
}

// ExitError converts an error into the cli exit error carrying the matching exit code
func ExitError(err error) cli.ExitCoder {
	if err == nil {
		return nil
	}
	return cli.Exit(err.Error(), ExitCode(err))
}
