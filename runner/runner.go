package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/api-acceptor/registry"
	"github.com/ethereum-optimism/infra/api-acceptor/reporting"
	"github.com/ethereum-optimism/infra/api-acceptor/reqres"
	"github.com/ethereum-optimism/infra/api-acceptor/scenarios"
	"github.com/ethereum-optimism/infra/api-acceptor/types"
)

// DefaultSlowThreshold is the execution time above which a scenario gets a warning entry
const DefaultSlowThreshold = 5 * time.Second

// RunResult captures the outcome of one pass over the selected scenarios
type RunResult struct {
	RunID      string
	ReportPath string
	Stats      types.ReportStats
	Results    []types.TestResult
	Status     types.TestStatus
	Duration   time.Duration
	// Interrupted is set when the context was canceled before every scenario ran
	Interrupted bool
	// FlushErr holds the report write failure, if any. The run itself still completes.
	FlushErr error
}

// Failed reports whether any scenario failed
func (r *RunResult) Failed() bool {
	return r.Status == types.TestStatusFail
}

// ScenarioRunner runs the selected scenarios into a single report
type ScenarioRunner interface {
	RunAll(ctx context.Context) (*RunResult, error)
}

// Config holds configuration for creating a new runner
type Config struct {
	Log            log.Logger
	Registry       *registry.Registry
	Client         *reqres.Client
	Report         *reporting.Accumulator
	ReportPath     string
	SoftAssertions bool
	SlowThreshold  time.Duration
	// Out receives the console summary table; os.Stdout when nil
	Out   io.Writer
	Clock func() time.Time
}

type runner struct {
	log        log.Logger
	registry   *registry.Registry
	client     *reqres.Client
	report     *reporting.Accumulator
	reportPath string
	soft       bool
	slow       time.Duration
	out        io.Writer
	clock      func() time.Time
	tracer     trace.Tracer
}

// NewScenarioRunner creates a new runner instance
func NewScenarioRunner(cfg Config) (ScenarioRunner, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("reqres client is required")
	}
	if cfg.Report == nil {
		return nil, fmt.Errorf("report accumulator is required")
	}
	if cfg.ReportPath == "" {
		return nil, fmt.Errorf("report path is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = DefaultSlowThreshold
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	cfg.Log.Debug("NewScenarioRunner()", "reportPath", cfg.ReportPath,
		"softAssertions", cfg.SoftAssertions, "slowThreshold", cfg.SlowThreshold,
		"scenarios", len(cfg.Registry.GetScenarios()))

	return &runner{
		log:        cfg.Log,
		registry:   cfg.Registry,
		client:     cfg.Client,
		report:     cfg.Report,
		reportPath: cfg.ReportPath,
		soft:       cfg.SoftAssertions,
		slow:       cfg.SlowThreshold,
		out:        cfg.Out,
		clock:      cfg.Clock,
		tracer:     otel.Tracer("scenario runner"),
	}, nil
}

// RunAll initializes the report, runs every selected scenario and flushes
// the report once at the end. Only a report initialization failure is
// returned as an error; scenario failures and flush failures are part of
// the result.
func (r *runner) RunAll(ctx context.Context) (*RunResult, error) {
	ctx, span := r.tracer.Start(ctx, "scenario run")
	defer span.End()

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)
	start := r.clock()

	if err := r.report.Initialize(r.reportPath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report initialization failed")
		return nil, fmt.Errorf("failed to initialize report: %w", err)
	}
	runID := r.report.RunID()
	span.SetAttributes(attribute.String("run.id", runID))

	selected := r.registry.GetScenarios()
	r.log.Info("Test suite started", "run_id", runID, "scenarios", len(selected),
		"target", r.client.BaseURL(), "report", r.report.OutputPath())

	result := &RunResult{
		RunID:      runID,
		ReportPath: r.report.OutputPath(),
	}

	for _, sc := range selected {
		if ctx.Err() != nil {
			r.log.Warn("Run interrupted, skipping remaining scenarios", "next", sc.Name, "err", ctx.Err())
			result.Interrupted = true
			break
		}
		r.runScenario(ctx, sc)
	}

	if err := r.report.Flush(); err != nil {
		r.log.Error("Report was not written", "path", result.ReportPath, "err", err)
		result.FlushErr = err
	}

	result.Stats = r.report.Stats()
	result.Results = r.report.Results()
	result.Duration = r.clock().Sub(start)
	result.Status = determineRunStatus(result.Results)

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)
	r.log.Info("Suite diagnostics",
		"total_time", result.Duration,
		"memory_before_mb", memBefore.HeapAlloc/1024/1024,
		"memory_after_mb", memAfter.HeapAlloc/1024/1024)

	table := reporting.NewTableReporter(fmt.Sprintf("API Test Results (run %s)", runID))
	if _, err := fmt.Fprintln(r.out, table.Format(result.Results, result.Stats, result.Duration)); err != nil {
		r.log.Warn("Failed to print summary table", "err", err)
	}

	span.SetAttributes(
		attribute.Int("run.passed", result.Stats.Passed),
		attribute.Int("run.failed", result.Stats.Failed),
		attribute.Int("run.tests", result.Stats.Tests))
	if result.Failed() {
		span.SetStatus(codes.Error, "scenarios failed")
	}
	return result, nil
}

// runScenario wraps one scenario in the before/after hooks that frame it in the report
func (r *runner) runScenario(ctx context.Context, sc scenarios.Scenario) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("scenario %s", sc.Name))
	defer span.End()
	span.SetAttributes(
		attribute.String("scenario.name", sc.Name),
		attribute.StringSlice("scenario.tags", sc.Tags))

	start := r.clock()
	tc := r.report.StartTest(sc.Name, sc.ReportDescription())
	r.log.Info("Starting scenario", "scenario", sc.Name)
	tc.LogInfo("Scenario Started: " + sc.Name)
	tc.LogInfo(fmt.Sprintf("⏱️ Test started at %s", start.Format("15:04:05")))

	err := sc.Run(ctx, scenarios.NewState(r.client, tc, r.soft))

	elapsed := r.clock().Sub(start)
	tc.LogInfo(fmt.Sprintf("⏱️ Execution time: %dms", elapsed.Milliseconds()))
	if elapsed > r.slow {
		tc.LogWarning(fmt.Sprintf("⚠️ Test took longer than expected: %dms", elapsed.Milliseconds()))
	}

	if err != nil {
		tc.LogFail("Scenario Failed: " + sc.Name)
		tc.LogError(err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Warn("Scenario failed", "scenario", sc.Name, "duration", elapsed, "err", err)
	} else {
		tc.LogPass("Scenario Passed: " + sc.Name)
		span.SetStatus(codes.Ok, "")
		r.log.Info("Scenario passed", "scenario", sc.Name, "duration", elapsed)
	}
	tc.End()
}

func determineRunStatus(results []types.TestResult) types.TestStatus {
	for _, res := range results {
		if !res.Passed() {
			return types.TestStatusFail
		}
	}
	return types.TestStatusPass
}
