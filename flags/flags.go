package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "API_ACCEPTOR"

var (
	BaseURL = &cli.StringFlag{
		Name:    "base-url",
		Value:   "https://reqres.in",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BASE_URL"),
		Usage:   "Base URL of the reqres API under test",
	}
	APIKey = &cli.StringFlag{
		Name:    "api-key",
		Value:   "reqres-free-v1",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "API_KEY"),
		Usage:   "Value sent in the x-api-key header",
	}
	ReportPath = &cli.StringFlag{
		Name:    "report-path",
		Value:   "Reports/TestReport.html",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_PATH"),
		Usage:   "Path of the HTML report written after every run",
	}
	ReportTitle = &cli.StringFlag{
		Name:    "report-title",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_TITLE"),
		Usage:   "Title of the HTML report. Defaults to the scenarios file title, then 'API Test Report'",
	}
	Scenarios = &cli.StringFlag{
		Name:    "scenarios",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SCENARIOS"),
		Usage:   "Path to a scenario selection file (eg. 'scenarios.yaml'). Runs the whole catalog when omitted",
	}
	Tags = &cli.StringSliceFlag{
		Name:    "tags",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TAGS"),
		Usage:   "Only run scenarios carrying one of these tags (eg. 'smoke')",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	HTTPTimeout = &cli.DurationFlag{
		Name:    "http-timeout",
		Value:   30 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HTTP_TIMEOUT"),
		Usage:   "Timeout of a single HTTP request",
	}
	SlowThreshold = &cli.DurationFlag{
		Name:    "slow-threshold",
		Value:   5 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SLOW_THRESHOLD"),
		Usage:   "Scenario execution time above which a warning is added to the report",
	}
	SoftAssertions = &cli.BoolFlag{
		Name:    "soft-assertions",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SOFT_ASSERTIONS"),
		Usage:   "Run every assertion of a scenario and report all failures together",
	}
	HealthzPort = &cli.IntFlag{
		Name:    "healthz.port",
		Value:   8080,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEALTHZ_PORT"),
		Usage:   "Port of the healthz server. Set to 0 to disable it",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	BaseURL,
	APIKey,
	ReportPath,
	ReportTitle,
	Scenarios,
	Tags,
	RunInterval,
	HTTPTimeout,
	SlowThreshold,
	SoftAssertions,
	HealthzPort,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
