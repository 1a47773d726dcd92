package acceptor

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/api-acceptor/flags"
)

// Config holds the application configuration
type Config struct {
	BaseURL        string
	APIKey         string
	ReportPath     string        // Absolute path of the HTML report
	ReportTitle    string        // Empty falls back to the scenarios file title
	ScenarioConfig string        // Absolute path of the scenario selection file, empty for the full catalog
	Tags           []string      // Only scenarios carrying one of these tags run
	RunInterval    time.Duration // Interval between test runs
	RunOnce        bool          // Indicates if the service should exit after one test run
	HTTPTimeout    time.Duration
	SlowThreshold  time.Duration
	SoftAssertions bool
	HealthzPort    int
	Out            io.Writer // Receives the console summary table
	Log            log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	cfg := &Config{
		BaseURL:        ctx.String(flags.BaseURL.Name),
		APIKey:         ctx.String(flags.APIKey.Name),
		ReportPath:     ctx.String(flags.ReportPath.Name),
		ReportTitle:    ctx.String(flags.ReportTitle.Name),
		ScenarioConfig: ctx.String(flags.Scenarios.Name),
		Tags:           ctx.StringSlice(flags.Tags.Name),
		RunInterval:    ctx.Duration(flags.RunInterval.Name),
		HTTPTimeout:    ctx.Duration(flags.HTTPTimeout.Name),
		SlowThreshold:  ctx.Duration(flags.SlowThreshold.Name),
		SoftAssertions: ctx.Bool(flags.SoftAssertions.Name),
		HealthzPort:    ctx.Int(flags.HealthzPort.Name),
		Out:            os.Stdout,
		Log:            log,
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Check validates the configuration and resolves relative paths
func (c *Config) Check() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL '%s': %w", c.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base URL '%s': expected http(s)://host", c.BaseURL)
	}

	if c.ReportPath == "" {
		return errors.New("report path is required")
	}
	absReport, err := filepath.Abs(c.ReportPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for report '%s': %w", c.ReportPath, err)
	}
	c.ReportPath = absReport

	if c.ScenarioConfig != "" {
		absScenarios, err := filepath.Abs(c.ScenarioConfig)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for scenarios '%s': %w", c.ScenarioConfig, err)
		}
		if _, err := os.Stat(absScenarios); err != nil {
			return fmt.Errorf("scenarios file '%s' is not readable: %w", absScenarios, err)
		}
		c.ScenarioConfig = absScenarios
	}

	if c.RunInterval < 0 {
		return fmt.Errorf("run interval must not be negative, got %s", c.RunInterval)
	}
	c.RunOnce = c.RunInterval == 0

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.SlowThreshold <= 0 {
		return fmt.Errorf("slow threshold must be positive, got %s", c.SlowThreshold)
	}
	if c.HealthzPort < 0 || c.HealthzPort > 65535 {
		return fmt.Errorf("invalid healthz port %d", c.HealthzPort)
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Log == nil {
		c.Log = log.New()
	}
	return nil
}
