package reporting

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/api-acceptor/metrics"
	"github.com/ethereum-optimism/infra/api-acceptor/types"
)

const (
	DefaultTitle      = "API Test Report"
	DefaultReportDir  = "Reports"
	DefaultReportFile = "TestReport.html"
	unknownPath       = "unknown"
)

// ErrNotInitialized is returned by Flush and Render before Initialize succeeded
var ErrNotInitialized = errors.New("report accumulator is not initialized")

// Config holds the accumulator configuration
type Config struct {
	Log   log.Logger
	Title string
	// RunID is shown in the report header. A new random ID is generated on
	// every Initialize when empty.
	RunID string
	// Environment overrides the detected machine information
	Environment *types.EnvironmentInfo
	// ReportTemplate and FragmentsTemplate override the embedded templates
	ReportTemplate    string
	FragmentsTemplate string
	Clock             func() time.Time
}

// Accumulator collects log entries per test case and renders them, together
// with summary statistics, into a single HTML document on Flush.
// It is safe for concurrent use; entries are attributed through the
// *TestCase handle returned by StartTest.
type Accumulator struct {
	mu        sync.Mutex
	log       log.Logger
	title     string
	fixedRun  string
	env       types.EnvironmentInfo
	clock     func() time.Time
	formatter *HTMLFormatter
	fragments *FragmentRenderer

	run          uint64 // incremented by Initialize; handles from earlier runs are inert
	initialized  bool
	outputPath   string
	runID        string
	startTime    time.Time
	lastActivity time.Time
	stats        types.ReportStats
	tests        []*TestCase
	current      *TestCase
}

// TestCase is the handle of one test case opened by StartTest
type TestCase struct {
	acc    *Accumulator
	run    uint64
	ended  bool
	result types.TestResult
}

// NewAccumulator creates a new report accumulator
func NewAccumulator(cfg Config) (*Accumulator, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	reportContent := cfg.ReportTemplate
	if reportContent == "" {
		content, err := GetTemplateContent(ReportTemplate)
		if err != nil {
			return nil, fmt.Errorf("failed to load report template: %w", err)
		}
		reportContent = content
	}
	formatter, err := NewHTMLFormatter(reportContent)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTML formatter: %w", err)
	}

	fragmentsContent := cfg.FragmentsTemplate
	if fragmentsContent == "" {
		content, err := GetTemplateContent(FragmentsTemplate)
		if err != nil {
			return nil, fmt.Errorf("failed to load fragments template: %w", err)
		}
		fragmentsContent = content
	}
	fragments, err := NewFragmentRenderer(fragmentsContent)
	if err != nil {
		return nil, fmt.Errorf("failed to create fragment renderer: %w", err)
	}

	env := detectEnvironment()
	if cfg.Environment != nil {
		env = *cfg.Environment
	}

	return &Accumulator{
		log:       cfg.Log,
		title:     cfg.Title,
		fixedRun:  cfg.RunID,
		env:       env,
		clock:     cfg.Clock,
		formatter: formatter,
		fragments: fragments,
	}, nil
}

func detectEnvironment() types.EnvironmentInfo {
	host, err := os.Hostname()
	if err != nil {
		host = unknownPath
	}
	return types.EnvironmentInfo{
		Machine:   host,
		OS:        runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion: runtime.Version(),
	}
}

// Initialize resets all counters and results and prepares a new report run
// that will be written to outputPath. The output directory is created if
// absent; nothing is written to the report file until Flush.
func (a *Accumulator) Initialize(outputPath string) error {
	if outputPath == "" {
		return errors.New("report output path is required")
	}
	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for report '%s': %w", outputPath, err)
	}
	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock()
	a.run++
	a.initialized = true
	a.outputPath = absPath
	a.runID = a.fixedRun
	if a.runID == "" {
		a.runID = uuid.New().String()
	}
	a.startTime = now
	a.lastActivity = now
	a.stats = types.ReportStats{}
	a.tests = nil
	a.current = nil

	a.log.Info("Report initialized", "path", absPath, "run_id", a.runID)
	return nil
}

// OutputPath returns the configured report path, or "unknown" before Initialize
func (a *Accumulator) OutputPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return unknownPath
	}
	return a.outputPath
}

// RunID returns the ID of the current report run
func (a *Accumulator) RunID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runID
}

// StartTest opens a new test case and makes it the current one.
// A test that is still open stays open; only the ambient current pointer moves.
func (a *Accumulator) StartTest(name, description string) *TestCase {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock()
	if a.current != nil {
		a.log.Warn("Starting test while another test is still active",
			"active", a.current.result.Name, "test", name)
	}

	tc := &TestCase{
		acc: a,
		run: a.run,
		result: types.TestResult{
			Name:        name,
			Description: description,
			Status:      types.TestStatusRunning,
			StartTime:   now,
		},
	}
	a.tests = append(a.tests, tc)
	a.current = tc
	a.stats.Tests++
	a.lastActivity = now

	a.log.Debug("Test started", "test", name)
	return tc
}

// Current returns the most recently started test that has not ended, or nil
func (a *Accumulator) Current() *TestCase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// LogPass records a pass entry on the current test
func (a *Accumulator) LogPass(message string) { a.Current().LogPass(message) }

// LogFail records a fail entry on the current test
func (a *Accumulator) LogFail(message string) { a.Current().LogFail(message) }

// LogInfo records an info entry on the current test
func (a *Accumulator) LogInfo(message string) { a.Current().LogInfo(message) }

// LogWarning records a warning entry on the current test
func (a *Accumulator) LogWarning(message string) { a.Current().LogWarning(message) }

// LogError records an error entry on the current test
func (a *Accumulator) LogError(message string) { a.Current().LogError(message) }

// LogRequest records an HTTP request on the current test
func (a *Accumulator) LogRequest(method, url, body string) {
	a.Current().LogRequest(method, url, body)
}

// LogResponse records an HTTP response on the current test
func (a *Accumulator) LogResponse(statusCode int, method, endpoint, body string) {
	a.Current().LogResponse(statusCode, method, endpoint, body)
}

// LogHeader records an HTTP header on the current test
func (a *Accumulator) LogHeader(name, value string) { a.Current().LogHeader(name, value) }

// EndTest closes the current test. It is a no-op when no test is active.
func (a *Accumulator) EndTest() { a.Current().End() }

// Name returns the test name
func (tc *TestCase) Name() string {
	if tc == nil {
		return ""
	}
	return tc.result.Name
}

// LogPass records a pass entry and increments the pass counter
func (tc *TestCase) LogPass(message string) {
	tc.append(types.LogKindPass, fragmentData{Message: message})
}

// LogFail records a fail entry and increments the fail counter
func (tc *TestCase) LogFail(message string) {
	tc.append(types.LogKindFail, fragmentData{Message: message})
}

// LogInfo records an info entry
func (tc *TestCase) LogInfo(message string) {
	tc.append(types.LogKindInfo, fragmentData{Message: message})
}

// LogWarning records a warning entry
func (tc *TestCase) LogWarning(message string) {
	tc.append(types.LogKindWarning, fragmentData{Message: message})
}

// LogError records an error entry. It marks the test failed without
// touching the fail counter.
func (tc *TestCase) LogError(message string) {
	tc.append(types.LogKindError, fragmentData{Message: message})
}

// LogRequest records the method, URL and optional body of an HTTP request
func (tc *TestCase) LogRequest(method, url, body string) {
	data := newBodyFragment(fragmentData{
		Message: method + " " + url,
		Method:  method,
		URL:     url,
	}, body)
	tc.append(types.LogKindRequest, data)
}

// LogResponse records the status code, method, endpoint and optional body of an HTTP response
func (tc *TestCase) LogResponse(statusCode int, method, endpoint, body string) {
	data := newBodyFragment(fragmentData{
		Message:     fmt.Sprintf("%d %s %s", statusCode, method, endpoint),
		Method:      method,
		URL:         endpoint,
		StatusCode:  statusCode,
		StatusClass: ClassifyStatus(statusCode),
	}, body)
	tc.append(types.LogKindResponse, data)
}

// LogHeader records one HTTP header
func (tc *TestCase) LogHeader(name, value string) {
	tc.append(types.LogKindHeader, fragmentData{
		Message:     name + ": " + value,
		HeaderName:  name,
		HeaderValue: value,
	})
}

// End closes the test case. The test passes unless a fail or error entry was recorded.
func (tc *TestCase) End() {
	if tc == nil || tc.acc == nil {
		return
	}
	tc.acc.end(tc)
}

func (tc *TestCase) append(kind types.LogKind, data fragmentData) {
	if tc == nil || tc.acc == nil {
		return
	}
	tc.acc.append(tc, kind, data)
}

func (a *Accumulator) append(tc *TestCase, kind types.LogKind, data fragmentData) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if tc.ended || tc.run != a.run {
		a.log.Debug("Dropping report entry for inactive test", "test", tc.result.Name, "kind", kind)
		return
	}

	data.Message = stripansi.Strip(data.Message)
	data.HeaderName = stripansi.Strip(data.HeaderName)
	data.HeaderValue = stripansi.Strip(data.HeaderValue)
	fragment, err := a.fragments.Render(kind, data)
	if err != nil {
		a.log.Error("Failed to render report entry", "test", tc.result.Name, "kind", kind, "err", err)
		fragment = template.HTML(template.HTMLEscapeString(data.Message))
	}

	now := a.clock()
	tc.result.Entries = append(tc.result.Entries, types.LogEntry{
		Kind:     kind,
		Message:  data.Message,
		Time:     now,
		Fragment: fragment,
	})
	a.lastActivity = now

	switch kind {
	case types.LogKindPass:
		a.stats.Passed++
		a.stats.Total++
	case types.LogKindFail:
		a.stats.Failed++
		a.stats.Total++
	}
	metrics.RecordLogEvent(kind)
	a.echo(tc.result.Name, kind, data.Message)
}

// echo mirrors a report entry to the structured logger
func (a *Accumulator) echo(test string, kind types.LogKind, message string) {
	switch kind {
	case types.LogKindPass:
		a.log.Info("PASS", "test", test, "message", message)
	case types.LogKindInfo:
		a.log.Info("INFO", "test", test, "message", message)
	case types.LogKindFail:
		a.log.Warn("FAIL", "test", test, "message", message)
	case types.LogKindWarning:
		a.log.Warn("WARN", "test", test, "message", message)
	case types.LogKindError:
		a.log.Error("ERROR", "test", test, "message", message)
	default:
		a.log.Debug("HTTP", "test", test, "kind", kind, "detail", message)
	}
}

func (a *Accumulator) end(tc *TestCase) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if tc.ended || tc.run != a.run {
		return
	}

	now := a.clock()
	tc.ended = true
	tc.result.EndTime = now
	if tc.result.HasFailure() {
		tc.result.Status = types.TestStatusFail
	} else {
		tc.result.Status = types.TestStatusPass
	}
	if a.current == tc {
		a.current = nil
	}
	a.lastActivity = now

	duration := tc.result.Duration(now)
	metrics.RecordTestResult(tc.result.Name, tc.result.Status, duration)
	a.log.Info("Test finished", "test", tc.result.Name, "status", tc.result.Status, "duration", duration)
}

// Stats returns the log-event counters of the current run
func (a *Accumulator) Stats() types.ReportStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Results returns copies of all test results in insertion order
func (a *Accumulator) Results() []types.TestResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]types.TestResult, len(a.tests))
	for i, tc := range a.tests {
		out[i] = tc.result.Clone()
	}
	return out
}

// Duration returns the time between Initialize and the last recorded activity
func (a *Accumulator) Duration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastActivity.Sub(a.startTime)
}

// Render renders the complete report document in memory
func (a *Accumulator) Render() (string, error) {
	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		return "", ErrNotInitialized
	}
	data := a.reportDataLocked()
	a.mu.Unlock()

	return a.formatter.Format(data)
}

func (a *Accumulator) reportDataLocked() *ReportData {
	data := &ReportData{
		Title:       a.title,
		RunID:       a.runID,
		GeneratedAt: a.startTime,
		Environment: a.env,
		Stats:       a.stats,
		SuccessRate: a.stats.SuccessRate(),
		Duration:    a.lastActivity.Sub(a.startTime),
		Tests:       make([]ReportTest, 0, len(a.tests)),
	}
	for i, tc := range a.tests {
		r := &tc.result
		entries := make([]template.HTML, len(r.Entries))
		for j, e := range r.Entries {
			entries[j] = e.Fragment
		}
		data.Tests = append(data.Tests, ReportTest{
			Index:       i + 1,
			Name:        r.Name,
			Description: r.Description,
			Status:      r.Status,
			StartTime:   r.StartTime,
			Duration:    r.Duration(a.lastActivity),
			Entries:     entries,
		})
	}
	return data
}

// Flush renders the report and writes it to the output path, overwriting
// any existing file. Failures are logged and returned; they never panic.
func (a *Accumulator) Flush() error {
	content, err := a.Render()
	if err != nil {
		if errors.Is(err, ErrNotInitialized) {
			a.log.Warn("Report flush skipped", "err", err)
			return err
		}
		a.log.Error("Failed to render test report", "err", err)
		metrics.RecordFlush(err)
		return fmt.Errorf("failed to render report: %w", err)
	}

	path := a.OutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		a.log.Error("Failed to create report directory", "path", path, "err", err)
		metrics.RecordFlush(err)
		return fmt.Errorf("failed to create report directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		a.log.Error("Failed to write test report", "path", path, "err", err)
		metrics.RecordFlush(err)
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}

	stats := a.Stats()
	metrics.RecordFlush(nil)
	metrics.RecordRun(stats, a.Duration())
	a.log.Info("Test report generated", "path", path,
		"passed", stats.Passed, "failed", stats.Failed, "total", stats.Total, "tests", stats.Tests)
	return nil
}
