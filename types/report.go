// Package types contains shared types used across the api-acceptor harness
package types

import (
	"html/template"
	"time"
)

// TestStatus represents the possible states of a test case in a report
type TestStatus string

const (
	TestStatusRunning TestStatus = "running"
	TestStatusPass    TestStatus = "pass"
	TestStatusFail    TestStatus = "fail"
)

// String implements the Stringer interface for TestStatus
func (s TestStatus) String() string {
	return string(s)
}

// LogKind identifies the kind of a report log entry
type LogKind string

const (
	LogKindPass     LogKind = "pass"
	LogKindFail     LogKind = "fail"
	LogKindInfo     LogKind = "info"
	LogKindWarning  LogKind = "warning"
	LogKindError    LogKind = "error"
	LogKindRequest  LogKind = "request"
	LogKindResponse LogKind = "response"
	LogKindHeader   LogKind = "header"
)

// String implements the Stringer interface for LogKind
func (k LogKind) String() string {
	return string(k)
}

// IsFailure reports whether an entry of this kind marks its test as failed
func (k LogKind) IsFailure() bool {
	return k == LogKindFail || k == LogKindError
}

// LogEntry is one rendered line of output attached to a test case
type LogEntry struct {
	Kind     LogKind
	Message  string
	Time     time.Time
	Fragment template.HTML // Rendered and escaped at log time, embedded verbatim in the report
}

// TestResult captures one executed test case
type TestResult struct {
	Name        string
	Description string
	Status      TestStatus
	Entries     []LogEntry
	StartTime   time.Time
	EndTime     time.Time // Zero while the test is still running
}

// HasFailure reports whether any failure-kind entry was recorded
func (r *TestResult) HasFailure() bool {
	for _, e := range r.Entries {
		if e.Kind.IsFailure() {
			return true
		}
	}
	return false
}

// Passed reports whether the test was closed without failure-kind entries
func (r *TestResult) Passed() bool {
	return r.Status == TestStatusPass
}

// Duration returns the elapsed time of the test. For a test that is still
// running the elapsed time is measured up to the given time.
func (r *TestResult) Duration(until time.Time) time.Duration {
	end := r.EndTime
	if end.IsZero() {
		end = until
	}
	if end.Before(r.StartTime) {
		return 0
	}
	return end.Sub(r.StartTime)
}

// Clone returns a deep copy of the result
func (r *TestResult) Clone() TestResult {
	c := *r
	c.Entries = make([]LogEntry, len(r.Entries))
	copy(c.Entries, r.Entries)
	return c
}

// ReportStats holds the log-event counters of a report run.
// Pass and Fail count LogPass/LogFail calls, not test outcomes.
type ReportStats struct {
	Passed int
	Failed int
	Total  int
	Tests  int
}

// SuccessRate returns Passed*100/Total using integer division, 0 when Total is 0
func (s ReportStats) SuccessRate() int {
	if s.Total == 0 {
		return 0
	}
	return s.Passed * 100 / s.Total
}

// EnvironmentInfo describes the machine a report was generated on
type EnvironmentInfo struct {
	Machine   string
	OS        string
	GoVersion string
}
