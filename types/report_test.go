package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogKindIsFailure(t *testing.T) {
	failures := []LogKind{LogKindFail, LogKindError}
	others := []LogKind{LogKindPass, LogKindInfo, LogKindWarning, LogKindRequest, LogKindResponse, LogKindHeader}

	for _, k := range failures {
		assert.True(t, k.IsFailure(), "%s should be a failure kind", k)
	}
	for _, k := range others {
		assert.False(t, k.IsFailure(), "%s should not be a failure kind", k)
	}
}

func TestTestResultHasFailure(t *testing.T) {
	r := &TestResult{Name: "A"}
	assert.False(t, r.HasFailure())

	r.Entries = append(r.Entries, LogEntry{Kind: LogKindPass}, LogEntry{Kind: LogKindWarning})
	assert.False(t, r.HasFailure())

	r.Entries = append(r.Entries, LogEntry{Kind: LogKindError})
	assert.True(t, r.HasFailure())
}

func TestTestResultDuration(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	running := &TestResult{StartTime: start}
	assert.Equal(t, 3*time.Second, running.Duration(start.Add(3*time.Second)))
	assert.Equal(t, time.Duration(0), running.Duration(start.Add(-time.Second)))

	ended := &TestResult{StartTime: start, EndTime: start.Add(250 * time.Millisecond)}
	assert.Equal(t, 250*time.Millisecond, ended.Duration(start.Add(time.Hour)))
}

func TestTestResultClone(t *testing.T) {
	orig := &TestResult{Name: "A", Entries: []LogEntry{{Kind: LogKindInfo, Message: "one"}}}
	c := orig.Clone()
	c.Entries[0].Message = "changed"
	c.Entries = append(c.Entries, LogEntry{Kind: LogKindPass})

	assert.Equal(t, "one", orig.Entries[0].Message)
	assert.Len(t, orig.Entries, 1)
}

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name  string
		stats ReportStats
		want  int
	}{
		{name: "no events", stats: ReportStats{}, want: 0},
		{name: "all passed", stats: ReportStats{Passed: 3, Total: 3}, want: 100},
		{name: "half", stats: ReportStats{Passed: 1, Failed: 1, Total: 2}, want: 50},
		{name: "integer division", stats: ReportStats{Passed: 2, Failed: 1, Total: 3}, want: 66},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stats.SuccessRate())
		})
	}
}
