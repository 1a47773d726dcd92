package templates

import (
	"fmt"
	"html/template"
	"time"

	"github.com/ethereum-optimism/infra/api-acceptor/types"
)

// GetTemplateFunc returns the centralized template functions used across the application
func GetTemplateFunc() template.FuncMap {
	return template.FuncMap{
		"formatDuration": FormatDuration,
		"formatTime": func(t time.Time) string {
			return t.Format("15:04:05")
		},
		"formatTimestamp": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
		"getStatusClass": func(status types.TestStatus) string {
			return getStatusString(status)
		},
		"getStatusText": func(status types.TestStatus) string {
			return StatusText(status)
		},
		"getStatusEmoji": StatusEmoji,
		"getOverallStatus": func(stats types.ReportStats) types.TestStatus {
			if stats.Failed > 0 {
				return types.TestStatusFail
			}
			if stats.Passed > 0 {
				return types.TestStatusPass
			}
			return types.TestStatusRunning
		},
	}
}

// FormatDuration formats a duration for display
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

// StatusText returns the uppercase display text for a status
func StatusText(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "PASSED"
	case types.TestStatusFail:
		return "FAILED"
	case types.TestStatusRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// StatusEmoji returns the status marker shown next to a test name
func StatusEmoji(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✅"
	case types.TestStatusFail:
		return "❌"
	case types.TestStatusRunning:
		return "⏳"
	default:
		return "❔"
	}
}

// getStatusString returns a consistent lowercase status string
func getStatusString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "pass"
	case types.TestStatusFail:
		return "fail"
	case types.TestStatusRunning:
		return "running"
	default:
		return "unknown"
	}
}
