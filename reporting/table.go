package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/api-acceptor/templates"
	"github.com/ethereum-optimism/infra/api-acceptor/types"
)

// TableReporter renders a console summary of a report run
type TableReporter struct {
	title string
}

// NewTableReporter creates a new table reporter
func NewTableReporter(title string) *TableReporter {
	return &TableReporter{title: title}
}

// Format formats test results and log-event counters as an ASCII table
func (tr *TableReporter) Format(results []types.TestResult, stats types.ReportStats, duration time.Duration) string {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(tr.title)
	t.AppendHeader(table.Row{"#", "TEST", "DURATION", "ENTRIES", "STATUS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "TEST", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "DURATION", Align: text.AlignRight},
		{Name: "ENTRIES", Align: text.AlignRight},
	})

	failedTests := 0
	for i, r := range results {
		if r.Status == types.TestStatusFail {
			failedTests++
		}
		t.AppendRow(table.Row{
			i + 1,
			r.Name,
			templates.FormatDuration(r.Duration(r.EndTime)),
			len(r.Entries),
			templates.StatusText(r.Status),
		})
	}

	switch {
	case failedTests > 0 || stats.Failed > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case len(results) > 0:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	default:
		t.SetStyle(table.StyleDefault)
	}

	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("Passed: %d  Failed: %d  Total: %d  Success: %d%%", stats.Passed, stats.Failed, stats.Total, stats.SuccessRate()),
		templates.FormatDuration(duration),
		stats.Tests,
		fmt.Sprintf("%d FAILED", failedTests),
	})

	t.Render()
	return buf.String()
}
