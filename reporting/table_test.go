package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/api-acceptor/types"
)

func TestTableReporter_Format(t *testing.T) {
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	results := []types.TestResult{
		{
			Name:      "GetUsersFromPage2",
			Status:    types.TestStatusPass,
			Entries:   []types.LogEntry{{Kind: types.LogKindPass}},
			StartTime: start,
			EndTime:   start.Add(120 * time.Millisecond),
		},
		{
			Name:      "FindUserById",
			Status:    types.TestStatusFail,
			Entries:   []types.LogEntry{{Kind: types.LogKindFail}, {Kind: types.LogKindError}},
			StartTime: start,
			EndTime:   start.Add(2 * time.Second),
		},
	}
	stats := types.ReportStats{Passed: 1, Failed: 1, Total: 2, Tests: 2}

	out := NewTableReporter("API Test Results").Format(results, stats, 3*time.Second)

	assert.Contains(t, out, "API Test Results")
	assert.Contains(t, out, "GetUsersFromPage2")
	assert.Contains(t, out, "FindUserById")
	assert.Contains(t, out, "120ms")
	assert.Contains(t, out, "PASSED")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "SUCCESS: 50%")
}

func TestTableReporter_Empty(t *testing.T) {
	out := NewTableReporter("Empty").Format(nil, types.ReportStats{}, 0)

	assert.Contains(t, out, "Empty")
	assert.Contains(t, out, "SUCCESS: 0%")
}
