package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/api-acceptor/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "api_acceptor"
)

var (
	Debug                bool = true
	validResults              = []types.TestStatus{types.TestStatusPass, types.TestStatusFail}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	reportLogEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "report_log_events_total",
		Help:      "Count of log entries recorded into the report",
	}, []string{
		"kind",
	})

	testResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_results_total",
		Help:      "Count of closed test cases by outcome",
	}, []string{
		"name",
		"result",
	})

	testDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "test_duration_seconds",
		Help:      "Duration of the last run of each test case",
	}, []string{
		"name",
	})

	reportFlushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "report_flushes_total",
		Help:      "Count of report flushes",
	}, []string{
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Log-event counters of the last report run",
	}, []string{
		"counter",
	})

	runDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of the last report run",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests made against the API under test",
	}, []string{
		"method",
		"endpoint",
		"status",
	})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests made against the API under test",
		Buckets:   prometheus.DefBuckets,
	}, []string{
		"method",
		"endpoint",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordLogEvent(kind types.LogKind) {
	reportLogEventsTotal.WithLabelValues(string(kind)).Inc()
}

func RecordTestResult(name string, result types.TestStatus, duration time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordTestResult - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "test_results_total",
			"name", name,
			"result", result)
	}
	testResultsTotal.WithLabelValues(name, string(result)).Inc()
	testDuration.WithLabelValues(name).Set(duration.Seconds())
}

func RecordFlush(err error) {
	if err != nil {
		reportFlushesTotal.WithLabelValues("error").Inc()
		RecordErrorDetails("report_flush", err)
		return
	}
	reportFlushesTotal.WithLabelValues("ok").Inc()
}

func RecordRun(stats types.ReportStats, duration time.Duration) {
	runResults.WithLabelValues("passed").Set(float64(stats.Passed))
	runResults.WithLabelValues("failed").Set(float64(stats.Failed))
	runResults.WithLabelValues("total").Set(float64(stats.Total))
	runResults.WithLabelValues("tests").Set(float64(stats.Tests))
	runDuration.Set(duration.Seconds())
}

func RecordHTTPRequest(method string, endpoint string, status int, duration time.Duration) {
	statusLabel := "none"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	httpRequestsTotal.WithLabelValues(method, endpoint, statusLabel).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func isValidResult(result types.TestStatus) bool {
	return slices.Contains(validResults, result)
}
