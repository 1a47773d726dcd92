package runner

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ethereum-optimism/infra/api-acceptor/registry"
	"github.com/ethereum-optimism/infra/api-acceptor/reporting"
	"github.com/ethereum-optimism/infra/api-acceptor/reqres"
	"github.com/ethereum-optimism/infra/api-acceptor/reqres/reqrestest"
	"github.com/ethereum-optimism/infra/api-acceptor/scenarios"
	"github.com/ethereum-optimism/infra/api-acceptor/types"
)

// stepClock advances by step on every call
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

type fixture struct {
	twin       *reqrestest.Server
	reportPath string
	out        *bytes.Buffer
	report     *reporting.Accumulator
	client     *reqres.Client
}

func newFixture(opts ...reqrestest.Option) *fixture {
	discard := log.NewLogger(log.DiscardHandler())
	twin := reqrestest.NewServer(opts...)
	srv := httptest.NewServer(twin.Router())
	DeferCleanup(srv.Close)

	client, err := reqres.NewClient(reqres.Config{Log: discard, BaseURL: srv.URL, APIKey: reqres.DefaultAPIKey})
	Expect(err).NotTo(HaveOccurred())

	report, err := reporting.NewAccumulator(reporting.Config{
		Log:         discard,
		RunID:       "run-ginkgo",
		Environment: &types.EnvironmentInfo{Machine: "ci", OS: "linux/amd64", GoVersion: "go1.26"},
	})
	Expect(err).NotTo(HaveOccurred())

	return &fixture{
		twin:       twin,
		reportPath: filepath.Join(GinkgoT().TempDir(), reporting.DefaultReportDir, reporting.DefaultReportFile),
		out:        &bytes.Buffer{},
		report:     report,
		client:     client,
	}
}

func (f *fixture) runner(cfg registry.Config, mutate ...func(*Config)) ScenarioRunner {
	cfg.Log = log.NewLogger(log.DiscardHandler())
	reg, err := registry.NewRegistry(cfg)
	Expect(err).NotTo(HaveOccurred())

	rc := Config{
		Log:        log.NewLogger(log.DiscardHandler()),
		Registry:   reg,
		Client:     f.client,
		Report:     f.report,
		ReportPath: f.reportPath,
		Out:        f.out,
	}
	for _, m := range mutate {
		m(&rc)
	}
	r, err := NewScenarioRunner(rc)
	Expect(err).NotTo(HaveOccurred())
	return r
}

func (f *fixture) html() string {
	content, err := os.ReadFile(f.reportPath)
	Expect(err).NotTo(HaveOccurred())
	return string(content)
}

func entryMessages(res types.TestResult) []string {
	msgs := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

var _ = Describe("ScenarioRunner", func() {
	Context("when the API behaves", func() {
		It("passes every catalog scenario and writes one report", func() {
			f := newFixture(reqrestest.WithAPIKey(reqres.DefaultAPIKey))
			result, err := f.runner(registry.Config{}).RunAll(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(result.RunID).To(Equal("run-ginkgo"))
			Expect(result.Status).To(Equal(types.TestStatusPass))
			Expect(result.Failed()).To(BeFalse())
			Expect(result.Interrupted).To(BeFalse())
			Expect(result.FlushErr).NotTo(HaveOccurred())
			Expect(result.Results).To(HaveLen(len(scenarios.Catalog())))
			Expect(result.Stats).To(Equal(types.ReportStats{Passed: 5, Failed: 0, Total: 5, Tests: 5}))
			Expect(f.twin.Requests()).To(Equal(5))

			html := f.html()
			Expect(html).To(ContainSubstring(`id="success-rate">100%`))
			for _, name := range scenarios.Names() {
				Expect(html).To(ContainSubstring(name))
			}
			Expect(f.out.String()).To(ContainSubstring("run-ginkgo"))
		})

		It("frames each scenario with the before and after hooks", func() {
			f := newFixture()
			result, err := f.runner(registry.Config{Tags: []string{"smoke"}}).RunAll(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Results).To(HaveLen(1))

			res := result.Results[0]
			Expect(res.Name).To(Equal(scenarios.GetUsersFromPage2))
			Expect(res.Description).To(Equal("Tags: @api, @users, @smoke"))
			Expect(res.Status).To(Equal(types.TestStatusPass))

			msgs := entryMessages(res)
			Expect(msgs[0]).To(Equal("Scenario Started: GetUsersFromPage2"))
			Expect(msgs[1]).To(HavePrefix("⏱️ Test started at "))
			Expect(msgs).To(ContainElement("✓ Response status: 200"))
			Expect(msgs).To(ContainElement("✓ Page value: 2"))
			Expect(msgs).To(ContainElement(HavePrefix("⏱️ Execution time: ")))
			Expect(msgs[len(msgs)-1]).To(Equal("Scenario Passed: GetUsersFromPage2"))
		})

		It("records the HTTP exchange in the test entries", func() {
			f := newFixture()
			result, err := f.runner(registry.Config{Tags: []string{"pagination"}}).RunAll(context.Background())
			Expect(err).NotTo(HaveOccurred())

			var kinds []types.LogKind
			for _, e := range result.Results[0].Entries {
				kinds = append(kinds, e.Kind)
			}
			Expect(kinds).To(ContainElements(types.LogKindRequest, types.LogKindHeader, types.LogKindResponse))
			Expect(f.html()).To(ContainSubstring("reqr**********"))
			Expect(f.html()).NotTo(ContainSubstring(reqres.DefaultAPIKey))
		})
	})

	Context("when the API misbehaves", func() {
		It("fails the scenario and records the error", func() {
			f := newFixture()
			f.twin.FailWith(http.StatusInternalServerError)
			result, err := f.runner(registry.Config{Tags: []string{"search"}}).RunAll(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Status).To(Equal(types.TestStatusFail))
			Expect(result.Stats).To(Equal(types.ReportStats{Passed: 0, Failed: 1, Total: 1, Tests: 1}))

			res := result.Results[0]
			Expect(res.Status).To(Equal(types.TestStatusFail))
			last := res.Entries[len(res.Entries)-2:]
			Expect(last[0].Kind).To(Equal(types.LogKindFail))
			Expect(last[0].Message).To(Equal("Scenario Failed: FindUserById"))
			Expect(last[1].Kind).To(Equal(types.LogKindError))
			Expect(last[1].Message).To(Equal("Expected status 200, got 500"))

			Expect(f.html()).To(ContainSubstring(`id="success-rate">0%`))
		})

		It("collects soft assertion failures into one error entry", func() {
			var users []reqres.User
			for _, u := range reqrestest.Users() {
				if u.ID != 8 {
					users = append(users, u)
				}
			}
			f := newFixture(reqrestest.WithUsers(users))
			result, err := f.runner(registry.Config{Tags: []string{"email"}}, func(c *Config) {
				c.SoftAssertions = true
			}).RunAll(context.Background())
			Expect(err).NotTo(HaveOccurred())

			res := result.Results[0]
			errEntry := res.Entries[len(res.Entries)-1]
			Expect(errEntry.Kind).To(Equal(types.LogKindError))
			Expect(errEntry.Message).To(HavePrefix("Validation errors:\n"))
			Expect(strings.Count(errEntry.Message, "\n")).To(Equal(4))
		})

		It("keeps going after a failed scenario", func() {
			f := newFixture()
			f.twin.OverrideField("total_pages", nil)
			result, err := f.runner(registry.Config{}).RunAll(context.Background())
			Expect(err).NotTo(HaveOccurred())

			statuses := map[string]types.TestStatus{}
			for _, res := range result.Results {
				statuses[res.Name] = res.Status
			}
			Expect(statuses).To(HaveLen(5))
			Expect(statuses[scenarios.VerifyPagination]).To(Equal(types.TestStatusFail))
			Expect(statuses[scenarios.GetUsersFromPage2]).To(Equal(types.TestStatusPass))
			Expect(result.Stats.Passed).To(Equal(4))
			Expect(result.Stats.Failed).To(Equal(1))
		})
	})

	It("warns about slow scenarios", func() {
		f := newFixture()
		clock := &stepClock{now: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC), step: 3 * time.Second}
		result, err := f.runner(registry.Config{Tags: []string{"smoke"}}, func(c *Config) {
			c.Clock = clock.Now
		}).RunAll(context.Background())
		Expect(err).NotTo(HaveOccurred())

		msgs := entryMessages(result.Results[0])
		Expect(msgs).To(ContainElement("⏱️ Execution time: 3000ms"))
		Expect(msgs).NotTo(ContainElement(HavePrefix("⚠️")))

		clock.step = 6 * time.Second
		result, err = f.runner(registry.Config{Tags: []string{"smoke"}}, func(c *Config) {
			c.Clock = clock.Now
		}).RunAll(context.Background())
		Expect(err).NotTo(HaveOccurred())

		var warnings []types.LogEntry
		for _, e := range result.Results[0].Entries {
			if e.Kind == types.LogKindWarning {
				warnings = append(warnings, e)
			}
		}
		Expect(warnings).To(HaveLen(1))
		Expect(warnings[0].Message).To(Equal("⚠️ Test took longer than expected: 6000ms"))
		Expect(result.Status).To(Equal(types.TestStatusPass))
	})

	It("stops between scenarios when the context is canceled", func() {
		f := newFixture()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := f.runner(registry.Config{}).RunAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Interrupted).To(BeTrue())
		Expect(result.Results).To(BeEmpty())
		Expect(f.twin.Requests()).To(BeZero())
		Expect(f.html()).To(ContainSubstring(`id="test-count">0`))
	})

	It("fails fast when the report directory cannot be created", func() {
		f := newFixture()
		blocker := filepath.Join(GinkgoT().TempDir(), "file")
		Expect(os.WriteFile(blocker, []byte("x"), 0644)).To(Succeed())
		f.reportPath = filepath.Join(blocker, "Reports", "TestReport.html")

		_, err := f.runner(registry.Config{}).RunAll(context.Background())
		Expect(err).To(MatchError(ContainSubstring("failed to initialize report")))
		Expect(f.twin.Requests()).To(BeZero())
	})

	It("finishes the run when the report cannot be written", func() {
		f := newFixture()
		Expect(os.MkdirAll(f.reportPath, 0755)).To(Succeed())

		result, err := f.runner(registry.Config{Tags: []string{"smoke"}}).RunAll(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.FlushErr).To(HaveOccurred())
		Expect(result.Status).To(Equal(types.TestStatusPass))
	})

	It("rejects incomplete configuration", func() {
		f := newFixture()
		reg, err := registry.NewRegistry(registry.Config{Log: log.NewLogger(log.DiscardHandler())})
		Expect(err).NotTo(HaveOccurred())

		_, err = NewScenarioRunner(Config{Client: f.client, Report: f.report, ReportPath: f.reportPath})
		Expect(err).To(MatchError("registry is required"))
		_, err = NewScenarioRunner(Config{Registry: reg, Report: f.report, ReportPath: f.reportPath})
		Expect(err).To(MatchError("reqres client is required"))
		_, err = NewScenarioRunner(Config{Registry: reg, Client: f.client, ReportPath: f.reportPath})
		Expect(err).To(MatchError("report accumulator is required"))
		_, err = NewScenarioRunner(Config{Registry: reg, Client: f.client, Report: f.report})
		Expect(err).To(MatchError("report path is required"))
	})
})
