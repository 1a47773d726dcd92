package scenarios

import (
	"context"
	"fmt"
	"strings"
)

// Keyword is the Gherkin keyword of a step
type Keyword string

const (
	Given Keyword = "Given"
	When  Keyword = "When"
	Then  Keyword = "Then"
	And   Keyword = "And"
)

// StepFunc executes one step against the scenario state
type StepFunc func(ctx context.Context, s *State) error

// Step is a single scenario step
type Step struct {
	Keyword Keyword
	Text    string
	Run     StepFunc
	// Assertion marks Then/And steps that may be collected in soft assertion mode
	Assertion bool
}

func (s Step) String() string {
	return fmt.Sprintf("%s %s", s.Keyword, s.Text)
}

// Scenario is a named sequence of steps
type Scenario struct {
	Name        string
	Description string
	Tags        []string
	Steps       []Step
}

// ReportDescription is the description shown for the scenario in the report
func (sc Scenario) ReportDescription() string {
	tags := "Tags: " + strings.Join(sc.Tags, ", ")
	if sc.Description == "" {
		return tags
	}
	return sc.Description + " | " + tags
}

// HasTag reports whether the scenario carries the tag, with or without a leading @
func (sc Scenario) HasTag(tag string) bool {
	want := strings.TrimPrefix(tag, "@")
	for _, t := range sc.Tags {
		if strings.EqualFold(strings.TrimPrefix(t, "@"), want) {
			return true
		}
	}
	return false
}

// Run executes the steps in order. Setup steps stop the scenario on the
// first error; assertion steps do too unless soft assertions are enabled,
// in which case every assertion runs and the failures are returned together.
func (sc Scenario) Run(ctx context.Context, s *State) error {
	for _, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scenario %s interrupted before '%s': %w", sc.Name, step, err)
		}
		err := step.Run(ctx, s)
		if err == nil {
			continue
		}
		if step.Assertion && s.SoftAssertions {
			s.AddError(err)
			continue
		}
		return err
	}
	return s.AssertNoErrors()
}
