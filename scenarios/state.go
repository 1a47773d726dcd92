// Package scenarios holds the Given/When/Then acceptance scenarios run against the reqres API.
package scenarios

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ethereum-optimism/infra/api-acceptor/reqres"
)

// Recorder receives step output and HTTP exchanges for the current test
type Recorder interface {
	reqres.ExchangeRecorder
	LogInfo(message string)
}

// State is shared by the steps of one scenario
type State struct {
	Client   *reqres.Client
	Recorder Recorder

	Response     *reqres.Response
	Body         map[string]json.RawMessage
	CurrentUser  map[string]json.RawMessage
	CurrentEmail string

	// SoftAssertions makes Then steps collect failures instead of stopping the scenario
	SoftAssertions bool

	errs []error
}

// NewState creates the state for one scenario run
func NewState(client *reqres.Client, rec Recorder, soft bool) *State {
	return &State{
		Client:         client,
		Recorder:       rec,
		SoftAssertions: soft,
	}
}

func (s *State) info(message string) {
	if s.Recorder != nil {
		s.Recorder.LogInfo(message)
	}
}

// AddError records a soft assertion failure
func (s *State) AddError(err error) {
	s.errs = append(s.errs, err)
}

// Errors returns the collected soft assertion failures
func (s *State) Errors() []error {
	return s.errs
}

// AssertNoErrors returns a ValidationError when soft assertions failed
func (s *State) AssertNoErrors() error {
	if len(s.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: s.errs}
}

// ValidationError groups the soft assertion failures of a scenario
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return "Validation errors:\n" + strings.Join(msgs, "\n")
}

func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
