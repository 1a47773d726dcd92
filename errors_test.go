package acceptor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/api-acceptor/exitcodes"
)

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		isRuntime     bool
		isTestFailure bool
		exitCode      int
	}{
		{name: "nil", err: nil, exitCode: exitcodes.Success},
		{name: "runtime", err: NewRuntimeError(errors.New("boom")), isRuntime: true, exitCode: exitcodes.RuntimeErr},
		{name: "wrapped runtime", err: fmt.Errorf("start: %w", NewRuntimeError(errors.New("boom"))), isRuntime: true, exitCode: exitcodes.RuntimeErr},
		{name: "test failure", err: NewTestFailureError("1 of 5 scenarios failed"), isTestFailure: true, exitCode: exitcodes.TestFailure},
		{name: "plain", err: errors.New("other"), exitCode: exitcodes.TestFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isRuntime, IsRuntimeError(tt.err))
			assert.Equal(t, tt.isTestFailure, IsTestFailureError(tt.err))
			assert.Equal(t, tt.exitCode, ExitCode(tt.err))
		})
	}

	assert.Equal(t, "runtime error: boom", NewRuntimeError(errors.New("boom")).Error())
	assert.Equal(t, "test failure: x", NewTestFailureError("x").Error())
	assert.Nil(t, ExitError(nil))
}
