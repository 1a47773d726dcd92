// Package exitcodes defines the standard exit codes used by api-acceptor.
package exitcodes

// Exit code constants used by api-acceptor:
//
// * Success (0): every scenario passed
// * TestFailure (1): one or more scenarios failed
// * RuntimeErr (2): configuration errors, an unwritable report directory, panics
const (
	Success     = 0 // All scenarios pass
	TestFailure = 1 // Scenario failures
	RuntimeErr  = 2 // Runtime errors
)
