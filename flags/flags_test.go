package flags

import (
	"testing"
	"time"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestOptionalFlagsDontSetRequired asserts that all flags deemed optional set
// the Required field to false.
func TestOptionalFlagsDontSetRequired(t *testing.T) {
	for _, flag := range optionalFlags {
		reqFlag, ok := flag.(cli.RequiredFlag)
		require.True(t, ok)
		require.False(t, reqFlag.IsRequired())
	}
}

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range Flags {
		name := flag.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestEnvVarFormat(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
			require.Equal(t, opservice.FlagNameToEnvVarName(flagName, EnvVarPrefix), envFlags[0])
		})
	}
}

func TestFlagValues(t *testing.T) {
	testCases := []struct {
		name  string
		args  []string
		env   map[string]string
		check func(t *testing.T, ctx *cli.Context)
	}{
		{
			name: "defaults",
			args: []string{"app"},
			check: func(t *testing.T, ctx *cli.Context) {
				assert.Equal(t, "https://reqres.in", ctx.String(BaseURL.Name))
				assert.Equal(t, "reqres-free-v1", ctx.String(APIKey.Name))
				assert.Equal(t, "Reports/TestReport.html", ctx.String(ReportPath.Name))
				assert.Equal(t, time.Duration(0), ctx.Duration(RunInterval.Name))
				assert.Equal(t, 30*time.Second, ctx.Duration(HTTPTimeout.Name))
				assert.Equal(t, 5*time.Second, ctx.Duration(SlowThreshold.Name))
				assert.False(t, ctx.Bool(SoftAssertions.Name))
				assert.Empty(t, ctx.StringSlice(Tags.Name))
			},
		},
		{
			name: "command line",
			args: []string{"app", "--base-url", "http://127.0.0.1:9000", "--tags", "smoke", "--tags", "email", "--soft-assertions", "--run-interval", "10m"},
			check: func(t *testing.T, ctx *cli.Context) {
				assert.Equal(t, "http://127.0.0.1:9000", ctx.String(BaseURL.Name))
				assert.Equal(t, []string{"smoke", "email"}, ctx.StringSlice(Tags.Name))
				assert.True(t, ctx.Bool(SoftAssertions.Name))
				assert.Equal(t, 10*time.Minute, ctx.Duration(RunInterval.Name))
			},
		},
		{
			name: "environment",
			args: []string{"app"},
			env: map[string]string{
				"API_ACCEPTOR_REPORT_PATH":    "/tmp/out/report.html",
				"API_ACCEPTOR_SLOW_THRESHOLD": "250ms",
			},
			check: func(t *testing.T, ctx *cli.Context) {
				assert.Equal(t, "/tmp/out/report.html", ctx.String(ReportPath.Name))
				assert.Equal(t, 250*time.Millisecond, ctx.Duration(SlowThreshold.Name))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			called := false
			app := &cli.App{
				Flags: Flags,
				Action: func(ctx *cli.Context) error {
					called = true
					tc.check(t, ctx)
					return CheckRequired(ctx)
				},
			}
			require.NoError(t, app.Run(tc.args))
			require.True(t, called)
		})
	}
}
