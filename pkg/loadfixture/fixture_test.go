package loadfixture

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
	"github.com/G-Research/loadfixture/pkg/assertion"
	"github.com/G-Research/loadfixture/pkg/engine"
	"github.com/G-Research/loadfixture/pkg/results"
)

// newFakeFixture returns a fixture running every test in rt and reading results from memory.
func newFakeFixture(t *testing.T, c Config, rt *fakeRuntime) *Fixture {
	f, err := NewFixture(c)
	require.NoError(t, err)
	reader := memoryReader{"checkout-1": testRun()}
	f.reader = reader
	f.emitter = NewReportEmitter(c, reader)
	f.NewRuntime = func(string, Config) Runtime { return rt }
	f.Metrics = NewMetrics(prometheus.NewRegistry())
	return f
}

func testsTotal(f *Fixture, status Status) float64 {
	return testutil.ToFloat64(f.Metrics.tests.WithLabelValues(status.String()))
}

func TestFixture_Succeeds(t *testing.T) {
	f, err := NewFixture(testConfig(t))
	require.NoError(t, err)
	f.Metrics = NewMetrics(prometheus.NewRegistry())

	outcome := f.Execute(context.Background(), &Test{
		Name:           "checkout flow",
		TimeoutSeconds: 10,
		Simulation:     testSimulation(2, 3),
		Assertions: []assertion.Assertion{
			assertion.Global().AllRequests().Count().Is(6),
			assertion.Global().FailedRequests().Count().Is(0),
		},
	})

	require.Equal(t, Succeeded, outcome.Status, outcome.Message)
	assert.NoError(t, outcome.Err)
	assert.True(t, strings.HasPrefix(outcome.RunID, "checkout_flow-"))
	assert.Len(t, outcome.Assertions, 2)
	require.NotEmpty(t, outcome.ReportPath)
	_, err = os.Stat(outcome.ReportPath)
	assert.NoError(t, err)
	assert.NoError(t, outcome.ReportErr)

	assert.Equal(t, 1.0, testsTotal(f, Succeeded))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.Metrics.assertions.WithLabelValues("passed")))
	assert.Equal(t, 1, testutil.CollectAndCount(f.Metrics.simulationDuration))
}

func TestFixture_SqliteResults(t *testing.T) {
	c := testConfig(t)
	c.Results.Writers = []string{results.SqliteWriterName, results.ConsoleWriterName}
	f, err := NewFixture(c)
	require.NoError(t, err)

	outcome := f.Execute(context.Background(), &Test{
		Name:           "checkout flow",
		TimeoutSeconds: 10,
		Simulation:     testSimulation(1, 4),
		Assertions:     []assertion.Assertion{assertion.Global().AllRequests().Count().Is(4)},
	})
	require.Equal(t, Succeeded, outcome.Status, outcome.Message)
	assert.Empty(t, outcome.ReportPath)
}

func TestFixture_TierSkipped(t *testing.T) {
	c := testConfig(t)
	c.Tiers.SkipTiers = true
	f, err := NewFixture(c)
	require.NoError(t, err)
	f.Metrics = NewMetrics(prometheus.NewRegistry())
	runtimes := 0
	f.NewRuntime = func(name string, config Config) Runtime {
		runtimes++
		return NewEngineRuntime(name, config)
	}

	outcome := f.Execute(context.Background(), &Test{
		Name:           "checkout flow_tier_2",
		TimeoutSeconds: 10,
		Simulation:     testSimulation(1, 1),
		Body: func(context.Context) error {
			t.Fatal("body of a skipped test ran")
			return nil
		},
	})

	assert.Equal(t, Canceled, outcome.Status)
	assert.Equal(t, "Tier 2 skipped", outcome.Message)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, 0, runtimes)
	assert.Equal(t, 1.0, testsTotal(f, Canceled))
	assert.Equal(t, 0.0, testsTotal(f, Failed))
}

func TestFixture_TierGating(t *testing.T) {
	tests := map[string]struct {
		name     string
		tiers    RunConfig
		expected Status
	}{
		"tier 0 always runs":      {name: "smoke_tier_0", tiers: RunConfig{SkipTiers: true}, expected: Succeeded},
		"untiered runs":           {name: "checkout flow", tiers: RunConfig{SkipTiers: true}, expected: Succeeded},
		"selected tier runs":      {name: "checkout flow_tier_1", tiers: RunConfig{RunTiers: []int{1, 2}}, expected: Succeeded},
		"unselected tier skipped": {name: "checkout flow_tier_3", tiers: RunConfig{RunTiers: []int{1, 2}}, expected: Canceled},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := testConfig(t)
			c.Tiers = tc.tiers
			rt := &fakeRuntime{reply: engine.Success{RunID: "checkout-1"}}
			f := newFakeFixture(t, c, rt)

			outcome := f.Execute(context.Background(), &Test{Name: tc.name, TimeoutSeconds: 5})
			assert.Equal(t, tc.expected, outcome.Status, outcome.Message)
			starts, terminates, _ := rt.counts()
			if tc.expected == Canceled {
				assert.Equal(t, 0, starts)
				assert.Equal(t, 0, terminates)
			} else {
				assert.Equal(t, 1, starts)
				assert.Equal(t, 1, terminates)
			}
		})
	}
}

func TestFixture_AssertionFailure(t *testing.T) {
	rt := &fakeRuntime{reply: engine.Success{RunID: "checkout-1"}}
	f := newFakeFixture(t, testConfig(t), rt)

	outcome := f.Execute(context.Background(), &Test{
		Name:           "checkout flow",
		TimeoutSeconds: 5,
		Assertions: []assertion.Assertion{
			assertion.Global().AllRequests().Count().Is(3),
			assertion.Global().FailedRequests().Count().Is(0),
			assertion.Global().ResponseTime().Max().Lte(30),
		},
	})

	assert.Equal(t, Failed, outcome.Status)
	assert.Equal(t,
		"1 load assertion(s) failed:\n\tGlobal: count of failed requests is 0 (actual: 1)",
		outcome.Message,
	)
	var failure *AssertionFailure
	require.True(t, errors.As(outcome.Err, &failure))
	assert.Len(t, failure.Failed, 1)
	assert.Len(t, outcome.Assertions, 3)
	assert.NotEmpty(t, outcome.ReportPath, "reports are generated for failing runs too")
	assert.Equal(t, 2.0, testutil.ToFloat64(f.Metrics.assertions.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.Metrics.assertions.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testsTotal(f, Failed))
}

func TestFixture_SeveralAssertionFailures(t *testing.T) {
	rt := &fakeRuntime{reply: engine.Success{RunID: "checkout-1"}}
	f := newFakeFixture(t, testConfig(t), rt)

	outcome := f.Execute(context.Background(), &Test{
		Name:           "checkout flow",
		TimeoutSeconds: 5,
		Assertions: []assertion.Assertion{
			assertion.Global().FailedRequests().Count().Is(0),
			assertion.Global().ResponseTime().Max().Lt(30),
		},
	})

	assert.Equal(t, Failed, outcome.Status)
	assert.Equal(t,
		"2 load assertion(s) failed:\n"+
			"\tGlobal: count of failed requests is 0 (actual: 1)\n"+
			"\tGlobal: max of response time is less than 30 (actual: 30)",
		outcome.Message,
	)
}

func TestFixture_Failures(t *testing.T) {
	boom := errors.New("boom")
	tests := map[string]struct {
		runtime *fakeRuntime
		test    *Test
		check   func(t *testing.T, outcome *Outcome)
		asked   int
	}{
		"body fails": {
			runtime: &fakeRuntime{reply: engine.Success{RunID: "checkout-1"}},
			test:    &Test{Name: "checkout flow", TimeoutSeconds: 5, Body: func(context.Context) error { return boom }},
			check: func(t *testing.T, outcome *Outcome) {
				assert.Equal(t, boom, outcome.Err)
				assert.Equal(t, "boom", outcome.Message)
			},
			asked: 0,
		},
		"runtime fails to start": {
			runtime: &fakeRuntime{startErr: boom},
			test:    &Test{Name: "checkout flow", TimeoutSeconds: 5},
			check: func(t *testing.T, outcome *Outcome) {
				assert.True(t, errors.Is(outcome.Err, boom))
			},
			asked: 0,
		},
		"engine failure": {
			runtime: &fakeRuntime{reply: engine.Failure{Err: boom}},
			test:    &Test{Name: "checkout flow", TimeoutSeconds: 5},
			check: func(t *testing.T, outcome *Outcome) {
				assert.Equal(t, boom, outcome.Err)
			},
			asked: 1,
		},
		"unexpected reply": {
			runtime: &fakeRuntime{reply: 42},
			test:    &Test{Name: "checkout flow", TimeoutSeconds: 5},
			check: func(t *testing.T, outcome *Outcome) {
				var replyErr *UnexpectedControllerReply
				assert.True(t, errors.As(outcome.Err, &replyErr))
			},
			asked: 1,
		},
		"results unavailable": {
			runtime: &fakeRuntime{reply: engine.Success{RunID: "missing"}},
			test:    &Test{Name: "checkout flow", TimeoutSeconds: 5},
			check: func(t *testing.T, outcome *Outcome) {
				var unavailable *ResultsUnavailable
				require.True(t, errors.As(outcome.Err, &unavailable))
				assert.Equal(t, "missing", unavailable.RunID)
			},
			asked: 1,
		},
		"simulation timeout": {
			runtime: &fakeRuntime{},
			test:    &Test{Name: "checkout flow", TimeoutSeconds: 1},
			check: func(t *testing.T, outcome *Outcome) {
				var timeoutErr *SimulationTimeout
				require.True(t, errors.As(outcome.Err, &timeoutErr))
				assert.Equal(t, "simulation checkout_flow did not complete within 1 seconds", outcome.Message)
			},
			asked: 1,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFakeFixture(t, testConfig(t), tc.runtime)
			outcome := f.Execute(context.Background(), tc.test)

			assert.Equal(t, Failed, outcome.Status)
			tc.check(t, outcome)
			starts, terminates, asked := tc.runtime.counts()
			assert.Equal(t, 1, starts)
			assert.Equal(t, 1, terminates)
			assert.Equal(t, tc.asked, asked)
			assert.Equal(t, 1.0, testsTotal(f, Failed))
		})
	}
}

func TestFixture_BodyPanics(t *testing.T) {
	rt := &fakeRuntime{reply: engine.Success{RunID: "checkout-1"}}
	f := newFakeFixture(t, testConfig(t), rt)

	assert.Panics(t, func() {
		f.Execute(context.Background(), &Test{
			Name:           "checkout flow",
			TimeoutSeconds: 5,
			Body:           func(context.Context) error { panic("boom") },
		})
	})
	_, terminates, asked := rt.counts()
	assert.Equal(t, 1, terminates)
	assert.Equal(t, 0, asked)
}

func TestFixture_TerminationTimeout(t *testing.T) {
	rt := &fakeRuntime{reply: engine.Success{RunID: "checkout-1"}, hang: true}
	f := newFakeFixture(t, testConfig(t), rt)
	f.TerminationTimeout = 20 * time.Millisecond

	outcome := f.Execute(context.Background(), &Test{Name: "checkout flow", TimeoutSeconds: 5})

	assert.Equal(t, Failed, outcome.Status)
	var timeoutErr *TerminationTimeout
	require.True(t, errors.As(outcome.Err, &timeoutErr))
	assert.Equal(t, 20*time.Millisecond, timeoutErr.Timeout)
	assert.Equal(t, "checkout-1", outcome.RunID)
}

func TestFixture_TerminationTimeoutKeepsOriginalError(t *testing.T) {
	boom := errors.New("boom")
	rt := &fakeRuntime{hang: true}
	f := newFakeFixture(t, testConfig(t), rt)
	f.TerminationTimeout = 20 * time.Millisecond

	outcome := f.Execute(context.Background(), &Test{
		Name:           "checkout flow",
		TimeoutSeconds: 5,
		Body:           func(context.Context) error { return boom },
	})

	assert.Equal(t, Failed, outcome.Status)
	assert.True(t, errors.Is(outcome.Err, boom))
	var timeoutErr *TerminationTimeout
	assert.True(t, errors.As(outcome.Err, &timeoutErr))
	assert.Contains(t, outcome.Message, "boom")
	assert.Contains(t, outcome.Message, "runtime did not terminate within 20ms")
}

func TestFixture_ReportFailureDoesNotFailTheTest(t *testing.T) {
	rt := &fakeRuntime{reply: engine.Success{RunID: "checkout-1"}}
	f := newFakeFixture(t, testConfig(t), rt)
	f.emitter.generate = func(string, *results.Run, []assertion.Result) (string, error) {
		return "", errors.New("disk full")
	}

	outcome := f.Execute(context.Background(), &Test{
		Name:           "checkout flow",
		TimeoutSeconds: 5,
		Assertions:     []assertion.Assertion{assertion.Global().AllRequests().Count().Is(3)},
	})

	assert.Equal(t, Succeeded, outcome.Status)
	assert.ErrorContains(t, outcome.ReportErr, "disk full")
	assert.Empty(t, outcome.ReportPath)
}

func TestNewFixture_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.Results.Writers = []string{results.ConsoleWriterName}
	_, err := NewFixture(c)
	var parseErr *ConfigParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestFixture_TerminationTimeoutIsCapped(t *testing.T) {
	tests := map[string]struct {
		timeout  time.Duration
		expected time.Duration
	}{
		"unset":         {timeout: 0, expected: TerminationTimeoutCeiling},
		"negative":      {timeout: -time.Second, expected: TerminationTimeoutCeiling},
		"below ceiling": {timeout: time.Second, expected: time.Second},
		"above ceiling": {timeout: time.Minute, expected: TerminationTimeoutCeiling},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := &Fixture{TerminationTimeout: tc.timeout}
			assert.Equal(t, tc.expected, f.terminationTimeout())
		})
	}
}

func TestFixture_DefaultTimeout(t *testing.T) {
	rt := &fakeRuntime{reply: engine.Success{RunID: "checkout-1"}}
	f := newFakeFixture(t, testConfig(t), rt)

	outcome := f.Execute(context.Background(), &Test{Name: "checkout flow"})

	assert.Equal(t, Succeeded, outcome.Status, outcome.Message)
	assert.Equal(t, "checkout-1", outcome.RunID)
}

func TestFixture_NegativeTimeout(t *testing.T) {
	rt := &fakeRuntime{reply: engine.Success{RunID: "checkout-1"}}
	f := newFakeFixture(t, testConfig(t), rt)

	outcome := f.Execute(context.Background(), &Test{Name: "checkout flow", TimeoutSeconds: -1})

	assert.Equal(t, Failed, outcome.Status)
	var invalid *fixtureerrors.ErrInvalidArgument
	require.True(t, errors.As(outcome.Err, &invalid))
	assert.Equal(t, "TimeoutSeconds", invalid.Name)
	starts, _, _ := rt.counts()
	assert.Equal(t, 0, starts)
	assert.Equal(t, 1.0, testsTotal(f, Failed))
}
