// Package loadfixture runs load simulations as ordinary tests.
//
// For each test, a Fixture decides from the test's tier whether it runs at all, brings up a fresh engine runtime,
// runs the test body and then the simulation, evaluates the declared assertions against the recorded results,
// renders a report and tears the runtime down again. The result is an Outcome: succeeded, failed or canceled.
//
//	func TestCheckout(t *testing.T) {
//		loadfixture.Run(t, fixture, &loadfixture.Test{
//			Name:           "checkout flow",
//			TimeoutSeconds: 60,
//			Simulation:     checkoutSimulation,
//			Assertions: []assertion.Assertion{
//				assertion.Global().ResponseTime().Percentile(95).Lt(250),
//				assertion.Global().FailedRequests().Percent().Is(0),
//			},
//		})
//	}
package loadfixture

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
	"github.com/G-Research/loadfixture/internal/common/logging"
	"github.com/G-Research/loadfixture/internal/common/util"
	"github.com/G-Research/loadfixture/pkg/assertion"
	"github.com/G-Research/loadfixture/pkg/engine"
	"github.com/G-Research/loadfixture/pkg/results"
)

// Test is a load test executed by a Fixture.
type Test struct {
	// Display name. Names ending in "_tier_<digit>" once normalized belong to that tier.
	Name string
	// Upper bound on the wait for the simulation to complete. 0 means DefaultTimeoutSeconds.
	TimeoutSeconds int
	// Max duration of the run; 0 leaves it to the simulation's injection profile.
	MaxDuration time.Duration
	Simulation  *engine.Simulation
	Assertions  []assertion.Assertion
	// Body runs before the simulation is submitted. If it fails, the simulation is not run.
	Body func(ctx context.Context) error
}

// DefaultTimeoutSeconds bounds simulations of tests that do not set a timeout.
const DefaultTimeoutSeconds = 60

// RuntimeFactory creates the runtime of a single test.
type RuntimeFactory func(name string, config Config) Runtime

// NewEngineRuntime creates an engine runtime writing results as configured.
func NewEngineRuntime(name string, config Config) Runtime {
	return engine.NewRuntime(name, func(meta results.RunMetadata) (results.Writer, error) {
		return results.NewWriter(config.Results, meta)
	})
}

// Fixture executes load tests one at a time, each in its own runtime.
type Fixture struct {
	// NewRuntime creates the runtime of each test.
	NewRuntime RuntimeFactory
	// Upper bound on the wait for a runtime to terminate, capped at TerminationTimeoutCeiling.
	TerminationTimeout time.Duration
	// Metrics recorded for every test. May be nil.
	Metrics *Metrics
	config  Config
	reader  results.Reader
	emitter *ReportEmitter
	clock   util.Clock
}

func NewFixture(config Config) (*Fixture, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	reader, err := results.NewReader(config.Results)
	if err != nil {
		return nil, err
	}
	return &Fixture{
		NewRuntime:         NewEngineRuntime,
		TerminationTimeout: TerminationTimeoutCeiling,
		Metrics:            NewMetrics(nil),
		config:             config,
		reader:             reader,
		emitter:            NewReportEmitter(config, reader),
		clock:              &util.DefaultClock{},
	}, nil
}

func (f *Fixture) Config() Config {
	return f.config
}

// Execute runs test and returns its outcome.
//
// Tests whose tier is excluded by the configuration are canceled without starting a runtime. Otherwise the runtime
// is stopped and awaited whatever happens; the outcome is that of the test unless the runtime also fails to
// terminate in time, in which case both errors are reported.
func (f *Fixture) Execute(ctx context.Context, test *Test) (outcome *Outcome) {
	name := NormalizeName(test.Name)
	logger := log.WithField("test", name)

	if tier, ok := ExtractTier(name); ShouldSkip(tier, ok, f.config.Tiers) {
		reason := skipReason(tier)
		logger.Info(reason)
		outcome = canceled(reason)
		f.Metrics.RecordOutcome(outcome)
		return outcome
	}

	timeoutSeconds := test.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = DefaultTimeoutSeconds
	}
	if timeoutSeconds < 0 {
		outcome = failed(errors.WithStack(&fixtureerrors.ErrInvalidArgument{
			Name:    "TimeoutSeconds",
			Value:   test.TimeoutSeconds,
			Message: "timeout must not be negative",
		}))
		f.Metrics.RecordOutcome(outcome)
		return outcome
	}

	handle := &SimulationHandle{
		Name:           name,
		TimeoutSeconds: timeoutSeconds,
		Simulation:     test.Simulation,
		MaxDuration:    test.MaxDuration,
	}
	runtime := f.NewRuntime(name, f.config)
	lifecycle := NewRuntimeLifecycle(runtime)
	signal, err := lifecycle.Start()
	defer func() {
		lifecycle.Stop()
		termErr := AwaitTermination(signal, f.terminationTimeout())
		if outcome == nil {
			// Panicking.
			return
		}
		if termErr != nil {
			logging.WithStacktrace(logger, termErr).Error("Runtime did not terminate")
			outcome = withTerminationError(outcome, termErr)
		}
		f.Metrics.RecordOutcome(outcome)
		logger.WithField("outcome", outcome.Status).Info("Test finished")
	}()
	if err != nil {
		logging.WithStacktrace(logger, err).Error("Failed to start runtime")
		return failed(err)
	}
	return f.run(ctx, logger, test, handle, runtime)
}

func (f *Fixture) run(ctx context.Context, logger *log.Entry, test *Test, handle *SimulationHandle, controller Controller) *Outcome {
	if test.Body != nil {
		if err := test.Body(ctx); err != nil {
			logging.WithStacktrace(logger, err).Error("Test body failed")
			return failed(err)
		}
	}

	start := f.clock.Now()
	runID, err := NewRunCoordinator(controller).Run(ctx, handle)
	if err != nil {
		logging.WithStacktrace(logger, err).Error("Simulation failed")
		return failed(err)
	}
	f.Metrics.RecordSimulationDuration(f.clock.Now().Sub(start).Seconds())
	logger = logger.WithField("runId", runID)

	rs, err := NewAssertionGate(f.reader, test.Assertions).Validate(runID)
	if err != nil {
		logging.WithStacktrace(logger, err).Error("Failed to validate assertions")
		return failed(err)
	}

	outcome := succeeded()
	outcome.RunID = runID
	outcome.Assertions = rs
	outcome.ReportPath, outcome.ReportErr = f.emitter.MaybeEmit(runID, rs, start)
	if outcome.ReportErr != nil {
		logging.WithStacktrace(logger, outcome.ReportErr).Warn("Failed to generate reports")
	}
	if failedResults := assertion.Failed(rs); len(failedResults) > 0 {
		err := &AssertionFailure{Failed: failedResults}
		outcome.Status = Failed
		outcome.Err = err
		outcome.Message = err.Error()
	}
	return outcome
}

func (f *Fixture) terminationTimeout() time.Duration {
	if f.TerminationTimeout <= 0 || f.TerminationTimeout > TerminationTimeoutCeiling {
		return TerminationTimeoutCeiling
	}
	return f.TerminationTimeout
}

func withTerminationError(outcome *Outcome, termErr error) *Outcome {
	rv := *outcome
	rv.Status = Failed
	if outcome.Status == Failed && outcome.Err != nil {
		rv.Err = multierror.Append(outcome.Err, termErr)
	} else {
		rv.Err = termErr
	}
	rv.Message = rv.Err.Error()
	return &rv
}
