package engine

import "time"

// StartRun asks the controller to execute a simulation.
// The controller replies once the run has completed and its results have been flushed.
type StartRun struct {
	Simulation     *Simulation
	RunLabel       string
	RunDescription string
	Timings        Timings
}

type Timings struct {
	// Upper bound on the run, after which all virtual users are stopped and the run completes normally.
	// A value of 0 indicates no limit.
	MaxDuration time.Duration
}

// Success is the controller's reply to a run that completed.
type Success struct {
	RunID string
}

// Failure is the controller's reply to a run that could not be executed or recorded.
type Failure struct {
	Err error
}
