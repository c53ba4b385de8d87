package loadfixture

import (
	"fmt"
	"strings"
	"time"

	"github.com/G-Research/loadfixture/pkg/assertion"
)

// SimulationTimeout is returned when a simulation has not completed within its configured timeout.
type SimulationTimeout struct {
	Simulation string
	Seconds    int
}

func (err *SimulationTimeout) Error() string {
	return fmt.Sprintf("simulation %s did not complete within %d seconds", err.Simulation, err.Seconds)
}

// TerminationTimeout is returned when the runtime has not terminated within the allotted time after being stopped.
type TerminationTimeout struct {
	Timeout time.Duration
}

func (err *TerminationTimeout) Error() string {
	return fmt.Sprintf("runtime did not terminate within %s", err.Timeout)
}

// UnexpectedControllerReply is returned when the controller replies with anything but a Success or a Failure.
type UnexpectedControllerReply struct {
	Reply interface{}
}

func (err *UnexpectedControllerReply) Error() string {
	return fmt.Sprintf("unexpected reply of type %T from the controller: %v", err.Reply, err.Reply)
}

// ResultsUnavailable is returned when the recorded results of a completed run cannot be read.
type ResultsUnavailable struct {
	RunID string
	Err   error
}

func (err *ResultsUnavailable) Error() string {
	return fmt.Sprintf("results of run %s are unavailable: %v", err.RunID, err.Err)
}

func (err *ResultsUnavailable) Cause() error  { return err.Err }
func (err *ResultsUnavailable) Unwrap() error { return err.Err }

// AssertionFailure is returned when one or more assertions did not pass.
type AssertionFailure struct {
	Failed []assertion.Result
}

func (err *AssertionFailure) Error() string {
	messages := make([]string, len(err.Failed))
	for i, r := range err.Failed {
		messages[i] = r.Message
	}
	return fmt.Sprintf("%d load assertion(s) failed:\n\t%s", len(err.Failed), strings.Join(messages, "\n\t"))
}

// ConfigParseError is returned when the configuration map cannot be turned into a Config.
type ConfigParseError struct {
	// Key is the offending configuration key, if known.
	Key string
	Err error
}

func (err *ConfigParseError) Error() string {
	if err.Key == "" {
		return fmt.Sprintf("invalid configuration: %v", err.Err)
	}
	return fmt.Sprintf("invalid configuration key %q: %v", err.Key, err.Err)
}

func (err *ConfigParseError) Cause() error  { return err.Err }
func (err *ConfigParseError) Unwrap() error { return err.Err }
