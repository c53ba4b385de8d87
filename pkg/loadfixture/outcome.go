package loadfixture

import (
	"github.com/G-Research/loadfixture/pkg/assertion"
)

type Status int

const (
	Succeeded Status = iota
	Failed
	// Canceled tests were skipped without running; they count as neither passed nor failed.
	Canceled
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Outcome is what a test reports back to the test framework.
type Outcome struct {
	Status Status
	// Failure message or skip reason.
	Message string
	// Cause of a failure.
	Err error
	// Id of the run, once the simulation has completed.
	RunID      string
	Assertions []assertion.Result
	// Index file of the generated report, if any.
	ReportPath string
	// Failure to generate the report. It does not affect Status.
	ReportErr error
}

func succeeded() *Outcome {
	return &Outcome{Status: Succeeded}
}

func failed(err error) *Outcome {
	return &Outcome{Status: Failed, Message: err.Error(), Err: err}
}

func canceled(reason string) *Outcome {
	return &Outcome{Status: Canceled, Message: reason}
}
