package loadfixture

import (
	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/pkg/assertion"
	"github.com/G-Research/loadfixture/pkg/results"
)

// AssertionGate evaluates the declared assertions of a test against the recorded results of its run.
type AssertionGate struct {
	reader     results.Reader
	assertions []assertion.Assertion
}

func NewAssertionGate(reader results.Reader, assertions []assertion.Assertion) *AssertionGate {
	return &AssertionGate{reader: reader, assertions: assertions}
}

// Validate returns one result per assertion, in declaration order.
// Results are read once, without retrying; a read failure is returned as a *ResultsUnavailable.
func (g *AssertionGate) Validate(runID string) ([]assertion.Result, error) {
	run, err := g.reader.Open(runID)
	if err != nil {
		return nil, errors.WithStack(&ResultsUnavailable{RunID: runID, Err: err})
	}
	return assertion.EvaluateAll(run, g.assertions), nil
}
