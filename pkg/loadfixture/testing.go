package loadfixture

import (
	"context"
	"testing"
)

// Run executes test with f and reports the outcome to t: a failed test fails t and a canceled test skips it.
func Run(t testing.TB, f *Fixture, test *Test) *Outcome {
	t.Helper()
	outcome := f.Execute(context.Background(), test)
	if outcome.ReportErr != nil {
		t.Logf("report generation failed but the run %s: %v", outcome.Status, outcome.ReportErr)
	}
	switch outcome.Status {
	case Failed:
		t.Error(outcome.Message)
	case Canceled:
		t.Skip(outcome.Message)
	}
	return outcome
}
