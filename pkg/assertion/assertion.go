// Package assertion declares expectations over the recorded results of a run and evaluates them.
//
// Assertions are built fluently from a scope, a target metric and a condition:
//
//	assertion.Global().ResponseTime().Percentile(95).Lt(250)
//	assertion.ForAll().FailedRequests().Percent().Is(0)
//	assertion.Details("checkout", "pay").SuccessfulRequests().Count().Gte(100)
package assertion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
	"github.com/G-Research/loadfixture/pkg/results"
)

type PathKind int

const (
	GlobalPath PathKind = iota
	ForAllPath
	DetailsPath
)

// Path selects the records an assertion applies to.
type Path struct {
	Kind     PathKind
	Scenario string
	Request  string
}

func (p Path) String() string {
	switch p.Kind {
	case ForAllPath:
		return "For all requests"
	case DetailsPath:
		return results.Group{Scenario: p.Scenario, Request: p.Request}.String()
	default:
		return "Global"
	}
}

type Metric int

const (
	ResponseTime Metric = iota
	AllRequests
	FailedRequests
	SuccessfulRequests
	RequestsPerSec
)

type Stat int

const (
	Min Stat = iota
	Max
	Mean
	StdDev
	Percentile
	Count
	Percent
)

// Target is the value an assertion checks, e.g. the max response time.
type Target struct {
	Metric Metric
	Stat   Stat
	// Only used by the Percentile stat, in [0, 100].
	Percentile float64
}

func (t Target) String() string {
	switch t.Metric {
	case ResponseTime:
		switch t.Stat {
		case Min:
			return "min of response time"
		case Max:
			return "max of response time"
		case Mean:
			return "mean of response time"
		case StdDev:
			return "standard deviation of response time"
		case Percentile:
			return ordinal(t.Percentile) + " percentile of response time"
		}
	case RequestsPerSec:
		return "requests per second"
	default:
		what := map[Metric]string{AllRequests: "all", FailedRequests: "failed", SuccessfulRequests: "successful"}[t.Metric]
		if t.Stat == Percent {
			return "percentage of " + what + " requests"
		}
		return "count of " + what + " requests"
	}
	return "unknown target"
}

func (t Target) value(s results.Stats) float64 {
	switch t.Metric {
	case ResponseTime:
		switch t.Stat {
		case Min:
			return s.Min
		case Max:
			return s.Max
		case Mean:
			return s.Mean
		case StdDev:
			return s.StdDev
		case Percentile:
			return s.Percentile(t.Percentile)
		}
	case AllRequests:
		if t.Stat == Percent {
			if s.Count == 0 {
				return 0
			}
			return 100
		}
		return float64(s.Count)
	case FailedRequests:
		if t.Stat == Percent {
			return s.KOPercent()
		}
		return float64(s.KO)
	case SuccessfulRequests:
		if t.Stat == Percent {
			return s.OKPercent()
		}
		return float64(s.OK)
	case RequestsPerSec:
		return s.RequestsPerSec
	}
	return 0
}

func (t Target) validate() error {
	valid := false
	switch t.Metric {
	case ResponseTime:
		valid = t.Stat <= Percentile
	case AllRequests, FailedRequests, SuccessfulRequests:
		valid = t.Stat == Count || t.Stat == Percent
	case RequestsPerSec:
		valid = true
	}
	if !valid {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: "Target", Value: t, Message: "unsupported metric/stat combination"})
	}
	if t.Stat == Percentile && (t.Percentile < 0 || t.Percentile > 100) {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
			Name:    "Percentile",
			Value:   t.Percentile,
			Message: "must be between 0 and 100",
		})
	}
	return nil
}

type Op int

const (
	Lt Op = iota
	Lte
	Gt
	Gte
	Is
	Between
	In
)

type Condition struct {
	Op     Op
	Values []float64
}

func (c Condition) String() string {
	switch c.Op {
	case Lt:
		return "is less than " + formatFloat(c.first())
	case Lte:
		return "is less than or equal to " + formatFloat(c.first())
	case Gt:
		return "is greater than " + formatFloat(c.first())
	case Gte:
		return "is greater than or equal to " + formatFloat(c.first())
	case Is:
		return "is " + formatFloat(c.first())
	case Between:
		if len(c.Values) == 2 {
			return "is between " + formatFloat(c.Values[0]) + " and " + formatFloat(c.Values[1])
		}
	case In:
		values := make([]string, len(c.Values))
		for i, v := range c.Values {
			values[i] = formatFloat(v)
		}
		return "is in [" + strings.Join(values, ", ") + "]"
	}
	return "unknown condition"
}

func (c Condition) first() float64 {
	if len(c.Values) == 0 {
		return 0
	}
	return c.Values[0]
}

func (c Condition) check(v float64) bool {
	switch c.Op {
	case Lt:
		return v < c.first()
	case Lte:
		return v <= c.first()
	case Gt:
		return v > c.first()
	case Gte:
		return v >= c.first()
	case Is:
		return v == c.first()
	case Between:
		return len(c.Values) == 2 && v >= c.Values[0] && v <= c.Values[1]
	case In:
		for _, x := range c.Values {
			if v == x {
				return true
			}
		}
	}
	return false
}

func (c Condition) validate() error {
	switch c.Op {
	case Lt, Lte, Gt, Gte, Is:
		if len(c.Values) != 1 {
			return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: "Values", Value: c.Values, Message: "exactly one value expected"})
		}
	case Between:
		if len(c.Values) != 2 || c.Values[0] > c.Values[1] {
			return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: "Values", Value: c.Values, Message: "expected a lower and an upper bound"})
		}
	case In:
		if len(c.Values) == 0 {
			return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: "Values", Value: c.Values, Message: "at least one value expected"})
		}
	default:
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: "Op", Value: c.Op, Message: "unknown condition"})
	}
	return nil
}

// Assertion is an expectation over the recorded results of a run.
type Assertion struct {
	Path      Path
	Target    Target
	Condition Condition
}

// String is the human-readable form of the assertion, e.g. "Global: max of response time is less than 100".
func (a Assertion) String() string {
	return fmt.Sprintf("%s: %s %s", a.Path, a.Target, a.Condition)
}

func (a Assertion) Validate() error {
	if a.Path.Kind == DetailsPath && a.Path.Scenario == "" && a.Path.Request == "" {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: "Path", Value: a.Path, Message: "details need a scenario or a request"})
	}
	if err := a.Target.validate(); err != nil {
		return err
	}
	return a.Condition.validate()
}

// Result is the outcome of evaluating one assertion.
type Result struct {
	Assertion Assertion
	Passed    bool
	// Message is the assertion text, annotated with the actual value(s).
	Message string
}

// Evaluate checks a against the records of run.
func (a Assertion) Evaluate(run *results.Run) Result {
	if err := a.Validate(); err != nil {
		return Result{Assertion: a, Message: fmt.Sprintf("%s (invalid: %s)", a, err)}
	}
	switch a.Path.Kind {
	case ForAllPath:
		groups := run.Groups()
		if len(groups) == 0 {
			return Result{Assertion: a, Message: fmt.Sprintf("%s (no requests recorded)", a)}
		}
		var failing []string
		for _, g := range groups {
			v := a.Target.value(run.Stats(g))
			if !a.Condition.check(v) {
				failing = append(failing, fmt.Sprintf("%s: %s", g, formatFloat(v)))
			}
		}
		if len(failing) > 0 {
			return Result{Assertion: a, Message: fmt.Sprintf("%s (failed for %s)", a, strings.Join(failing, ", "))}
		}
		return Result{Assertion: a, Passed: true, Message: a.String()}
	case DetailsPath:
		stats := run.Stats(results.Group{Scenario: a.Path.Scenario, Request: a.Path.Request})
		if stats.Count == 0 {
			return Result{Assertion: a, Message: fmt.Sprintf("%s (no requests recorded for this path)", a)}
		}
		return a.check(stats)
	default:
		return a.check(run.Stats(results.Group{}))
	}
}

func (a Assertion) check(stats results.Stats) Result {
	v := a.Target.value(stats)
	return Result{
		Assertion: a,
		Passed:    a.Condition.check(v),
		Message:   fmt.Sprintf("%s (actual: %s)", a, formatFloat(v)),
	}
}

// EvaluateAll evaluates assertions in order, returning one result per assertion.
func EvaluateAll(run *results.Run, assertions []Assertion) []Result {
	rv := make([]Result, len(assertions))
	for i, a := range assertions {
		rv[i] = a.Evaluate(run)
	}
	return rv
}

// Failed returns the results that did not pass, in order.
func Failed(rs []Result) []Result {
	var failed []Result
	for _, r := range rs {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ordinal(p float64) string {
	s := formatFloat(p)
	if strings.Contains(s, ".") {
		return s + "th"
	}
	n := int(p)
	if n%100 >= 11 && n%100 <= 13 {
		return s + "th"
	}
	switch n % 10 {
	case 1:
		return s + "st"
	case 2:
		return s + "nd"
	case 3:
		return s + "rd"
	}
	return s + "th"
}
