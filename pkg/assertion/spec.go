package assertion

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
)

// Spec is the declarative form of an assertion, as found in test files.
//
//   - path: details
//     scenario: checkout
//     request: pay
//     metric: responseTime
//     stat: percentile
//     percentile: 99
//     condition: lt
//     value: 800
type Spec struct {
	// One of global (default), forAll or details.
	Path     string `yaml:"path" json:"path"`
	Scenario string `yaml:"scenario" json:"scenario"`
	Request  string `yaml:"request" json:"request"`
	// One of responseTime, allRequests, failedRequests, successfulRequests or requestsPerSec.
	Metric string `yaml:"metric" json:"metric"`
	// One of min, max, mean, stdDev, percentile, count or percent.
	Stat       string  `yaml:"stat" json:"stat"`
	Percentile float64 `yaml:"percentile" json:"percentile"`
	// One of lt, lte, gt, gte, is, between or in.
	Condition string    `yaml:"condition" json:"condition"`
	Value     *float64  `yaml:"value" json:"value"`
	Values    []float64 `yaml:"values" json:"values"`
}

var (
	pathKinds = map[string]PathKind{"": GlobalPath, "global": GlobalPath, "forall": ForAllPath, "details": DetailsPath}
	metrics   = map[string]Metric{
		"responsetime":       ResponseTime,
		"allrequests":        AllRequests,
		"failedrequests":     FailedRequests,
		"successfulrequests": SuccessfulRequests,
		"requestspersec":     RequestsPerSec,
	}
	stats = map[string]Stat{
		"min": Min, "max": Max, "mean": Mean, "stddev": StdDev, "percentile": Percentile, "count": Count, "percent": Percent,
	}
	ops = map[string]Op{"lt": Lt, "lte": Lte, "gt": Gt, "gte": Gte, "is": Is, "between": Between, "in": In}
)

// FromSpec builds and validates the assertion described by spec. Names are case-insensitive.
func FromSpec(spec Spec) (Assertion, error) {
	kind, ok := pathKinds[strings.ToLower(spec.Path)]
	if !ok {
		return Assertion{}, invalid("path", spec.Path)
	}
	metric, ok := metrics[strings.ToLower(spec.Metric)]
	if !ok {
		return Assertion{}, invalid("metric", spec.Metric)
	}
	var stat Stat
	if metric != RequestsPerSec {
		if stat, ok = stats[strings.ToLower(spec.Stat)]; !ok {
			return Assertion{}, invalid("stat", spec.Stat)
		}
	}
	op, ok := ops[strings.ToLower(spec.Condition)]
	if !ok {
		return Assertion{}, invalid("condition", spec.Condition)
	}
	values := spec.Values
	if spec.Value != nil {
		values = append([]float64{*spec.Value}, values...)
	}
	a := Assertion{
		Path:      Path{Kind: kind, Scenario: spec.Scenario, Request: spec.Request},
		Target:    Target{Metric: metric, Stat: stat, Percentile: spec.Percentile},
		Condition: Condition{Op: op, Values: values},
	}
	if err := a.Validate(); err != nil {
		return Assertion{}, err
	}
	return a, nil
}

// FromSpecs builds the assertions described by specs, in order.
func FromSpecs(specs []Spec) ([]Assertion, error) {
	rv := make([]Assertion, 0, len(specs))
	for i, spec := range specs {
		a, err := FromSpec(spec)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid assertion %d", i)
		}
		rv = append(rv, a)
	}
	return rv, nil
}

func invalid(name, value string) error {
	return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: name, Value: value, Message: "unknown " + name})
}
