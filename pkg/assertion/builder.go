package assertion

// Scope is the first step of building an assertion: which records it applies to.
type Scope struct {
	path Path
}

// Global applies to all records of a run.
func Global() *Scope { return &Scope{path: Path{Kind: GlobalPath}} }

// ForAll applies to each (scenario, request) group separately and passes only if every group passes.
func ForAll() *Scope { return &Scope{path: Path{Kind: ForAllPath}} }

// Details applies to the records of one request of one scenario.
// Either argument may be empty to match any scenario or any request.
func Details(scenario, request string) *Scope {
	return &Scope{path: Path{Kind: DetailsPath, Scenario: scenario, Request: request}}
}

func (s *Scope) ResponseTime() *ResponseTimeTarget {
	return &ResponseTimeTarget{path: s.path}
}

func (s *Scope) AllRequests() *CountTarget {
	return &CountTarget{path: s.path, metric: AllRequests}
}

func (s *Scope) FailedRequests() *CountTarget {
	return &CountTarget{path: s.path, metric: FailedRequests}
}

func (s *Scope) SuccessfulRequests() *CountTarget {
	return &CountTarget{path: s.path, metric: SuccessfulRequests}
}

func (s *Scope) RequestsPerSec() *Conditions {
	return &Conditions{path: s.path, target: Target{Metric: RequestsPerSec}}
}

type ResponseTimeTarget struct {
	path Path
}

func (r *ResponseTimeTarget) Min() *Conditions    { return r.stat(Min, 0) }
func (r *ResponseTimeTarget) Max() *Conditions    { return r.stat(Max, 0) }
func (r *ResponseTimeTarget) Mean() *Conditions   { return r.stat(Mean, 0) }
func (r *ResponseTimeTarget) StdDev() *Conditions { return r.stat(StdDev, 0) }

func (r *ResponseTimeTarget) Percentile(p float64) *Conditions {
	return r.stat(Percentile, p)
}

func (r *ResponseTimeTarget) stat(stat Stat, p float64) *Conditions {
	return &Conditions{path: r.path, target: Target{Metric: ResponseTime, Stat: stat, Percentile: p}}
}

type CountTarget struct {
	path   Path
	metric Metric
}

func (c *CountTarget) Count() *Conditions {
	return &Conditions{path: c.path, target: Target{Metric: c.metric, Stat: Count}}
}

func (c *CountTarget) Percent() *Conditions {
	return &Conditions{path: c.path, target: Target{Metric: c.metric, Stat: Percent}}
}

// Conditions is the last step of building an assertion.
type Conditions struct {
	path   Path
	target Target
}

func (c *Conditions) Lt(v float64) Assertion  { return c.build(Lt, v) }
func (c *Conditions) Lte(v float64) Assertion { return c.build(Lte, v) }
func (c *Conditions) Gt(v float64) Assertion  { return c.build(Gt, v) }
func (c *Conditions) Gte(v float64) Assertion { return c.build(Gte, v) }
func (c *Conditions) Is(v float64) Assertion  { return c.build(Is, v) }

func (c *Conditions) Between(lo, hi float64) Assertion { return c.build(Between, lo, hi) }

func (c *Conditions) In(values ...float64) Assertion { return c.build(In, values...) }

func (c *Conditions) build(op Op, values ...float64) Assertion {
	return Assertion{Path: c.path, Target: c.target, Condition: Condition{Op: op, Values: values}}
}
