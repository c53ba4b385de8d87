// Package results records what a simulation run did and reads it back.
//
// Every executed action becomes one Record. Records are fanned out to the configured writers while the run
// executes, and are read back by run id once the run has completed, to evaluate assertions and render reports.
package results

import (
	"time"
)

// Record is the outcome of a single action executed by a virtual user.
type Record struct {
	RunID    string    `json:"runId"`
	Scenario string    `json:"scenario"`
	Request  string    `json:"request"`
	Session  string    `json:"session"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	OK       bool      `json:"ok"`
	Message  string    `json:"message,omitempty"`
}

// ResponseTime is the duration of the action in milliseconds.
func (r Record) ResponseTime() float64 {
	return float64(r.End.Sub(r.Start)) / float64(time.Millisecond)
}

// RunMetadata describes a run as a whole.
type RunMetadata struct {
	RunID       string    `json:"runId"`
	Simulation  string    `json:"simulation"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Run is a completed run read back from a results store.
type Run struct {
	Metadata RunMetadata
	Records  []Record
}

// Group selects a subset of the records of a run.
// An empty Scenario matches all scenarios; an empty Request matches all requests.
type Group struct {
	Scenario string
	Request  string
}

func (g Group) matches(r Record) bool {
	return (g.Scenario == "" || g.Scenario == r.Scenario) && (g.Request == "" || g.Request == r.Request)
}

func (g Group) String() string {
	switch {
	case g.Scenario == "" && g.Request == "":
		return "Global"
	case g.Request == "":
		return g.Scenario
	case g.Scenario == "":
		return g.Request
	default:
		return g.Scenario + " / " + g.Request
	}
}

// Groups returns one group per distinct (scenario, request) pair, in the order they were first recorded.
func (r *Run) Groups() []Group {
	seen := make(map[Group]bool)
	var groups []Group
	for _, rec := range r.Records {
		g := Group{Scenario: rec.Scenario, Request: rec.Request}
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	return groups
}

// Stats computes statistics over the records matching g.
func (r *Run) Stats(g Group) Stats {
	var matching []Record
	for _, rec := range r.Records {
		if g.matches(rec) {
			matching = append(matching, rec)
		}
	}
	return computeStats(matching, r.Metadata.End.Sub(r.Metadata.Start))
}
