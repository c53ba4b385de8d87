package loadfixture

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
	"github.com/G-Research/loadfixture/pkg/engine"
	"github.com/G-Research/loadfixture/pkg/results"
)

// fakeRuntime replies to every message with reply. A nil reply leaves the caller waiting forever.
type fakeRuntime struct {
	reply interface{}
	// If set, Terminate never completes termination.
	hang       bool
	startErr   error
	asked      []interface{}
	callbacks  []func()
	starts     int
	terminates int
	mu         sync.Mutex
}

func (r *fakeRuntime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	return r.startErr
}

func (r *fakeRuntime) Terminate() {
	r.mu.Lock()
	r.terminates++
	callbacks := r.callbacks
	r.callbacks = nil
	r.mu.Unlock()
	if r.hang {
		return
	}
	for _, f := range callbacks {
		f()
	}
}

func (r *fakeRuntime) RegisterOnTermination(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, f)
}

func (r *fakeRuntime) Ask(msg interface{}) <-chan interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asked = append(r.asked, msg)
	reply := make(chan interface{}, 1)
	if r.reply != nil {
		reply <- r.reply
	}
	return reply
}

func (r *fakeRuntime) counts() (starts, terminates, asked int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, r.terminates, len(r.asked)
}

func noop(context.Context) error { return nil }

// testSimulation runs users x iterations no-op requests.
func testSimulation(users, iterations int) *engine.Simulation {
	return &engine.Simulation{
		Name: "checkout",
		Scenarios: []*engine.Scenario{
			{
				Name:      "browse",
				Injection: engine.Injection{Users: users, Iterations: iterations},
				Actions: []engine.Action{
					{Name: "home", Exec: noop},
				},
			},
		},
	}
}

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	c := DefaultConfig()
	c.Results.Directory = filepath.Join(dir, "results")
	c.Reports.Directory = filepath.Join(dir, "reports")
	return c
}

// memoryReader serves runs from memory.
type memoryReader map[string]*results.Run

func (r memoryReader) Open(runID string) (*results.Run, error) {
	run, ok := r[runID]
	if !ok {
		return nil, errors.WithStack(&fixtureerrors.ErrNotFound{Type: "run", Value: runID})
	}
	return run, nil
}

var testStart = time.Date(2022, 10, 1, 12, 0, 0, 0, time.UTC)

// testRun has three requests of 10, 20 and 30ms, the last one failed.
func testRun() *results.Run {
	record := func(rt time.Duration, ok bool) results.Record {
		return results.Record{RunID: "checkout-1", Scenario: "browse", Request: "home", Start: testStart, End: testStart.Add(rt), OK: ok}
	}
	return &results.Run{
		Metadata: results.RunMetadata{RunID: "checkout-1", Simulation: "checkout", Start: testStart, End: testStart.Add(time.Second)},
		Records:  []results.Record{record(10*time.Millisecond, true), record(20*time.Millisecond, true), record(30*time.Millisecond, false)},
	}
}
