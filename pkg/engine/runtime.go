// Package engine is an in-process load generation runtime.
//
// A Runtime hosts a controller goroutine that callers talk to by message passing: Ask sends a message and returns
// a channel on which the controller replies exactly once. Runs execute concurrently with the caller; terminating
// the runtime cancels in-flight runs and fires the registered termination callbacks once everything has exited.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/G-Research/loadfixture/internal/common/logging"
	"github.com/G-Research/loadfixture/internal/common/util"
	"github.com/G-Research/loadfixture/pkg/results"
)

// ErrNotRunning is the cause of the Failure replied to messages sent to a runtime that isn't running.
var ErrNotRunning = errors.New("runtime is not running")

// WriterFactory opens the results writer of a new run.
type WriterFactory func(meta results.RunMetadata) (results.Writer, error)

type runtimeState int

const (
	created runtimeState = iota
	running
	terminating
	terminated
)

type envelope struct {
	msg   interface{}
	reply chan interface{}
}

type Runtime struct {
	name       string
	newWriter  WriterFactory
	clock      util.Clock
	requests   chan *envelope
	stop       chan struct{}
	terminated chan struct{}
	callbacks  []func()
	state      runtimeState
	mu         sync.Mutex
}

func NewRuntime(name string, newWriter WriterFactory) *Runtime {
	return &Runtime{
		name:       name,
		newWriter:  newWriter,
		clock:      &util.DefaultClock{},
		requests:   make(chan *envelope),
		stop:       make(chan struct{}),
		terminated: make(chan struct{}),
	}
}

// Start launches the controller. A runtime can be started only once.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != created {
		return errors.Errorf("runtime %s has already been started", r.name)
	}
	r.state = running
	go r.control()
	log.WithField("runtime", r.name).Debug("Runtime started")
	return nil
}

// Terminate requests shutdown and returns immediately. Calling it more than once has no further effect.
func (r *Runtime) Terminate() {
	r.mu.Lock()
	switch r.state {
	case created:
		// Nothing was ever started, so there is nothing to wait for.
		r.state = terminating
		r.mu.Unlock()
		r.finishTermination()
		return
	case running:
		r.state = terminating
		close(r.stop)
	}
	r.mu.Unlock()
}

// RegisterOnTermination registers f to be called once the runtime has fully terminated.
// If it already has, f is called immediately.
func (r *Runtime) RegisterOnTermination(f func()) {
	r.mu.Lock()
	if r.state != terminated {
		r.callbacks = append(r.callbacks, f)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	f()
}

// Terminated is closed once the runtime has fully terminated.
func (r *Runtime) Terminated() <-chan struct{} {
	return r.terminated
}

// Ask sends msg to the controller. The returned channel receives exactly one reply and is never closed.
// Replies are buffered, so a caller that stops waiting never blocks the controller.
func (r *Runtime) Ask(msg interface{}) <-chan interface{} {
	reply := make(chan interface{}, 1)
	r.mu.Lock()
	isRunning := r.state == running
	r.mu.Unlock()
	if !isRunning {
		reply <- Failure{Err: errors.WithMessagef(ErrNotRunning, "runtime %s", r.name)}
		return reply
	}
	select {
	case r.requests <- &envelope{msg: msg, reply: reply}:
	case <-r.stop:
		reply <- Failure{Err: errors.WithMessagef(ErrNotRunning, "runtime %s", r.name)}
	}
	return reply
}

func (r *Runtime) control() {
	ctx, cancel := context.WithCancel(context.Background())
	var runs sync.WaitGroup
	defer func() {
		cancel()
		runs.Wait()
		r.finishTermination()
	}()
	for {
		select {
		case env := <-r.requests:
			runs.Add(1)
			go func() {
				defer runs.Done()
				env.reply <- r.handle(ctx, env.msg)
			}()
		case <-r.stop:
			return
		}
	}
}

func (r *Runtime) finishTermination() {
	r.mu.Lock()
	r.state = terminated
	callbacks := r.callbacks
	r.callbacks = nil
	close(r.terminated)
	r.mu.Unlock()
	log.WithField("runtime", r.name).Debug("Runtime terminated")
	for _, f := range callbacks {
		f()
	}
}

func (r *Runtime) handle(ctx context.Context, msg interface{}) interface{} {
	switch m := msg.(type) {
	case StartRun:
		return r.startRun(ctx, m)
	case *StartRun:
		return r.startRun(ctx, *m)
	default:
		return Failure{Err: errors.Errorf("unsupported message %T", msg)}
	}
}

func (r *Runtime) startRun(ctx context.Context, req StartRun) interface{} {
	if err := req.Simulation.Validate(); err != nil {
		return Failure{Err: err}
	}
	label := req.RunLabel
	if label == "" {
		label = req.Simulation.Name
	}
	meta := results.RunMetadata{
		RunID:       label + "-" + util.NewULID(),
		Simulation:  req.Simulation.Name,
		Label:       label,
		Description: req.RunDescription,
		Start:       r.clock.Now(),
	}
	logger := log.WithFields(log.Fields{"runtime": r.name, "runId": meta.RunID, "simulation": meta.Simulation})

	writer, err := r.newWriter(meta)
	if err != nil {
		return Failure{Err: errors.WithMessagef(err, "error opening results writer for run %s", meta.RunID)}
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if req.Timings.MaxDuration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.Timings.MaxDuration)
	}
	defer cancel()

	logger.Info("Simulation started")
	start := time.Now()
	err = execute(runCtx, req.Simulation, meta.RunID, writer)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		// The run reached its max duration, which ends it like any other run.
		err = nil
	}
	closeErr := writer.Close(r.clock.Now())
	if err != nil {
		logging.WithStacktrace(logger, err).Error("Simulation failed")
		return Failure{Err: errors.WithMessagef(err, "run %s failed", meta.RunID)}
	}
	if closeErr != nil {
		logging.WithStacktrace(logger, closeErr).Error("Failed to flush simulation results")
		return Failure{Err: errors.WithMessagef(closeErr, "error flushing results of run %s", meta.RunID)}
	}
	logger.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("Simulation completed")
	return Success{RunID: meta.RunID}
}
