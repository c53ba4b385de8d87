package loadfixture

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TerminationTimeoutCeiling bounds the wait for a runtime to terminate once stopped,
// independently of the timeout of the simulation it ran.
const TerminationTimeoutCeiling = 10 * time.Second

// Controller accepts messages for the runtime's controller. The returned channel receives exactly one reply.
type Controller interface {
	Ask(msg interface{}) <-chan interface{}
}

// Runtime is the concurrent runtime hosting a controller. *engine.Runtime implements it.
type Runtime interface {
	Controller
	Start() error
	// Terminate requests shutdown without waiting for it.
	Terminate()
	// RegisterOnTermination registers f to be called once the runtime has fully terminated.
	RegisterOnTermination(f func())
}

// CompletionSignal is fulfilled exactly once, when the runtime it is bound to has terminated.
type CompletionSignal struct {
	once sync.Once
	done chan struct{}
}

func NewCompletionSignal() *CompletionSignal {
	return &CompletionSignal{done: make(chan struct{})}
}

// Fulfill marks the signal as fulfilled. Calls after the first have no effect.
func (s *CompletionSignal) Fulfill() {
	s.once.Do(func() { close(s.done) })
}

// Done is closed once the signal has been fulfilled.
func (s *CompletionSignal) Done() <-chan struct{} {
	return s.done
}

func (s *CompletionSignal) Fulfilled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// AwaitTermination blocks until signal is fulfilled or timeout has elapsed, returning a *TerminationTimeout in the
// latter case.
func AwaitTermination(signal *CompletionSignal, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-signal.Done():
		return nil
	case <-timer.C:
		return errors.WithStack(&TerminationTimeout{Timeout: timeout})
	}
}

// RuntimeLifecycle brackets the life of one runtime: it is started once and stopped once.
// Starting twice, or stopping a runtime that isn't running, is a programming error and panics.
type RuntimeLifecycle struct {
	runtime Runtime
	signal  *CompletionSignal
	started bool
	stopped bool
	mu      sync.Mutex
}

func NewRuntimeLifecycle(runtime Runtime) *RuntimeLifecycle {
	return &RuntimeLifecycle{runtime: runtime}
}

// Start starts the runtime and returns the signal fulfilled once it has terminated.
// Stop must be called exactly once afterwards, even if Start returned an error.
func (l *RuntimeLifecycle) Start() (*CompletionSignal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		panic("runtime lifecycle started twice")
	}
	l.started = true
	l.signal = NewCompletionSignal()
	l.runtime.RegisterOnTermination(l.signal.Fulfill)
	if err := l.runtime.Start(); err != nil {
		return l.signal, errors.WithMessage(err, "error starting runtime")
	}
	return l.signal, nil
}

// Stop requests the runtime to shut down and returns immediately.
func (l *RuntimeLifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		panic("runtime lifecycle stopped before being started")
	}
	if l.stopped {
		panic("runtime lifecycle stopped twice")
	}
	l.stopped = true
	l.runtime.Terminate()
}
