package results

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultConsoleInterval = 5 * time.Second

// ConsoleWriter keeps running counts and logs a summary periodically and when the run is closed.
type ConsoleWriter struct {
	meta     RunMetadata
	log      *log.Entry
	stop     chan struct{}
	done     sync.WaitGroup
	mu       sync.Mutex
	ok       int
	ko       int
	lastOk   int
	lastKo   int
	closed   bool
	interval time.Duration
}

func NewConsoleWriter(meta RunMetadata, interval time.Duration) *ConsoleWriter {
	w := &ConsoleWriter{
		meta:     meta,
		log:      log.WithField("runId", meta.RunID),
		stop:     make(chan struct{}),
		interval: interval,
	}
	w.done.Add(1)
	go w.run()
	return w
}

func (w *ConsoleWriter) run() {
	defer w.done.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.logSummary("progress")
		case <-w.stop:
			return
		}
	}
}

func (w *ConsoleWriter) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rec.OK {
		w.ok++
	} else {
		w.ko++
	}
	return nil
}

func (w *ConsoleWriter) Close(end time.Time) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	w.done.Wait()
	w.log.WithField("elapsed", end.Sub(w.meta.Start).Round(time.Millisecond)).Info(w.summary("done"))
	return nil
}

func (w *ConsoleWriter) logSummary(phase string) {
	w.log.Info(w.summary(phase))
}

// summary reports the totals and the counts since the previous summary.
func (w *ConsoleWriter) summary(phase string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := fmt.Sprintf(
		"%s [%s]: %d requests (OK=%d KO=%d), +%d OK / +%d KO since last summary",
		w.meta.Simulation, phase, w.ok+w.ko, w.ok, w.ko, w.ok-w.lastOk, w.ko-w.lastKo,
	)
	w.lastOk, w.lastKo = w.ok, w.ko
	return s
}

func (w *ConsoleWriter) Counts() (ok, ko int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ok, w.ko
}
