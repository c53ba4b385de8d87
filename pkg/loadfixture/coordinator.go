package loadfixture

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/G-Research/loadfixture/pkg/engine"
)

// SimulationHandle is the simulation submitted on behalf of one test.
type SimulationHandle struct {
	// Normalized test name, used as the run label.
	Name string
	// Upper bound on the wait for the run to be accepted and to complete.
	TimeoutSeconds int
	Simulation     *engine.Simulation
	// Passed to the engine as the run's max duration; 0 leaves the run unbounded.
	MaxDuration time.Duration
}

func (h *SimulationHandle) timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// RunCoordinator submits simulations to a runtime's controller and waits for them to complete.
type RunCoordinator struct {
	controller Controller
}

func NewRunCoordinator(controller Controller) *RunCoordinator {
	return &RunCoordinator{controller: controller}
}

// Run submits sim and blocks until the controller replies, returning the id of the completed run.
//
// If no reply arrives within sim.TimeoutSeconds, Run returns a *SimulationTimeout and any later reply is discarded.
// A Failure reply is returned as is; any reply other than a Success or a Failure is an *UnexpectedControllerReply.
// Cancelling ctx abandons the wait.
func (c *RunCoordinator) Run(ctx context.Context, sim *SimulationHandle) (string, error) {
	logger := log.WithFields(log.Fields{"simulation": sim.Name, "timeoutSeconds": sim.TimeoutSeconds})
	timer := time.NewTimer(sim.timeout())
	defer timer.Stop()

	reply := c.controller.Ask(engine.StartRun{
		Simulation:     sim.Simulation,
		RunLabel:       sim.Name,
		RunDescription: sim.Name,
		Timings:        engine.Timings{MaxDuration: sim.MaxDuration},
	})
	logger.Debug("Simulation submitted")

	select {
	case r := <-reply:
		switch r := r.(type) {
		case engine.Success:
			logger.WithField("runId", r.RunID).Debug("Simulation completed")
			return r.RunID, nil
		case engine.Failure:
			return "", r.Err
		default:
			return "", errors.WithStack(&UnexpectedControllerReply{Reply: r})
		}
	case <-timer.C:
		return "", errors.WithStack(&SimulationTimeout{Simulation: sim.Name, Seconds: sim.TimeoutSeconds})
	case <-ctx.Done():
		return "", errors.WithMessagef(ctx.Err(), "abandoned simulation %s", sim.Name)
	}
}
