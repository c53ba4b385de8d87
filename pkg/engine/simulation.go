package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
)

// Simulation is a named set of scenarios executed concurrently.
type Simulation struct {
	Name      string
	Scenarios []*Scenario
}

// Scenario is a sequence of actions looped over by every virtual user injected into it.
type Scenario struct {
	Name      string
	Injection Injection
	Actions   []Action
}

// Injection controls how many virtual users run a scenario and for how long.
type Injection struct {
	// Number of concurrent virtual users.
	Users int
	// Users are started evenly spread over this period.
	RampUp time.Duration
	// Number of times each user runs through the actions.
	// A value of 0 indicates users loop until Duration has elapsed.
	Iterations int
	// Per-user time limit, measured from when the user starts.
	// A value of 0 indicates no limit.
	Duration time.Duration
	// Time between consecutive actions of a user.
	Pause time.Duration
}

// Action is a single step of a scenario, e.g. one HTTP request.
// Exec returning an error marks the action as KO; it does not stop the user.
type Action struct {
	Name string
	Exec func(ctx context.Context) error
}

func (s *Simulation) Validate() error {
	if s == nil {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: "Simulation", Value: nil, Message: "not provided"})
	}
	if s.Name == "" {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: "Name", Value: s.Name, Message: "not provided"})
	}
	if len(s.Scenarios) == 0 {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
			Name:    "Scenarios",
			Value:   len(s.Scenarios),
			Message: "no scenarios provided",
		})
	}
	for i, sc := range s.Scenarios {
		if sc == nil {
			return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
				Name:    "Scenarios",
				Value:   i,
				Message: "nil scenario",
			})
		}
		if err := sc.Validate(); err != nil {
			return errors.WithMessagef(err, "invalid scenario %q", sc.Name)
		}
	}
	return nil
}

func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{Name: "Name", Value: sc.Name, Message: "not provided"})
	}
	if len(sc.Actions) == 0 {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
			Name:    "Actions",
			Value:   len(sc.Actions),
			Message: "no actions provided",
		})
	}
	for _, a := range sc.Actions {
		if a.Name == "" || a.Exec == nil {
			return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
				Name:    "Actions",
				Value:   a.Name,
				Message: "every action needs a name and an Exec function",
			})
		}
	}
	in := sc.Injection
	if in.Users <= 0 {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
			Name:    "Users",
			Value:   in.Users,
			Message: "number of users must be positive",
		})
	}
	if in.Iterations < 0 || in.Duration < 0 || in.RampUp < 0 || in.Pause < 0 {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
			Name:    "Injection",
			Value:   in,
			Message: "iterations and durations must not be negative",
		})
	}
	if in.Iterations == 0 && in.Duration == 0 {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
			Name:    "Injection",
			Value:   in,
			Message: "one of iterations or duration must be set",
		})
	}
	return nil
}
