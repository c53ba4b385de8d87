package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/G-Research/loadfixture/internal/common/util"
	"github.com/G-Research/loadfixture/pkg/results"
)

// execute runs every virtual user of every scenario and returns once all have finished.
// Only a cancelled ctx or a failure to record results stop the run early.
func execute(ctx context.Context, sim *Simulation, runID string, w results.Writer) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sc := range sim.Scenarios {
		for i := 0; i < sc.Injection.Users; i++ {
			u := &virtualUser{
				runID:    runID,
				scenario: sc,
				delay:    rampUpDelay(sc.Injection, i),
				writer:   w,
			}
			g.Go(func() error { return u.run(ctx) })
		}
	}
	return g.Wait()
}

// rampUpDelay spreads the start of the users of a scenario evenly over its ramp-up period.
func rampUpDelay(in Injection, i int) time.Duration {
	if in.RampUp <= 0 || in.Users <= 1 {
		return 0
	}
	return time.Duration(int64(in.RampUp) * int64(i) / int64(in.Users))
}

type virtualUser struct {
	runID    string
	scenario *Scenario
	delay    time.Duration
	writer   results.Writer
}

func (u *virtualUser) run(ctx context.Context) error {
	if err := sleep(ctx, u.delay); err != nil {
		return err
	}
	in := u.scenario.Injection
	session := util.NewUUID()
	var deadline time.Time
	if in.Duration > 0 {
		deadline = time.Now().Add(in.Duration)
	}
	for i := 0; in.Iterations == 0 || i < in.Iterations; i++ {
		for _, action := range u.scenario.Actions {
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := u.exec(ctx, session, action); err != nil {
				return err
			}
			if err := sleep(ctx, in.Pause); err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *virtualUser) exec(ctx context.Context, session string, action Action) error {
	start := time.Now()
	err := action.Exec(ctx)
	rec := results.Record{
		RunID:    u.runID,
		Scenario: u.scenario.Name,
		Request:  action.Name,
		Session:  session,
		Start:    start,
		End:      time.Now(),
		OK:       err == nil,
	}
	if err != nil {
		rec.Message = err.Error()
	}
	if werr := u.writer.Write(rec); werr != nil {
		return errors.WithMessagef(werr, "error recording result of %s", action.Name)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
