package util

import "time"

// Clock lets tests pin the timestamps recorded for runs and reports.
type Clock interface {
	Now() time.Time
}

type DefaultClock struct{}

func (c *DefaultClock) Now() time.Time { return time.Now() }

// DummyClock returns T, advancing it by Step on every call.
type DummyClock struct {
	T    time.Time
	Step time.Duration
}

func (c *DummyClock) Now() time.Time {
	t := c.T
	c.T = c.T.Add(c.Step)
	return t
}
