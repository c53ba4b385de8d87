package results

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_GlobalStats(t *testing.T) {
	s := testRun().Stats(Group{})

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 3, s.OK)
	assert.Equal(t, 1, s.KO)
	assert.InDelta(t, 10.0, s.Min, 1e-9)
	assert.InDelta(t, 40.0, s.Max, 1e-9)
	assert.InDelta(t, 25.0, s.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(125), s.StdDev, 1e-9)
	assert.InDelta(t, 2.0, s.RequestsPerSec, 1e-9)
	assert.InDelta(t, 75.0, s.OKPercent(), 1e-9)
	assert.InDelta(t, 25.0, s.KOPercent(), 1e-9)
}

func TestStats_Percentile(t *testing.T) {
	s := testRun().Stats(Group{})
	tests := map[string]struct {
		p    float64
		want float64
	}{
		"p0":   {0, 10},
		"p25":  {25, 10},
		"p50":  {50, 20},
		"p75":  {75, 30},
		"p99":  {99, 40},
		"p100": {100, 40},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.want, s.Percentile(tc.p), 1e-9)
		})
	}
}

func TestRun_GroupStats(t *testing.T) {
	run := testRun()

	buy := run.Stats(Group{Scenario: "buy"})
	assert.Equal(t, 2, buy.Count)
	assert.Equal(t, 1, buy.KO)

	search := run.Stats(Group{Scenario: "browse", Request: "search"})
	assert.Equal(t, 1, search.Count)
	assert.InDelta(t, 20.0, search.Max, 1e-9)

	missing := run.Stats(Group{Scenario: "nope"})
	assert.Equal(t, 0, missing.Count)
	assert.Equal(t, 0.0, missing.Percentile(50))
	assert.Equal(t, 0.0, missing.OKPercent())
}

func TestRun_Groups(t *testing.T) {
	assert.Equal(t, []Group{
		{Scenario: "browse", Request: "home"},
		{Scenario: "browse", Request: "search"},
		{Scenario: "buy", Request: "pay"},
	}, testRun().Groups())
}

func TestRun_StatsWithoutRunWindow(t *testing.T) {
	run := testRun()
	run.Metadata.End = run.Metadata.Start
	// Falls back to the span of the records: 0ms to 340ms.
	s := run.Stats(Group{})
	assert.InDelta(t, 4/0.34, s.RequestsPerSec, 1e-6)
}

func TestGroup_String(t *testing.T) {
	assert.Equal(t, "Global", Group{}.String())
	assert.Equal(t, "buy", Group{Scenario: "buy"}.String())
	assert.Equal(t, "pay", Group{Request: "pay"}.String())
	assert.Equal(t, "buy / pay", Group{Scenario: "buy", Request: "pay"}.String())
}
