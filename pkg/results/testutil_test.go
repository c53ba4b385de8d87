package results

import (
	"time"
)

var testStart = time.Date(2022, 10, 1, 12, 0, 0, 0, time.UTC)

func testRecord(scenario, request string, offset, rt time.Duration, ok bool) Record {
	start := testStart.Add(offset)
	rec := Record{
		RunID:    "run-1",
		Scenario: scenario,
		Request:  request,
		Session:  "session-1",
		Start:    start,
		End:      start.Add(rt),
		OK:       ok,
	}
	if !ok {
		rec.Message = "status 500"
	}
	return rec
}

func testRun() *Run {
	return &Run{
		Metadata: RunMetadata{
			RunID:      "run-1",
			Simulation: "checkout",
			Label:      "checkout_flow",
			Start:      testStart,
			End:        testStart.Add(2 * time.Second),
		},
		Records: []Record{
			testRecord("browse", "home", 0, 10*time.Millisecond, true),
			testRecord("browse", "search", 100*time.Millisecond, 20*time.Millisecond, true),
			testRecord("buy", "pay", 200*time.Millisecond, 30*time.Millisecond, true),
			testRecord("buy", "pay", 300*time.Millisecond, 40*time.Millisecond, false),
		},
	}
}
