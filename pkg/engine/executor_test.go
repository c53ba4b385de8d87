package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRampUpDelay(t *testing.T) {
	tests := map[string]struct {
		in   Injection
		i    int
		want time.Duration
	}{
		"no ramp-up":  {Injection{Users: 4}, 3, 0},
		"single user": {Injection{Users: 1, RampUp: time.Second}, 0, 0},
		"first user":  {Injection{Users: 4, RampUp: time.Second}, 0, 0},
		"third user":  {Injection{Users: 4, RampUp: time.Second}, 2, 500 * time.Millisecond},
		"last user":   {Injection{Users: 4, RampUp: time.Second}, 3, 750 * time.Millisecond},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, rampUpDelay(tc.in, tc.i))
		})
	}
}

func TestScenario_Validate(t *testing.T) {
	valid := func() *Scenario {
		return &Scenario{Name: "s", Injection: Injection{Users: 1, Iterations: 1}, Actions: []Action{noopAction("a")}}
	}
	tests := map[string]struct {
		mutate  func(sc *Scenario)
		wantErr bool
	}{
		"valid":             {func(sc *Scenario) {}, false},
		"duration only":     {func(sc *Scenario) { sc.Injection.Iterations = 0; sc.Injection.Duration = time.Second }, false},
		"no name":           {func(sc *Scenario) { sc.Name = "" }, true},
		"no actions":        {func(sc *Scenario) { sc.Actions = nil }, true},
		"action without fn": {func(sc *Scenario) { sc.Actions = []Action{{Name: "a"}} }, true},
		"zero users":        {func(sc *Scenario) { sc.Injection.Users = 0 }, true},
		"negative pause":    {func(sc *Scenario) { sc.Injection.Pause = -time.Second }, true},
		"unbounded":         {func(sc *Scenario) { sc.Injection.Iterations = 0 }, true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			sc := valid()
			tc.mutate(sc)
			err := sc.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSimulation_Validate(t *testing.T) {
	var nilSim *Simulation
	assert.Error(t, nilSim.Validate())
	assert.Error(t, (&Simulation{Name: "x"}).Validate())
	assert.Error(t, (&Simulation{Scenarios: testSimulation(1, 1, noopAction("a")).Scenarios}).Validate())
	assert.NoError(t, testSimulation(1, 1, noopAction("a")).Validate())
}

func TestSimulation_ValidateNilScenario(t *testing.T) {
	sim := testSimulation(1, 1, noopAction("a"))
	sim.Scenarios = append(sim.Scenarios, nil)
	var err error
	assert.NotPanics(t, func() { err = sim.Validate() })
	assert.ErrorContains(t, err, "nil scenario")
}

func TestHTTPRequest_Action(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/created":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	tests := map[string]struct {
		req     HTTPRequest
		wantErr string
	}{
		"default method, any 2xx": {HTTPRequest{Name: "ok", URL: srv.URL + "/ok"}, ""},
		"expected status": {HTTPRequest{
			Name:         "create",
			Method:       http.MethodPost,
			URL:          srv.URL + "/created",
			Body:         `{"item": 1}`,
			Headers:      map[string]string{"Content-Type": "application/json"},
			ExpectStatus: http.StatusCreated,
		}, ""},
		"wrong status": {HTTPRequest{Name: "ok", URL: srv.URL + "/ok", ExpectStatus: http.StatusCreated}, "expected status 201 but got 200"},
		"server error": {HTTPRequest{Name: "boom", URL: srv.URL + "/boom"}, "unexpected status 500"},
		"invalid url":  {HTTPRequest{Name: "bad", URL: "://nope"}, "missing protocol scheme"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			action := tc.req.Action(srv.Client())
			require.Equal(t, tc.req.Name, action.Name)
			err := action.Exec(context.Background())
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
