package suite

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
	"github.com/G-Research/loadfixture/pkg/assertion"
	"github.com/G-Research/loadfixture/pkg/engine"
	"github.com/G-Research/loadfixture/pkg/loadfixture"
)

// TestSpec is a load test declared in a YAML file:
//
//	name: checkout flow_tier_1
//	timeoutSeconds: 60
//	scenarios:
//	  - name: browse
//	    users: 10
//	    rampUp: 5s
//	    iterations: 20
//	    requests:
//	      - name: home
//	        url: ${TARGET_URL}/
//	assertions:
//	  - metric: failedRequests
//	    stat: percent
//	    condition: lt
//	    value: 1
type TestSpec struct {
	// Defaults to the file name without its extension.
	Name           string           `yaml:"name"`
	TimeoutSeconds int              `yaml:"timeoutSeconds"`
	MaxDuration    time.Duration    `yaml:"maxDuration"`
	Scenarios      []ScenarioSpec   `yaml:"scenarios"`
	Assertions     []assertion.Spec `yaml:"assertions"`
}

type ScenarioSpec struct {
	Name       string        `yaml:"name"`
	Users      int           `yaml:"users"`
	RampUp     time.Duration `yaml:"rampUp"`
	Iterations int           `yaml:"iterations"`
	Duration   time.Duration `yaml:"duration"`
	Pause      time.Duration `yaml:"pause"`
	Requests   []RequestSpec `yaml:"requests"`
}

type RequestSpec struct {
	Name         string            `yaml:"name"`
	Method       string            `yaml:"method"`
	URL          string            `yaml:"url"`
	Body         string            `yaml:"body"`
	Headers      map[string]string `yaml:"headers"`
	ExpectStatus int               `yaml:"expectStatus"`
}

// LoadTestSpec reads the test declared in the file at path.
// References to environment variables, e.g. ${TARGET_URL}, are expanded before parsing.
func LoadTestSpec(path string) (*TestSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	spec := &TestSpec{}
	if err := yaml.UnmarshalStrict([]byte(os.ExpandEnv(string(raw))), spec); err != nil {
		return nil, errors.WithMessagef(err, "error parsing test file %s", path)
	}
	if spec.Name == "" {
		name := filepath.Base(path)
		spec.Name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if spec.TimeoutSeconds == 0 {
		spec.TimeoutSeconds = loadfixture.DefaultTimeoutSeconds
	}
	if err := spec.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid test file %s", path)
	}
	return spec, nil
}

func (spec *TestSpec) Validate() error {
	if spec.TimeoutSeconds < 0 {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
			Name:    "TimeoutSeconds",
			Value:   spec.TimeoutSeconds,
			Message: "must not be negative",
		})
	}
	for _, sc := range spec.Scenarios {
		for _, r := range sc.Requests {
			if r.URL == "" {
				return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
					Name:    "URL",
					Value:   r.URL,
					Message: fmt.Sprintf("request %q of scenario %q has no url", r.Name, sc.Name),
				})
			}
		}
	}
	return nil
}

// Test converts spec into a test issuing its requests with client.
func (spec *TestSpec) Test(client *http.Client) (*loadfixture.Test, error) {
	assertions, err := assertion.FromSpecs(spec.Assertions)
	if err != nil {
		return nil, err
	}
	sim := &engine.Simulation{Name: spec.Name}
	for _, sc := range spec.Scenarios {
		scenario := &engine.Scenario{
			Name: sc.Name,
			Injection: engine.Injection{
				Users:      sc.Users,
				RampUp:     sc.RampUp,
				Iterations: sc.Iterations,
				Duration:   sc.Duration,
				Pause:      sc.Pause,
			},
		}
		for _, r := range sc.Requests {
			name := r.Name
			if name == "" {
				name = r.URL
			}
			scenario.Actions = append(scenario.Actions, engine.HTTPRequest{
				Name:         name,
				Method:       r.Method,
				URL:          r.URL,
				Body:         r.Body,
				Headers:      r.Headers,
				ExpectStatus: r.ExpectStatus,
			}.Action(client))
		}
		sim.Scenarios = append(sim.Scenarios, scenario)
	}
	return &loadfixture.Test{
		Name:           spec.Name,
		TimeoutSeconds: spec.TimeoutSeconds,
		MaxDuration:    spec.MaxDuration,
		Simulation:     sim,
		Assertions:     assertions,
	}, nil
}
