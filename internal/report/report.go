// Package report renders the results of a completed run as a static HTML page and a JSON summary.
package report

import (
	"embed"
	"encoding/json"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/pkg/assertion"
	"github.com/G-Research/loadfixture/pkg/results"
)

const (
	IndexFile = "index.html"
	StatsFile = "stats.json"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Summary is the data rendered into a report.
type Summary struct {
	RunID       string             `json:"runId"`
	Simulation  string             `json:"simulation"`
	Description string             `json:"description,omitempty"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	Duration    time.Duration      `json:"-"`
	Groups      []GroupSummary     `json:"groups"`
	Assertions  []AssertionSummary `json:"assertions"`
}

// GroupSummary holds the statistics of one row of the report; the first row is always the global one.
type GroupSummary struct {
	Name string `json:"name"`
	results.Stats
	KOPercent float64 `json:"koPercent"`
	P50       float64 `json:"p50"`
	P75       float64 `json:"p75"`
	P95       float64 `json:"p95"`
	P99       float64 `json:"p99"`
}

type AssertionSummary struct {
	Assertion string `json:"assertion"`
	Passed    bool   `json:"passed"`
	Message   string `json:"message"`
}

// Summarize computes the summary of run.
func Summarize(run *results.Run, assertions []assertion.Result) *Summary {
	s := &Summary{
		RunID:       run.Metadata.RunID,
		Simulation:  run.Metadata.Simulation,
		Description: run.Metadata.Description,
		Start:       run.Metadata.Start,
		End:         run.Metadata.End,
		Duration:    run.Metadata.End.Sub(run.Metadata.Start).Round(time.Millisecond),
		Groups:      []GroupSummary{summarizeGroup(run, results.Group{})},
		Assertions:  make([]AssertionSummary, len(assertions)),
	}
	for _, g := range run.Groups() {
		s.Groups = append(s.Groups, summarizeGroup(run, g))
	}
	for i, r := range assertions {
		s.Assertions[i] = AssertionSummary{Assertion: r.Assertion.String(), Passed: r.Passed, Message: r.Message}
	}
	return s
}

func summarizeGroup(run *results.Run, g results.Group) GroupSummary {
	stats := run.Stats(g)
	return GroupSummary{
		Name:      g.String(),
		Stats:     stats,
		KOPercent: stats.KOPercent(),
		P50:       stats.Percentile(50),
		P75:       stats.Percentile(75),
		P95:       stats.Percentile(95),
		P99:       stats.Percentile(99),
	}
}

// Generate writes the report of run to <dir>/<runId>/ and returns the path of its index file.
func Generate(dir string, run *results.Run, assertions []assertion.Result) (string, error) {
	reportDir := filepath.Join(dir, run.Metadata.RunID)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", errors.WithStack(err)
	}
	summary := Summarize(run, assertions)

	stats, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err := os.WriteFile(filepath.Join(reportDir, StatsFile), stats, 0o644); err != nil {
		return "", errors.WithStack(err)
	}

	index := filepath.Join(reportDir, IndexFile)
	f, err := os.Create(index)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err := indexTemplate.Execute(f, summary); err != nil {
		_ = f.Close()
		return "", errors.WithMessagef(err, "error rendering %s", index)
	}
	if err := f.Close(); err != nil {
		return "", errors.WithStack(err)
	}
	return index, nil
}
