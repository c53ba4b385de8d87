// Package suite runs load tests declared in YAML files through a loadfixture.Fixture.
package suite

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jstemmer/go-junit-report/v2/junit"
	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/internal/build"
	"github.com/G-Research/loadfixture/internal/common/util"
	"github.com/G-Research/loadfixture/pkg/loadfixture"
)

type App struct {
	// Config of the fixture running the tests.
	Config loadfixture.Config
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
	// Client issuing the requests of all tests.
	HTTPClient *http.Client
	// Fixture running the tests. Created from Config if nil.
	Fixture *loadfixture.Fixture
}

// New instantiates an App with the default config, writing to standard out.
func New() *App {
	return &App{
		Config:     loadfixture.DefaultConfig(),
		Out:        os.Stdout,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

func (a *App) fixture() (*loadfixture.Fixture, error) {
	if a.Fixture != nil {
		return a.Fixture, nil
	}
	f, err := loadfixture.NewFixture(a.Config)
	if err != nil {
		return nil, err
	}
	a.Fixture = f
	return f, nil
}

// TestFile runs the test declared in the file at path.
// An error is returned only if the test could not be loaded; failures of the test itself are in the outcome.
func (a *App) TestFile(ctx context.Context, path string) (*loadfixture.Outcome, error) {
	f, err := a.fixture()
	if err != nil {
		return nil, err
	}
	spec, err := LoadTestSpec(path)
	if err != nil {
		return nil, err
	}
	test, err := spec.Test(a.HTTPClient)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid test file %s", path)
	}
	return f.Execute(ctx, test), nil
}

// Result is the outcome of one test file.
type Result struct {
	File    string
	Outcome *loadfixture.Outcome
	// Set if the file could not be loaded.
	Err     error
	Elapsed time.Duration
}

// Report summarises a run of several test files.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

func (r *Report) counts() (successes, failures, skipped int) {
	for _, result := range r.Results {
		switch {
		case result.Err != nil:
			failures++
		case result.Outcome.Status == loadfixture.Canceled:
			skipped++
		case result.Outcome.Status == loadfixture.Failed:
			failures++
		default:
			successes++
		}
	}
	return
}

// Failed reports whether any test failed or could not be loaded.
func (r *Report) Failed() bool {
	_, failures, _ := r.counts()
	return failures > 0
}

// TestFiles runs the tests of every file matching pattern, e.g. "testcases/**/*.yaml", one after the other.
// It stops early if ctx is cancelled.
func (a *App) TestFiles(ctx context.Context, pattern string) (*Report, error) {
	files, err := zglob.Glob(pattern)
	if err != nil {
		return nil, errors.WithMessagef(err, "error matching test files %s", pattern)
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no test files match %s", pattern)
	}

	report := &Report{}
	start := time.Now()
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprintf(a.Out, "starting test case %s\n", file)
		testStart := time.Now()
		outcome, err := a.TestFile(ctx, file)
		result := Result{File: file, Outcome: outcome, Err: err, Elapsed: time.Since(testStart)}
		report.Results = append(report.Results, result)

		fmt.Fprintf(a.Out, "\nRuntime: %s\n", result.Elapsed)
		switch {
		case err != nil:
			fmt.Fprintf(a.Out, "TEST ERROR: %s\n", err)
		case outcome.Status == loadfixture.Failed:
			fmt.Fprintf(a.Out, "TEST FAILED: %s\n", outcome.Message)
		case outcome.Status == loadfixture.Canceled:
			fmt.Fprintf(a.Out, "TEST SKIPPED: %s\n", outcome.Message)
		default:
			fmt.Fprint(a.Out, "TEST SUCCEEDED\n")
		}
		if outcome != nil {
			a.printAssertions(outcome)
			if outcome.ReportPath != "" {
				fmt.Fprintf(a.Out, "Report: %s\n", outcome.ReportPath)
			}
		}
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

func (a *App) printAssertions(outcome *loadfixture.Outcome) {
	if len(outcome.Assertions) == 0 {
		return
	}
	table := util.NewTable("  ")
	for _, r := range outcome.Assertions {
		status := "OK"
		if !r.Passed {
			status = "KO"
		}
		table.Row(status, r.Message)
	}
	fmt.Fprintf(a.Out, "Assertions:\n%s", table)
}

// PrintSummary writes the number of successes, failures and skipped tests of r.
func (a *App) PrintSummary(r *Report) {
	successes, failures, skipped := r.counts()
	fmt.Fprintf(a.Out, "\n======= SUMMARY =======\n")
	fmt.Fprintf(a.Out, "Ran %d test(s) in %s\n", len(r.Results), r.Elapsed)
	fmt.Fprintf(a.Out, "Successes: %d\n", successes)
	fmt.Fprintf(a.Out, "Failures: %d\n", failures)
	fmt.Fprintf(a.Out, "Skipped: %d\n", skipped)
}

// JUnit converts r into a JUnit report with one test case per file.
func (r *Report) JUnit() junit.Testsuites {
	suite := junit.Testsuite{
		Name: "loadfixture",
		Time: formatSeconds(r.Elapsed),
	}
	for _, result := range r.Results {
		tc := junit.Testcase{
			Name:      result.File,
			Classname: "loadfixture",
			Time:      formatSeconds(result.Elapsed),
		}
		switch {
		case result.Err != nil:
			tc.Error = &junit.Result{Message: "error loading test", Data: result.Err.Error()}
		case result.Outcome.Status == loadfixture.Failed:
			tc.Failure = &junit.Result{Message: "Failed", Data: result.Outcome.Message}
		case result.Outcome.Status == loadfixture.Canceled:
			tc.Skipped = &junit.Result{Message: result.Outcome.Message}
		}
		if result.Outcome != nil && result.Outcome.ReportPath != "" {
			tc.SystemOut = &junit.Output{Data: "Report: " + result.Outcome.ReportPath}
		}
		suite.AddTestcase(tc)
	}
	var suites junit.Testsuites
	suites.AddSuite(suite)
	return suites
}

// WriteJUnit writes the JUnit report of r to the file at path.
func (r *Report) WriteJUnit(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := writeXML(f, r.JUnit()); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "error writing junit report %s", path)
	}
	return errors.WithStack(f.Close())
}

func writeXML(w io.Writer, suites junit.Testsuites) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.WithStack(err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(suites); err != nil {
		return errors.WithStack(err)
	}
	_, err := io.WriteString(w, "\n")
	return errors.WithStack(err)
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
