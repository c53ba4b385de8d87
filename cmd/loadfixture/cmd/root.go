package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/G-Research/loadfixture/internal/common/logging"
	"github.com/G-Research/loadfixture/internal/suite"
	"github.com/G-Research/loadfixture/pkg/loadfixture"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loadfixture",
		Short: "loadfixture runs load tests and checks their results against assertions.",
		Long: `loadfixture runs load tests and checks their results against assertions.

Each test is declared in a YAML file. Settings can be saved in a config file:

results:
  directory: gatling-results
  writers: file,console
reports:
  directory: gatling-reports
tiers:
  skip: false
  run: 1,2

The location of this file can be passed in using the --config argument.
Individual settings can be overridden with --set, e.g. --set tiers.skip=true,
or with LOADFIXTURE_ environment variables, e.g. LOADFIXTURE_TIERS_SKIP=true.`,
		SilenceUsage: true,
	}

	addConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		versionCmd(suite.New()),
		runCmd(suite.New()),
	)

	return cmd
}

// Print version info and exit.
func versionCmd(app *suite.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}

// Run every test file matching a pattern.
// Prints a summary on exit and fails if any test failed.
func runCmd(app *suite.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run load tests declared in YAML files.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			testFilesPattern, err := cmd.Flags().GetString("tests")
			if err != nil {
				return err
			}
			junitPath, err := cmd.Flags().GetString("junit")
			if err != nil {
				return err
			}
			metricsPath, err := cmd.Flags().GetString("metrics")
			if err != nil {
				return err
			}

			// Create a context that is cancelled on SIGINT/SIGTERM.
			// Stops the remaining tests on ctrl-C; the running one is abandoned and its runtime torn down.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			stopSignal := make(chan os.Signal, 1)
			signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				select {
				case <-ctx.Done():
					return
				case <-stopSignal:
					cancel()
				}
			}()

			report, err := app.TestFiles(ctx, testFilesPattern)
			if err != nil {
				return err
			}
			app.PrintSummary(report)
			if junitPath != "" {
				if err := report.WriteJUnit(junitPath); err != nil {
					return err
				}
			}
			if metricsPath != "" {
				if err := prometheus.WriteToTextfile(metricsPath, prometheus.DefaultGatherer); err != nil {
					return errors.WithStack(err)
				}
			}
			if report.Failed() {
				return errors.New("some tests failed")
			}
			return nil
		},
	}

	cmd.Flags().String("tests", "", "Test file pattern, e.g., './testcases/**/*.yaml'.")
	cmd.Flags().String("junit", "", "Write a JUnit report of the run to this file.")
	cmd.Flags().String("metrics", "", "Write the run's Prometheus metrics to this file in the text exposition format.")
	_ = cmd.MarkFlagRequired("tests")

	return cmd
}

func initParams(cmd *cobra.Command, app *suite.App) error {
	values, err := loadConfigValues(cmd)
	if err != nil {
		return err
	}
	config, err := loadfixture.ParseConfig(values)
	if err != nil {
		return err
	}
	app.Config = config
	app.Fixture, err = loadfixture.NewFixture(config)
	if err != nil {
		return err
	}
	app.Fixture.Metrics = loadfixture.NewMetrics(prometheus.DefaultRegisterer)
	log.AddHook(logging.NewPrometheusHook(prometheus.DefaultRegisterer))
	return nil
}
