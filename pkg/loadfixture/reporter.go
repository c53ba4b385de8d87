package loadfixture

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/G-Research/loadfixture/internal/common/util"
	"github.com/G-Research/loadfixture/internal/report"
	"github.com/G-Research/loadfixture/pkg/assertion"
	"github.com/G-Research/loadfixture/pkg/results"
)

// ReportGenerator renders the report of run under dir and returns the path of its index file.
type ReportGenerator func(dir string, run *results.Run, assertions []assertion.Result) (string, error)

// ReportEmitter renders reports of completed runs when the configuration allows it.
type ReportEmitter struct {
	config   Config
	reader   results.Reader
	generate ReportGenerator
	clock    util.Clock
}

func NewReportEmitter(config Config, reader results.Reader) *ReportEmitter {
	return &ReportEmitter{
		config:   config,
		reader:   reader,
		generate: report.Generate,
		clock:    &util.DefaultClock{},
	}
}

// MaybeEmit renders the report of runID and returns the path of its index file.
// It does nothing and returns an empty path if reports are disabled.
func (e *ReportEmitter) MaybeEmit(runID string, assertions []assertion.Result, start time.Time) (string, error) {
	if !e.config.ReportsEnabled() {
		return "", nil
	}
	logger := log.WithField("runId", runID)
	logger.Info("Generating reports...")
	run, err := e.reader.Open(runID)
	if err != nil {
		return "", errors.WithMessagef(err, "error reading results of run %s", runID)
	}
	index, err := e.generate(e.config.Reports.Directory, run, assertions)
	if err != nil {
		return "", errors.WithMessagef(err, "error generating reports of run %s", runID)
	}
	elapsed := e.clock.Now().Sub(start)
	logger.Infof("Reports generated in %ds.", int(elapsed.Seconds()))
	logger.Infof("Please open the following file: %s", index)
	return index, nil
}
