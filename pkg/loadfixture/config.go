package loadfixture

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/internal/common/config"
	"github.com/G-Research/loadfixture/pkg/results"
)

const (
	DefaultResultsDirectory = "gatling-results"
	DefaultReportsDirectory = "gatling-reports"
)

// Keys lists the keys understood by ParseConfig.
var Keys = []string{
	"results.directory",
	"results.writers",
	"reports.directory",
	"reports.enabled",
	"tiers.skip",
	"tiers.run",
}

// Config is the typed form of the key/value settings supplied by the harness, e.g.
//
//	results.directory = gatling-results
//	results.writers   = file,console
//	reports.directory = gatling-reports
//	reports.enabled   = true
//	tiers.skip        = false
//	tiers.run         = 1,2
type Config struct {
	Results results.Config `mapstructure:"results"`
	Reports ReportsConfig  `mapstructure:"reports"`
	Tiers   RunConfig      `mapstructure:"tiers"`
}

type ReportsConfig struct {
	Directory string `mapstructure:"directory" validate:"required_if=Enabled true"`
	Enabled   bool   `mapstructure:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		Results: results.Config{Directory: DefaultResultsDirectory, Writers: []string{results.FileWriterName}},
		Reports: ReportsConfig{Directory: DefaultReportsDirectory, Enabled: true},
	}
}

// ParseConfig overlays values on the defaults. Keys it doesn't know are ignored.
// Any value that cannot be decoded, or that leaves the config invalid, results in a *ConfigParseError.
func ParseConfig(values map[string]string) (Config, error) {
	c := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       config.CommaSeparatedSliceHookFunc(),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           &c,
	})
	if err != nil {
		return Config{}, errors.WithStack(err)
	}
	if err := decoder.Decode(config.Unflatten(values)); err != nil {
		return Config{}, errors.WithStack(&ConfigParseError{Err: err})
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if err := config.Validate(c); err != nil {
		var fieldErr *config.FieldError
		if errors.As(err, &fieldErr) {
			return errors.WithStack(&ConfigParseError{Key: fieldErr.Field, Err: fieldErr})
		}
		return errors.WithStack(&ConfigParseError{Err: err})
	}
	if err := c.Results.Validate(); err != nil {
		return errors.WithStack(&ConfigParseError{Key: "results", Err: err})
	}
	if !c.Results.Enabled(results.FileWriterName) && !c.Results.Enabled(results.SqliteWriterName) {
		return errors.WithStack(&ConfigParseError{
			Key: "results.writers",
			Err: errors.Errorf("one of %s or %s is required to read back results", results.FileWriterName, results.SqliteWriterName),
		})
	}
	return nil
}

// ReportsEnabled reports whether reports are rendered: only when results are written to files and reports
// have not been disabled.
func (c Config) ReportsEnabled() bool {
	return c.Results.Enabled(results.FileWriterName) && c.Reports.Enabled
}
