package results

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Writer receives the records of a single run. Write may be called concurrently by many virtual users.
type Writer interface {
	Write(rec Record) error
	// Close flushes the writer and records end as the end of the run.
	Close(end time.Time) error
}

// Reader reads back the results of completed runs.
type Reader interface {
	Open(runID string) (*Run, error)
}

// NewWriter returns a writer fanning out to every writer enabled in config.
func NewWriter(config Config, meta RunMetadata) (Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	mw := &multiWriter{}
	for _, name := range config.Writers {
		var w Writer
		var err error
		switch name {
		case FileWriterName:
			w, err = NewFileWriter(config.Directory, meta)
		case SqliteWriterName:
			w, err = NewSqliteWriter(config.Directory, meta)
		case ConsoleWriterName:
			w = NewConsoleWriter(meta, defaultConsoleInterval)
		}
		if err != nil {
			_ = mw.Close(meta.Start)
			return nil, errors.WithMessagef(err, "error creating %s results writer", name)
		}
		mw.writers = append(mw.writers, w)
	}
	return mw, nil
}

// NewReader returns a reader over the store of the highest-fidelity writer enabled in config.
// The file store is preferred over sqlite; the console writer keeps nothing to read back.
func NewReader(config Config) (Reader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch {
	case config.Enabled(FileWriterName):
		return NewFileReader(config.Directory), nil
	case config.Enabled(SqliteWriterName):
		return NewSqliteReader(config.Directory), nil
	default:
		return nil, errors.Errorf("no readable results writer enabled in %v", config.Writers)
	}
}

type multiWriter struct {
	writers []Writer
}

func (mw *multiWriter) Write(rec Record) error {
	for _, w := range mw.writers {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (mw *multiWriter) Close(end time.Time) error {
	var result *multierror.Error
	for _, w := range mw.writers {
		if err := w.Close(end); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
