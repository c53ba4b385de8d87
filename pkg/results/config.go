package results

import (
	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
)

const (
	FileWriterName    = "file"
	SqliteWriterName  = "sqlite"
	ConsoleWriterName = "console"
)

type Config struct {
	// Directory under which result data is stored.
	Directory string
	// Writers receiving records while a run executes; any of FileWriterName, SqliteWriterName and ConsoleWriterName.
	Writers []string
}

func (c Config) Enabled(writer string) bool {
	for _, w := range c.Writers {
		if w == writer {
			return true
		}
	}
	return false
}

func (c Config) Validate() error {
	if c.Directory == "" && (c.Enabled(FileWriterName) || c.Enabled(SqliteWriterName)) {
		return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
			Name:    "Directory",
			Value:   c.Directory,
			Message: "a results directory is required by the file and sqlite writers",
		})
	}
	for _, w := range c.Writers {
		switch w {
		case FileWriterName, SqliteWriterName, ConsoleWriterName:
		default:
			return errors.WithStack(&fixtureerrors.ErrInvalidArgument{
				Name:    "Writers",
				Value:   w,
				Message: "unknown writer",
			})
		}
	}
	return nil
}
