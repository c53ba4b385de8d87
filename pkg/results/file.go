package results

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
)

const (
	simulationLogFile = "simulation.log"
	runMetadataFile   = "run.json"
)

// FileWriter stores records as JSON lines in <dir>/<runId>/simulation.log,
// and the run metadata in <dir>/<runId>/run.json once the run is closed.
type FileWriter struct {
	dir  string
	meta RunMetadata
	f    *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
	mu   sync.Mutex
}

func NewFileWriter(directory string, meta RunMetadata) (*FileWriter, error) {
	dir := filepath.Join(directory, meta.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	f, err := os.Create(filepath.Join(dir, simulationLogFile))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	buf := bufio.NewWriter(f)
	return &FileWriter{
		dir:  dir,
		meta: meta,
		f:    f,
		buf:  buf,
		enc:  json.NewEncoder(buf),
	}, nil
}

func (w *FileWriter) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.WithStack(w.enc.Encode(rec))
}

func (w *FileWriter) Close(end time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		_ = w.f.Close()
		return errors.WithStack(err)
	}
	if err := w.f.Close(); err != nil {
		return errors.WithStack(err)
	}
	w.meta.End = end
	data, err := json.MarshalIndent(w.meta, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(filepath.Join(w.dir, runMetadataFile), data, 0o644))
}

type FileReader struct {
	directory string
}

func NewFileReader(directory string) *FileReader {
	return &FileReader{directory: directory}
}

func (r *FileReader) Open(runID string) (*Run, error) {
	dir := filepath.Join(r.directory, runID)
	data, err := os.ReadFile(filepath.Join(dir, runMetadataFile))
	if os.IsNotExist(err) {
		return nil, errors.WithStack(&fixtureerrors.ErrNotFound{
			Type:    "run",
			Value:   runID,
			Message: "no " + runMetadataFile + " in " + dir,
		})
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	run := &Run{}
	if err := json.Unmarshal(data, &run.Metadata); err != nil {
		return nil, errors.WithMessagef(err, "error decoding %s", runMetadataFile)
	}

	f, err := os.Open(filepath.Join(dir, simulationLogFile))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	dec := json.NewDecoder(bufio.NewReader(f))
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, errors.WithMessagef(err, "error decoding record %d of %s", len(run.Records), simulationLogFile)
		}
		run.Records = append(run.Records, rec)
	}
	return run, nil
}
