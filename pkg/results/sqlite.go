package results

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/G-Research/loadfixture/internal/common/fixtureerrors"
	"github.com/G-Research/loadfixture/internal/common/util"
)

const sqliteDatabaseFile = "results.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	RunId TEXT PRIMARY KEY,
	Simulation TEXT,
	Label TEXT,
	Description TEXT,
	Start INT,
	End INT);
CREATE TABLE IF NOT EXISTS records (
	RunId TEXT,
	Scenario TEXT,
	Request TEXT,
	Session TEXT,
	Start INT,
	End INT,
	Ok INT,
	Message TEXT);
CREATE INDEX IF NOT EXISTS idx_records_run ON records (RunId);`

func openSqlite(directory string) (*sql.DB, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	db, err := sql.Open("sqlite", filepath.Join(directory, sqliteDatabaseFile))
	if err != nil {
		return nil, errors.WithMessagef(err, "error opening sqlite database in %s", directory)
	}
	// One connection: sqlite serialises writers anyway, and this keeps PRAGMAs in effect.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "error creating results schema")
	}
	return db, nil
}

// SqliteWriter stores runs and records in <dir>/results.db, shared by all runs.
type SqliteWriter struct {
	db     *sql.DB
	insert *sql.Stmt
	meta   RunMetadata
	mu     sync.Mutex
}

func NewSqliteWriter(directory string, meta RunMetadata) (*SqliteWriter, error) {
	db, err := openSqlite(directory)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(
		"INSERT INTO runs (RunId, Simulation, Label, Description, Start, End) VALUES (?, ?, ?, ?, ?, ?)",
		meta.RunID, meta.Simulation, meta.Label, meta.Description, meta.Start.UnixNano(), meta.Start.UnixNano(),
	)
	if err != nil {
		_ = db.Close()
		return nil, errors.WithMessagef(err, "error inserting run %s", meta.RunID)
	}
	insert, err := db.Prepare(
		"INSERT INTO records (RunId, Scenario, Request, Session, Start, End, Ok, Message) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}
	return &SqliteWriter{db: db, insert: insert, meta: meta}, nil
}

func (w *SqliteWriter) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.insert.Exec(
		rec.RunID, rec.Scenario, rec.Request, rec.Session, rec.Start.UnixNano(), rec.End.UnixNano(), rec.OK, rec.Message,
	)
	return errors.WithStack(err)
}

func (w *SqliteWriter) Close(end time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer util.CloseResource("sqlite results database", w.db)
	defer util.CloseResource("sqlite insert statement", w.insert)
	_, err := w.db.Exec("UPDATE runs SET End = ? WHERE RunId = ?", end.UnixNano(), w.meta.RunID)
	return errors.WithMessagef(err, "error finalising run %s", w.meta.RunID)
}

type SqliteReader struct {
	directory string
}

func NewSqliteReader(directory string) *SqliteReader {
	return &SqliteReader{directory: directory}
}

func (r *SqliteReader) Open(runID string) (*Run, error) {
	if _, err := os.Stat(filepath.Join(r.directory, sqliteDatabaseFile)); err != nil {
		return nil, errors.WithStack(err)
	}
	db, err := openSqlite(r.directory)
	if err != nil {
		return nil, err
	}
	defer util.CloseResource("sqlite results database", db)

	run := &Run{}
	var start, end int64
	row := db.QueryRow("SELECT RunId, Simulation, Label, Description, Start, End FROM runs WHERE RunId = ?", runID)
	err = row.Scan(&run.Metadata.RunID, &run.Metadata.Simulation, &run.Metadata.Label, &run.Metadata.Description, &start, &end)
	if err == sql.ErrNoRows {
		return nil, errors.WithStack(&fixtureerrors.ErrNotFound{Type: "run", Value: runID})
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	run.Metadata.Start = time.Unix(0, start)
	run.Metadata.End = time.Unix(0, end)

	rows, err := db.Query(
		"SELECT Scenario, Request, Session, Start, End, Ok, Message FROM records WHERE RunId = ? ORDER BY rowid",
		runID,
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()
	for rows.Next() {
		rec := Record{RunID: runID}
		var recStart, recEnd int64
		if err := rows.Scan(&rec.Scenario, &rec.Request, &rec.Session, &recStart, &recEnd, &rec.OK, &rec.Message); err != nil {
			return nil, errors.WithStack(err)
		}
		rec.Start = time.Unix(0, recStart)
		rec.End = time.Unix(0, recEnd)
		run.Records = append(run.Records, rec)
	}
	return run, errors.WithStack(rows.Err())
}
