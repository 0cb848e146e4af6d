// Package storage keeps a local SQLite mirror of submitted test matrices so a
// pipeline step can recover matrix ids and re-poll after a crash. The mirror
// is bookkeeping only; the testing service owns all run state.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	envMirrorDBPath   = "TESTLAB_DB_PATH"
	defaultDBDirName  = ".testlab"
	defaultDBFileName = "runs.sqlite"
	runsTable         = "test_runs"
)

// RunRecord mirrors one submitted matrix.
type RunRecord struct {
	MatrixID   string
	Project    string
	AppPath    string
	ResultPath string
	Bucket     string
	State      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RunMirror persists RunRecords into SQLite, keyed by matrix id.
type RunMirror struct {
	db     *sql.DB
	upsert *sql.Stmt
}

// NewRunMirror opens the shared database (ResolveDatabasePath) and ensures the
// test_runs table exists.
func NewRunMirror() (*RunMirror, error) {
	path, err := ResolveDatabasePath()
	if err != nil {
		return nil, err
	}
	return OpenRunMirror(path)
}

// OpenRunMirror opens a mirror at an explicit database path.
func OpenRunMirror(path string) (*RunMirror, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database for test runs failed")
	}
	if err := configureSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureRunsSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	upsert, err := prepareRunUpsert(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &RunMirror{db: db, upsert: upsert}, nil
}

// ResolveDatabasePath returns the mirror database path, honoring
// TESTLAB_DB_PATH and defaulting to ~/.testlab/runs.sqlite.
func ResolveDatabasePath() (string, error) {
	if custom := strings.TrimSpace(os.Getenv(envMirrorDBPath)); custom != "" {
		if err := ensureDirExists(filepath.Dir(custom)); err != nil {
			return "", err
		}
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "storage: locate user home failed")
	}
	dir := filepath.Join(home, defaultDBDirName)
	if err := ensureDirExists(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultDBFileName), nil
}

func ensureDirExists(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return errors.Wrapf(os.MkdirAll(dir, 0o755), "create directory %s failed", dir)
}

func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=MEMORY;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "execute sqlite pragma %s failed", stmt)
		}
	}
	db.SetMaxOpenConns(1)
	return nil
}

func ensureRunsSchema(db *sql.DB) error {
	createStmt := `CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
matrix_id TEXT PRIMARY KEY,
project TEXT,
app_path TEXT,
result_path TEXT,
bucket TEXT,
state TEXT,
created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if _, err := db.Exec(createStmt); err != nil {
		return errors.Wrap(err, "create test runs table failed")
	}
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_test_runs_state ON ` + runsTable + `(state);`,
		`CREATE INDEX IF NOT EXISTS idx_test_runs_updated_at ON ` + runsTable + `(updated_at);`,
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "create test runs index failed")
		}
	}
	return nil
}

func prepareRunUpsert(db *sql.DB) (*sql.Stmt, error) {
	stmt, err := db.Prepare(`INSERT INTO ` + runsTable + `
(matrix_id, project, app_path, result_path, bucket, state, updated_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(matrix_id) DO UPDATE SET
project=excluded.project,
app_path=excluded.app_path,
result_path=excluded.result_path,
bucket=excluded.bucket,
state=excluded.state,
updated_at=CURRENT_TIMESTAMP`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare test runs upsert statement failed")
	}
	return stmt, nil
}

// Record upserts one run, refreshing updated_at.
func (m *RunMirror) Record(rec RunRecord) error {
	if strings.TrimSpace(rec.MatrixID) == "" {
		return errors.New("run record missing matrix id")
	}
	_, err := m.upsert.Exec(rec.MatrixID, rec.Project, rec.AppPath, rec.ResultPath, rec.Bucket, rec.State)
	return errors.Wrapf(err, "mirror run %s failed", rec.MatrixID)
}

// UpdateState stamps a new state on an already mirrored run. Unknown matrix
// ids are a no-op; the mirror never invents runs.
func (m *RunMirror) UpdateState(matrixID, state string) error {
	_, err := m.db.Exec(
		`UPDATE `+runsTable+` SET state=?, updated_at=CURRENT_TIMESTAMP WHERE matrix_id=?`,
		state, matrixID,
	)
	return errors.Wrapf(err, "update state of run %s failed", matrixID)
}

// List returns mirrored runs, most recently updated first.
func (m *RunMirror) List(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := m.db.Query(
		`SELECT matrix_id, project, app_path, result_path, bucket, state, created_at, updated_at
FROM `+runsTable+` ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list test runs failed")
	}
	defer rows.Close()
	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&rec.MatrixID, &rec.Project, &rec.AppPath, &rec.ResultPath,
			&rec.Bucket, &rec.State, &createdAt, &updatedAt); err != nil {
			return nil, errors.Wrap(err, "scan test run row failed")
		}
		rec.CreatedAt = parseSQLiteTime(createdAt)
		rec.UpdatedAt = parseSQLiteTime(updatedAt)
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "iterate test run rows failed")
}

// Pending returns mirrored runs whose last known state is not terminal
// according to the provided predicate.
func (m *RunMirror) Pending(isTerminal func(string) bool) ([]RunRecord, error) {
	records, err := m.List(0)
	if err != nil {
		return nil, err
	}
	pending := records[:0]
	for _, rec := range records {
		if !isTerminal(rec.State) {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

// Close releases the prepared statement and the database handle.
func (m *RunMirror) Close() error {
	if m.upsert != nil {
		m.upsert.Close()
	}
	return m.db.Close()
}

func parseSQLiteTime(value string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
