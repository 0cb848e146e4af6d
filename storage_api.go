package testlabagent

import "github.com/httprunner/TestLabAgent/internal/storage"

// RunRecord mirrors one submitted matrix in the local SQLite bookkeeping
// database. It aliases the underlying storage type for compatibility.
type RunRecord = storage.RunRecord

// RunMirror persists submitted matrices locally so pipeline steps can recover
// matrix ids after a crash. It aliases the underlying storage implementation.
type RunMirror = storage.RunMirror

// NewRunMirror opens the shared run-mirror database. Callers should Close the
// returned mirror when done.
func NewRunMirror() (*RunMirror, error) {
	return storage.NewRunMirror()
}

// OpenRunMirror opens a run mirror at an explicit database path.
func OpenRunMirror(path string) (*RunMirror, error) {
	return storage.OpenRunMirror(path)
}

// ResolveRunDBPath returns the absolute path of the run-mirror SQLite
// database, honoring EnvDBPath.
func ResolveRunDBPath() (string, error) {
	return storage.ResolveDatabasePath()
}
