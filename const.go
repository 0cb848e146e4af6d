package testlabagent

// Shared environment variable names for wiring TestLabAgent into build
// pipelines. Downstream callers should prefer these root-level constants.
const (
	// EnvGCPProject selects the cloud project tests run under.
	EnvGCPProject = "TESTLAB_GCP_PROJECT"
	// EnvAppPath points at the uploaded tests bundle (gs:// path).
	EnvAppPath = "TESTLAB_APP_PATH"
	// EnvDeviceModels lists device model ids, comma separated.
	EnvDeviceModels = "TESTLAB_DEVICE_MODELS"
	// EnvDeviceVersions lists OS version ids, comma separated, paired with
	// EnvDeviceModels by position.
	EnvDeviceVersions = "TESTLAB_DEVICE_VERSIONS"
	// EnvDBPath overrides the local run-mirror SQLite path.
	EnvDBPath = "TESTLAB_DB_PATH"
)

// Matrix states the testing service reports. The client relays whatever state
// string the service returns; this table exists for callers deciding when to
// stop polling.
const (
	StateValidating = "VALIDATING"
	StatePending    = "PENDING"
	StateRunning    = "RUNNING"
	StateFinished   = "FINISHED"
	StateError      = "ERROR"
	StateInvalid    = "INVALID"
	// StateUnsupported covers environments the service cannot provide.
	StateUnsupported = "UNSUPPORTED_ENVIRONMENT"
	StateCancelled   = "CANCELLED"
)

// IsTerminalState reports whether a matrix in the given state will never
// change again. Unknown states are treated as non-terminal so polling
// continues rather than silently dropping a run.
func IsTerminalState(state string) bool {
	switch state {
	case StateFinished, StateError, StateInvalid, StateUnsupported, StateCancelled:
		return true
	}
	return false
}

// MatrixState extracts the state string from a matrix-status document, "" when
// absent.
func MatrixState(doc Document) string {
	return doc.String("state")
}
