package ftl

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind splits client failures into the two terminal classes callers care
// about: the request never completed, or the service refused it.
type ErrorKind string

const (
	KindTransport       ErrorKind = "transport"
	KindRemoteRejection ErrorKind = "remote_rejection"
)

// ClientError is the only error type the client produces for failed calls.
// The client never retries and never returns partial results; the outermost
// caller decides whether a ClientError is fatal to the process.
type ClientError struct {
	Kind    ErrorKind
	Status  int // HTTP status for remote rejections, 0 for transport failures
	Message string
	cause   error
}

func (e *ClientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("testlab %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("testlab %s: %s", e.Kind, e.Message)
}

func (e *ClientError) Unwrap() error { return e.cause }

func transportError(err error, format string, args ...any) *ClientError {
	return &ClientError{
		Kind:    KindTransport,
		Message: fmt.Sprintf(format, args...) + ": " + err.Error(),
		cause:   err,
	}
}

// classifyRemoteError extracts a human-readable summary from a remote error
// body. The service wraps failures as {"error":{"message":...}}; anything it
// cannot parse falls back to the raw body, then to the status text.
func classifyRemoteError(status int, body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg := strings.TrimSpace(parsed.Error.Message); msg != "" {
			return msg
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return http.StatusText(status)
}

func authFailure(status int, summary string) bool {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return true
	}
	lower := strings.ToLower(summary)
	return strings.Contains(lower, "not authorized") || strings.Contains(lower, "permission")
}

// iamConsoleHint points the operator at the project's IAM page. Appended to
// auth-classified rejections so a pipeline failure is actionable without
// digging through service docs.
func iamConsoleHint(project string) string {
	return fmt.Sprintf(
		"verify the service account has the Editor role on project %s: https://console.developers.google.com/iam-admin/iam/project?project=%s",
		project, project,
	)
}
