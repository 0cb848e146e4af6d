package ftl

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// Document is a decoded JSON object returned verbatim from the service. The
// client extracts nothing from it beyond ids needed for chaining; the response
// shape is outside this module's control and may grow fields over time.
type Document map[string]any

// String returns doc[key] when it holds a string, otherwise "".
func (d Document) String(key string) string {
	value, _ := d[key].(string)
	return value
}

// MatrixStatus fetches the current state of one test matrix. Every call
// issues a fresh request; polling cadence, backoff and terminal-state
// detection belong to the caller.
func (c *Client) MatrixStatus(ctx context.Context, project, matrixID string) (Document, error) {
	url := c.testingHost + expandPath(pathMatrixStatus, map[string]string{
		"project": project,
		"matrix":  matrixID,
	})
	return c.getDocument(ctx, project, url, "matrix status")
}

// ExecutionSteps lists the steps of one execution in the project's test
// history, carrying artifact metadata (logs, videos and the like).
func (c *Client) ExecutionSteps(ctx context.Context, project, historyID, executionID string) (Document, error) {
	url := c.toolResultsHost + expandPath(pathExecutionSteps, map[string]string{
		"project":      project,
		"history_id":   historyID,
		"execution_id": executionID,
	})
	return c.getDocument(ctx, project, url, "execution steps")
}

func (c *Client) getDocument(ctx context.Context, project, url, what string) (Document, error) {
	status, body, err := c.do(ctx, http.MethodGet, url, project, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.reject(project, status, body)
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrapf(err, "decode %s response", what)
	}
	return doc, nil
}
