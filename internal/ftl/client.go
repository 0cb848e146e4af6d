// Package ftl talks to Google's cloud device-testing service (Firebase Test
// Lab) and its tool-results API: it initializes the project's result bucket,
// submits iOS test matrices, and reads back matrix status and execution-step
// metadata. Every operation is a single blocking request with no retries;
// failures surface immediately as *ClientError.
package ftl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultRequestTimeout = 15 * time.Second
	defaultDialTimeout    = 5 * time.Second

	userProjectHeader = "X-Goog-User-Project"

	// clientName identifies this tool in every submission's clientInfo.
	clientName = "testlab-agent"
)

// ClientConfig customizes a Client. Credentials is the only required field.
type ClientConfig struct {
	Credentials Credentials
	// ClientVersion is stamped into every submission's client metadata under
	// the "version" key, overwriting any caller-provided entry.
	ClientVersion   string
	ToolResultsHost string
	TestingHost     string
	HTTPClient      *http.Client
}

// Client is the Test Lab job lifecycle client. Construct one per session with
// NewClient; it is cheap and holds no connections of its own.
type Client struct {
	creds           Credentials
	httpClient      *http.Client
	toolResultsHost string
	testingHost     string
	clientVersion   string

	// defaultBucket transitions once from empty to populated and is never
	// reset. Concurrent first-time lookups may both hit the settings endpoint;
	// remote initialization is idempotent and all callers target the same
	// project, so the last writer winning is benign. No lock on purpose.
	defaultBucket string
}

// NewClient binds the credential capability and fixed per-request timeouts.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Credentials == nil {
		return nil, errors.New("testlab client requires credentials")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: defaultDialTimeout}).DialContext,
			},
		}
	}
	toolResultsHost := strings.TrimSuffix(cfg.ToolResultsHost, "/")
	if toolResultsHost == "" {
		toolResultsHost = DefaultToolResultsHost
	}
	testingHost := strings.TrimSuffix(cfg.TestingHost, "/")
	if testingHost == "" {
		testingHost = DefaultTestingHost
	}
	return &Client{
		creds:           cfg.Credentials,
		httpClient:      httpClient,
		toolResultsHost: toolResultsHost,
		testingHost:     testingHost,
		clientVersion:   cfg.ClientVersion,
	}, nil
}

// do issues one signed request and returns the status and body. The only
// error it returns is a *ClientError with KindTransport (or a wrapped encode
// failure); non-success statuses are left to the caller to classify.
func (c *Client) do(ctx context.Context, method, rawURL, project string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, errors.Wrap(err, "encode request payload")
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "build %s request", method)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(userProjectHeader, project)
	if err := c.creds.Apply(ctx, req.Header); err != nil {
		return 0, nil, transportError(err, "sign %s %s", method, req.URL.Path)
	}
	log.Debug().Str("method", method).Str("path", req.URL.Path).Msg("testlab request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, transportError(err, "%s %s", method, req.URL.Path)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, transportError(err, "read %s %s response", method, req.URL.Path)
	}
	return resp.StatusCode, data, nil
}

// reject classifies a non-success response into a RemoteRejection error,
// appending the IAM console hint when the failure looks like a permission
// problem.
func (c *Client) reject(project string, status int, body []byte) *ClientError {
	summary := classifyRemoteError(status, body)
	if authFailure(status, summary) {
		summary = summary + "\n" + iamConsoleHint(project)
	}
	log.Warn().Int("status", status).Str("project", project).Msg("testlab request rejected")
	return &ClientError{Kind: KindRemoteRejection, Status: status, Message: summary}
}
