package ftl

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EnsureInitialized asks the tool-results service to create the project's
// default result bucket. The call is idempotent on the remote side, so it is
// safe to repeat; only transport failures propagate. A non-success status is
// logged and otherwise ignored, since the settings read that follows will
// surface a classified error anyway.
func (c *Client) EnsureInitialized(ctx context.Context, project string) error {
	url := c.toolResultsHost + expandPath(pathInitializeSettings, map[string]string{"project": project})
	status, _, err := c.do(ctx, http.MethodPost, url, project, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		log.Warn().Int("status", status).Str("project", project).Msg("initializeSettings returned non-200")
	}
	return nil
}

// DefaultBucket returns the project's default result bucket name, caching it
// for the lifetime of the client. Every cache miss re-initializes first so a
// freshly created project works on the first read.
func (c *Client) DefaultBucket(ctx context.Context, project string) (string, error) {
	if c.defaultBucket != "" {
		return c.defaultBucket, nil
	}
	if err := c.EnsureInitialized(ctx, project); err != nil {
		return "", err
	}
	url := c.toolResultsHost + expandPath(pathProjectSettings, map[string]string{"project": project})
	status, body, err := c.do(ctx, http.MethodGet, url, project, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", c.reject(project, status, body)
	}
	var parsed struct {
		DefaultBucket string `json:"defaultBucket"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.Wrap(err, "decode project settings")
	}
	bucket := strings.TrimSpace(parsed.DefaultBucket)
	if bucket == "" {
		return "", errors.Errorf("project %s settings carry no defaultBucket", project)
	}
	c.defaultBucket = bucket
	log.Debug().Str("project", project).Str("bucket", bucket).Msg("default bucket resolved")
	return bucket, nil
}
