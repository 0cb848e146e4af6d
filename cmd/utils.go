package main

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/google"

	agent "github.com/httprunner/TestLabAgent"
	"github.com/httprunner/TestLabAgent/internal/config"
)

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// resolveProject picks the project id from --project or the environment.
func resolveProject() (string, error) {
	project := firstNonEmpty(rootProject, config.String(agent.EnvGCPProject, ""))
	if project == "" {
		return "", errors.Errorf("--project or $%s is required", agent.EnvGCPProject)
	}
	return project, nil
}

// newTestLabClient binds application default credentials to the cloud-platform
// scope and constructs the lifecycle client.
func newTestLabClient(ctx context.Context) (*agent.Client, error) {
	source, err := google.DefaultTokenSource(ctx, agent.ScopeCloudPlatform)
	if err != nil {
		return nil, errors.Wrap(err, "load application default credentials")
	}
	return agent.NewClient(agent.ClientConfig{
		Credentials: agent.OAuthCredentials(source),
	})
}
