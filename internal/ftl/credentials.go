package ftl

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// ScopeCloudPlatform is the authorization scope every Test Lab and
// tool-results call requires.
const ScopeCloudPlatform = "https://www.googleapis.com/auth/cloud-platform"

// Credentials signs outgoing requests by setting authorization headers.
// How the underlying tokens are obtained or refreshed is the caller's concern;
// the client only holds the capability for its lifetime.
type Credentials interface {
	Apply(ctx context.Context, header http.Header) error
}

// OAuthCredentials adapts an oauth2.TokenSource into Credentials. Wrap the
// source with oauth2.ReuseTokenSource if token fetches are expensive.
func OAuthCredentials(source oauth2.TokenSource) Credentials {
	return oauthCredentials{source: source}
}

type oauthCredentials struct {
	source oauth2.TokenSource
}

func (c oauthCredentials) Apply(_ context.Context, header http.Header) error {
	token, err := c.source.Token()
	if err != nil {
		return errors.Wrap(err, "fetch access token")
	}
	header.Set("Authorization", token.Type()+" "+token.AccessToken)
	return nil
}
