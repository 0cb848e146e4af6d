// Package testlabagent submits iOS test runs to Google's cloud device-testing
// service, tracks matrix status and retrieves execution-step metadata. The
// root package is a thin facade over internal/ftl so downstream callers can
// integrate without importing subpackages directly.
package testlabagent

import (
	"golang.org/x/oauth2"

	"github.com/httprunner/TestLabAgent/internal/ftl"
)

// Core client types, re-exported for downstream callers.
type (
	Client       = ftl.Client
	ClientConfig = ftl.ClientConfig
	Credentials  = ftl.Credentials
	Device       = ftl.Device
	JobRequest   = ftl.JobRequest
	Document     = ftl.Document
	ClientError  = ftl.ClientError
	ErrorKind    = ftl.ErrorKind
)

const (
	KindTransport       = ftl.KindTransport
	KindRemoteRejection = ftl.KindRemoteRejection

	// ScopeCloudPlatform is the single authorization scope the client needs.
	ScopeCloudPlatform = ftl.ScopeCloudPlatform
)

// NewClient constructs the job lifecycle client, stamping this module's
// Version into submissions unless cfg overrides it.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = Version
	}
	return ftl.NewClient(cfg)
}

// OAuthCredentials adapts an oauth2.TokenSource into the credential capability
// the client signs requests with.
func OAuthCredentials(source oauth2.TokenSource) Credentials {
	return ftl.OAuthCredentials(source)
}
