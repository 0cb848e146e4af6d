package ftl

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
)

type stubCredentials struct {
	token    string
	applyErr error
	applied  int
}

func (s *stubCredentials) Apply(_ context.Context, header http.Header) error {
	s.applied++
	if s.applyErr != nil {
		return s.applyErr
	}
	header.Set("Authorization", "Bearer "+s.token)
	return nil
}

func newTestClient(t *testing.T, toolResultsHost, testingHost string) (*Client, *stubCredentials) {
	t.Helper()
	creds := &stubCredentials{token: "test-token"}
	client, err := NewClient(ClientConfig{
		Credentials:     creds,
		ClientVersion:   "1.2.3",
		ToolResultsHost: toolResultsHost,
		TestingHost:     testingHost,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, creds
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestDoPropagatesSigningFailure(t *testing.T) {
	client, creds := newTestClient(t, "http://invalid.localhost", "http://invalid.localhost")
	creds.applyErr = errors.New("keychain locked")
	_, err := client.DefaultBucket(context.Background(), "p1")
	if err == nil {
		t.Fatalf("expected error")
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected ClientError, got %T", err)
	}
	if clientErr.Kind != KindTransport {
		t.Fatalf("expected transport kind, got %s", clientErr.Kind)
	}
}

func TestDoReportsTransportFailure(t *testing.T) {
	// Port 1 is reserved and nothing listens there.
	client, _ := newTestClient(t, "http://127.0.0.1:1", "http://127.0.0.1:1")
	_, err := client.MatrixStatus(context.Background(), "p1", "m1")
	if err == nil {
		t.Fatalf("expected error")
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected ClientError, got %T", err)
	}
	if clientErr.Kind != KindTransport {
		t.Fatalf("expected transport kind, got %s", clientErr.Kind)
	}
	if clientErr.Status != 0 {
		t.Fatalf("transport errors carry no status, got %d", clientErr.Status)
	}
}
