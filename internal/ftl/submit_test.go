package ftl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func submitServer(t *testing.T, status int, body string, captured *testMatrixRequest, headers *http.Header) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/testMatrices") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if headers != nil {
			*headers = r.Header.Clone()
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode submission: %v", err)
			}
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestStartJobReturnsMatrixID(t *testing.T) {
	var captured testMatrixRequest
	var headers http.Header
	server := submitServer(t, http.StatusOK, `{"testMatrixId":"abc123"}`, &captured, &headers)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, server.URL)
	matrixID, err := client.StartJob(context.Background(), JobRequest{
		Project:        "p1",
		AppPath:        "gs://bucket/app.zip",
		ResultPath:     "gs://bucket/results/",
		TimeoutSeconds: 900,
		Devices: []Device{
			{ModelID: "iphone13", VersionID: "15.0", Locale: "en", Orientation: "portrait"},
		},
	})
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	if matrixID != "abc123" {
		t.Fatalf("unexpected matrix id %s", matrixID)
	}
	if got := headers.Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %s", got)
	}
	if got := headers.Get("X-Goog-User-Project"); got != "p1" {
		t.Fatalf("unexpected user project header %s", got)
	}
	if got := headers.Get("Authorization"); got != "Bearer test-token" {
		t.Fatalf("unexpected authorization header %s", got)
	}
	if captured.ProjectID != "p1" {
		t.Fatalf("unexpected projectId %s", captured.ProjectID)
	}
	if captured.TestSpecification.TestTimeout.Seconds != 900 {
		t.Fatalf("unexpected timeout %d", captured.TestSpecification.TestTimeout.Seconds)
	}
	if captured.TestSpecification.IosXcTest.TestsZip.GCSPath != "gs://bucket/app.zip" {
		t.Fatalf("unexpected tests zip path %s", captured.TestSpecification.IosXcTest.TestsZip.GCSPath)
	}
	if captured.ResultStorage.GoogleCloudStorage.GCSPath != "gs://bucket/results/" {
		t.Fatalf("unexpected result path %s", captured.ResultStorage.GoogleCloudStorage.GCSPath)
	}
	if captured.ClientInfo.Name != "testlab-agent" {
		t.Fatalf("unexpected client name %s", captured.ClientInfo.Name)
	}
}

func TestStartJobMapsDevicesInOrder(t *testing.T) {
	var captured testMatrixRequest
	server := submitServer(t, http.StatusOK, `{"testMatrixId":"m1"}`, &captured, nil)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, server.URL)
	devices := []Device{
		{ModelID: "iphone13", VersionID: "15.0", Locale: "en", Orientation: "portrait"},
		{ModelID: "iphone8", VersionID: "14.1", Locale: "ja", Orientation: "landscape"},
		{ModelID: "iphone13", VersionID: "15.0", Locale: "en", Orientation: "portrait"},
	}
	if _, err := client.StartJob(context.Background(), JobRequest{Project: "p1", Devices: devices}); err != nil {
		t.Fatalf("start job: %v", err)
	}
	wire := captured.EnvironmentMatrix.IosDeviceList.IosDevices
	if len(wire) != len(devices) {
		t.Fatalf("expected %d devices, got %d", len(devices), len(wire))
	}
	for i, d := range devices {
		got := wire[i]
		if got.IosModelID != d.ModelID || got.IosVersionID != d.VersionID ||
			got.Locale != d.Locale || got.Orientation != d.Orientation {
			t.Fatalf("device %d mapped to %+v, want %+v", i, got, d)
		}
	}
}

func TestStartJobSynthesizesVersionMetadata(t *testing.T) {
	var captured testMatrixRequest
	server := submitServer(t, http.StatusOK, `{"testMatrixId":"m1"}`, &captured, nil)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, server.URL)
	if _, err := client.StartJob(context.Background(), JobRequest{Project: "p1"}); err != nil {
		t.Fatalf("start job: %v", err)
	}
	details := captured.ClientInfo.ClientInfoDetails
	if len(details) != 1 {
		t.Fatalf("expected exactly one detail, got %d", len(details))
	}
	if details[0].Key != "version" || details[0].Value != "1.2.3" {
		t.Fatalf("unexpected detail %+v", details[0])
	}
}

func TestStartJobMergesMetadataAndOverwritesVersion(t *testing.T) {
	var captured testMatrixRequest
	server := submitServer(t, http.StatusOK, `{"testMatrixId":"m1"}`, &captured, nil)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, server.URL)
	_, err := client.StartJob(context.Background(), JobRequest{
		Project:       "p1",
		ClientDetails: map[string]string{"foo": "bar", "version": "override-me"},
	})
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	details := captured.ClientInfo.ClientInfoDetails
	if len(details) != 2 {
		t.Fatalf("expected two details, got %d", len(details))
	}
	byKey := map[string]string{}
	for _, d := range details {
		byKey[d.Key] = d.Value
	}
	if byKey["foo"] != "bar" {
		t.Fatalf("missing caller metadata: %+v", details)
	}
	if byKey["version"] != "1.2.3" {
		t.Fatalf("caller version not overwritten: %+v", details)
	}
}

func TestStartJobRejectionReturnsNoHandle(t *testing.T) {
	server := submitServer(t, http.StatusForbidden, `{"error":{"message":"Not Authorized for project p1"}}`, nil, nil)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, server.URL)
	matrixID, err := client.StartJob(context.Background(), JobRequest{Project: "p1"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if matrixID != "" {
		t.Fatalf("rejected submission returned handle %s", matrixID)
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected ClientError, got %T", err)
	}
	if clientErr.Kind != KindRemoteRejection || clientErr.Status != http.StatusForbidden {
		t.Fatalf("unexpected classification %s/%d", clientErr.Kind, clientErr.Status)
	}
	if !strings.Contains(clientErr.Message, "Not Authorized") ||
		!strings.Contains(clientErr.Message, "iam-admin/iam/project?project=p1") {
		t.Fatalf("unexpected message %s", clientErr.Message)
	}
}

func TestStartJobRejectsEmptyMatrixID(t *testing.T) {
	server := submitServer(t, http.StatusOK, `{}`, nil, nil)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, server.URL)
	if _, err := client.StartJob(context.Background(), JobRequest{Project: "p1"}); err == nil {
		t.Fatalf("expected error for missing testMatrixId")
	}
}
