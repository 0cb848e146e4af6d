package ftl

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Device identifies one entry of the device matrix. Values are passed to the
// service verbatim; unknown model or version identifiers are rejected
// remotely, not here.
type Device struct {
	ModelID     string
	VersionID   string
	Locale      string
	Orientation string
}

// JobRequest describes one test-matrix submission.
type JobRequest struct {
	Project string
	// AppPath is the GCS path of the uploaded tests bundle (zip).
	AppPath string
	// ResultPath is the GCS path test artifacts are written under.
	ResultPath string
	// Devices are mapped into the wire device list in order, without
	// deduplication.
	Devices        []Device
	TimeoutSeconds int
	// ClientDetails is optional caller metadata; the client's version entry is
	// merged in on top of it.
	ClientDetails map[string]string
}

type testMatrixRequest struct {
	ProjectID         string            `json:"projectId"`
	TestSpecification testSpecification `json:"testSpecification"`
	EnvironmentMatrix environmentMatrix `json:"environmentMatrix"`
	ResultStorage     resultStorage     `json:"resultStorage"`
	ClientInfo        clientInfo        `json:"clientInfo"`
}

type testSpecification struct {
	TestTimeout  timeoutSpec `json:"testTimeout"`
	IosTestSetup struct{}    `json:"iosTestSetup"`
	IosXcTest    iosXcTest   `json:"iosXcTest"`
}

type timeoutSpec struct {
	Seconds int `json:"seconds"`
}

type iosXcTest struct {
	TestsZip gcsReference `json:"testsZip"`
}

type gcsReference struct {
	GCSPath string `json:"gcsPath"`
}

type environmentMatrix struct {
	IosDeviceList iosDeviceList `json:"iosDeviceList"`
}

type iosDeviceList struct {
	IosDevices []iosDevice `json:"iosDevices"`
}

type iosDevice struct {
	IosModelID   string `json:"iosModelId"`
	IosVersionID string `json:"iosVersionId"`
	Locale       string `json:"locale"`
	Orientation  string `json:"orientation"`
}

type resultStorage struct {
	GoogleCloudStorage gcsReference `json:"googleCloudStorage"`
}

type clientInfo struct {
	Name              string             `json:"name"`
	ClientInfoDetails []clientInfoDetail `json:"clientInfoDetails"`
}

type clientInfoDetail struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// StartJob submits one test matrix and returns the id the service assigned.
// The id is relayed as-is; the client never invents or rewrites matrix ids.
func (c *Client) StartJob(ctx context.Context, req JobRequest) (string, error) {
	devices := make([]iosDevice, 0, len(req.Devices))
	for _, d := range req.Devices {
		devices = append(devices, iosDevice{
			IosModelID:   d.ModelID,
			IosVersionID: d.VersionID,
			Locale:       d.Locale,
			Orientation:  d.Orientation,
		})
	}
	payload := testMatrixRequest{
		ProjectID: req.Project,
		TestSpecification: testSpecification{
			TestTimeout: timeoutSpec{Seconds: req.TimeoutSeconds},
			IosXcTest:   iosXcTest{TestsZip: gcsReference{GCSPath: req.AppPath}},
		},
		EnvironmentMatrix: environmentMatrix{IosDeviceList: iosDeviceList{IosDevices: devices}},
		ResultStorage:     resultStorage{GoogleCloudStorage: gcsReference{GCSPath: req.ResultPath}},
		ClientInfo:        clientInfo{Name: clientName, ClientInfoDetails: c.clientDetails(req.ClientDetails)},
	}
	url := c.testingHost + expandPath(pathCreateMatrix, map[string]string{"project": req.Project})
	status, body, err := c.do(ctx, http.MethodPost, url, req.Project, payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", c.reject(req.Project, status, body)
	}
	var parsed struct {
		TestMatrixID string `json:"testMatrixId"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.Wrap(err, "decode test matrix response")
	}
	if strings.TrimSpace(parsed.TestMatrixID) == "" {
		return "", errors.New("test matrix response carries no testMatrixId")
	}
	log.Info().Str("project", req.Project).Str("matrix", parsed.TestMatrixID).
		Int("devices", len(devices)).Msg("test matrix submitted")
	return parsed.TestMatrixID, nil
}

// clientDetails flattens caller metadata plus the version stamp into the wire
// key/value list. Keys are sorted so the payload is deterministic; the
// version entry always wins over a caller-provided one.
func (c *Client) clientDetails(extra map[string]string) []clientInfoDetail {
	merged := make(map[string]string, len(extra)+1)
	for key, value := range extra {
		merged[key] = value
	}
	merged["version"] = c.clientVersion
	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	details := make([]clientInfoDetail, 0, len(keys))
	for _, key := range keys {
		details = append(details, clientInfoDetail{Key: key, Value: merged[key]})
	}
	return details
}
