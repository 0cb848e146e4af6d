package ftl

import "strings"

// The two service hosts. Settings, histories and execution steps live on the
// tool-results API; matrix creation and status live on the testing API.
const (
	DefaultToolResultsHost = "https://www.googleapis.com"
	DefaultTestingHost     = "https://testing.googleapis.com"
)

const (
	pathInitializeSettings = "/toolresults/v1beta3/projects/{project}:initializeSettings"
	pathProjectSettings    = "/toolresults/v1beta3/projects/{project}/settings"
	pathExecutionSteps     = "/toolresults/v1beta3/projects/{project}/histories/{history_id}/executions/{execution_id}/steps"
	pathCreateMatrix       = "/v1/projects/{project}/testMatrices"
	pathMatrixStatus       = "/v1/projects/{project}/testMatrices/{matrix}"
)

// expandPath substitutes every {name} occurrence in template with vars[name].
// Placeholders without a value pass through literally; the service rejects the
// malformed path, which is cheaper than validating identifiers locally.
func expandPath(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
