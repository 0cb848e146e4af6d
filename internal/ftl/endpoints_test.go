package ftl

import (
	"strings"
	"testing"
)

func TestExpandPathSubstitutesAllPlaceholders(t *testing.T) {
	cases := []struct {
		template string
		vars     map[string]string
		want     string
	}{
		{
			template: pathInitializeSettings,
			vars:     map[string]string{"project": "p1"},
			want:     "/toolresults/v1beta3/projects/p1:initializeSettings",
		},
		{
			template: pathProjectSettings,
			vars:     map[string]string{"project": "p1"},
			want:     "/toolresults/v1beta3/projects/p1/settings",
		},
		{
			template: pathExecutionSteps,
			vars:     map[string]string{"project": "p1", "history_id": "h1", "execution_id": "e1"},
			want:     "/toolresults/v1beta3/projects/p1/histories/h1/executions/e1/steps",
		},
		{
			template: pathCreateMatrix,
			vars:     map[string]string{"project": "p1"},
			want:     "/v1/projects/p1/testMatrices",
		},
		{
			template: pathMatrixStatus,
			vars:     map[string]string{"project": "p1", "matrix": "m1"},
			want:     "/v1/projects/p1/testMatrices/m1",
		},
	}
	for _, tc := range cases {
		got := expandPath(tc.template, tc.vars)
		if got != tc.want {
			t.Fatalf("expandPath(%s) = %s, want %s", tc.template, got, tc.want)
		}
		if strings.ContainsAny(got, "{}") {
			t.Fatalf("unresolved placeholder in %s", got)
		}
	}
}

func TestExpandPathKeepsUnresolvedPlaceholders(t *testing.T) {
	got := expandPath(pathMatrixStatus, map[string]string{"project": "p1"})
	if got != "/v1/projects/p1/testMatrices/{matrix}" {
		t.Fatalf("unexpected path %s", got)
	}
}
