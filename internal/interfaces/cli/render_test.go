package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"z-scenario-gen/internal/application/scenario"
	"z-scenario-gen/internal/domain/entity"
)

func TestSummaryListsFailures(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, &scenario.BatchResult{
		RunID:     "run-7",
		Requested: 3,
		Scenarios: []*entity.Scenario{{Index: 1, Validation: entity.DefaultValidation()}, {Index: 3}},
		Failures:  []scenario.ItemFailure{{Index: 2, Err: errors.New("x")}},
	}, "output/scenarios.txt")

	out := buf.String()
	for _, want := range []string{"PARTIAL", "2/3 scenarios", "run-7", "#2", "output/scenarios.txt"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryAllFailed(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, &scenario.BatchResult{Requested: 2, Failures: []scenario.ItemFailure{{Index: 1}, {Index: 2}}}, "")
	if !strings.Contains(buf.String(), "FAILED") {
		t.Errorf("summary = %s", buf.String())
	}
}
