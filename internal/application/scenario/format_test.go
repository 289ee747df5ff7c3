package scenario

import (
	"strings"
	"testing"

	"z-scenario-gen/internal/domain/entity"
)

func TestFormatScenarioLayout(t *testing.T) {
	s := &entity.Scenario{
		Concept:       "CONCEPT",
		Narrative:     "NARRATIVE",
		GameStructure: "STRUCTURE",
		Validation:    entity.ValidationResult{IsValid: false, Issues: []string{"a", "b"}},
	}
	out := FormatScenario(s, 3)

	order := []string{"SCENARIO #3", "NARRATIVE", lightRule, "GAME MECHANICS:\nSTRUCTURE", lightRule, "ORIGINAL CONCEPT:\nCONCEPT", lightRule, "Validation: ISSUES: a; b"}
	pos := 0
	for _, part := range order {
		i := strings.Index(out[pos:], part)
		if i < 0 {
			t.Fatalf("%q not found after offset %d in:\n%s", part, pos, out)
		}
		pos += i + len(part)
	}
}

func TestFormatScenarioValidated(t *testing.T) {
	out := FormatScenario(&entity.Scenario{Validation: entity.DefaultValidation()}, 1)
	if !strings.Contains(out, "Validation: VALIDATED\n") {
		t.Errorf("missing validated summary:\n%s", out)
	}
}

func TestFormatBatchNumbersByPosition(t *testing.T) {
	scenarios := []*entity.Scenario{
		{Index: 2, Narrative: "first", Validation: entity.DefaultValidation()},
		{Index: 5, Narrative: "second", Validation: entity.DefaultValidation()},
	}
	out := FormatBatch(scenarios, "MY TITLE")
	if !strings.Contains(out, "MY TITLE") {
		t.Error("title missing")
	}
	first, second := strings.Index(out, "SCENARIO #1"), strings.Index(out, "SCENARIO #2")
	if first < 0 || second < 0 || first > second {
		t.Errorf("blocks not numbered in order:\n%s", out)
	}
	if strings.Index(out, "first") > strings.Index(out, "second") {
		t.Error("scenario order not preserved")
	}
}
