package scenario

import (
	"context"
	"errors"
	"strings"
	"testing"

	"z-scenario-gen/internal/domain/entity"
	"z-scenario-gen/internal/workflow/collab"
	"z-scenario-gen/internal/workflow/gametools"
	apperrors "z-scenario-gen/pkg/errors"
)

// echoCollaborator 以 "<stage>[instructions]" 回显请求，输出可追溯到每个阶段的输入
type echoCollaborator struct {
	requests []*collab.Request
	outputs  map[string][]string
}

func newEcho() *echoCollaborator {
	return &echoCollaborator{outputs: make(map[string][]string)}
}

func (e *echoCollaborator) Invoke(_ context.Context, req *collab.Request) (collab.EventStream, error) {
	e.requests = append(e.requests, req)
	out := "<" + req.Stage + ">[" + req.Instructions + "]"
	e.outputs[req.Stage] = append(e.outputs[req.Stage], out)
	return collab.NewEventStream(
		collab.SystemInit("session-1"),
		collab.AssistantText("<"+req.Stage+">"),
		collab.AssistantText("["+req.Instructions+"]"),
	), nil
}

func testSettings() PromptSettings {
	return PromptSettings{Brief: "BRIEF-MARKER", Language: "English", BatchSize: 4}
}

func TestEchoPipelineTraceability(t *testing.T) {
	echo := newEcho()
	stages := NewStages(Collaborators{Creative: echo, Design: echo}, nil, testSettings())
	c := NewCoordinator(stages, GenerationConfig{MaxIterations: 2}, nil)

	s, err := c.GenerateScenario(context.Background(), entity.ScenarioRequest{Index: 7})
	if err != nil {
		t.Fatalf("GenerateScenario() error = %v", err)
	}

	for _, stage := range []string{StageConcept, StageStructure, StageEnrich, StageCritique, StageRefine, StageAdjustMechanics, StagePolish} {
		if !strings.Contains(s.Narrative, "<"+stage+">") {
			t.Errorf("narrative has no trace of stage %s", stage)
		}
	}
	if !strings.HasPrefix(s.Narrative, "<"+StagePolish+">") {
		t.Errorf("narrative does not come from polish: %.40q", s.Narrative)
	}
	if !strings.Contains(s.Narrative, "Scenario #7 of 4") || !strings.Contains(s.Narrative, "BRIEF-MARKER") {
		t.Error("narrative lost the concept inputs")
	}
	if !strings.HasPrefix(s.GameStructure, "<"+StageAdjustMechanics+">") {
		t.Errorf("structure does not come from adjust_mechanics: %.40q", s.GameStructure)
	}
	if s.Concept != echo.outputs[StageConcept][0] {
		t.Error("concept changed after stage 1")
	}
	// 回显的校验提示词中 JSON 示例无法解析，走乐观兜底
	if !s.Validation.IsValid || len(s.Validation.Issues) != 0 {
		t.Errorf("Validation = %+v, want optimistic default", s.Validation)
	}
	if len(echo.requests) != 3+3*2+2 {
		t.Errorf("collaborator invoked %d times, want %d", len(echo.requests), 11)
	}
}

func TestStagesRouteRolesToolsAndSubRoles(t *testing.T) {
	creative, design := newEcho(), newEcho()
	stages := NewStages(Collaborators{Creative: creative, Design: design}, nil, testSettings())
	c := NewCoordinator(stages, GenerationConfig{MaxIterations: 1}, nil)
	if _, err := c.GenerateScenario(context.Background(), entity.ScenarioRequest{Index: 1}); err != nil {
		t.Fatalf("GenerateScenario() error = %v", err)
	}

	toolStages := map[string]bool{StageStructure: true, StageAdjustMechanics: true, StageValidate: true}
	check := func(reqs []*collab.Request, role string) {
		for _, req := range reqs {
			if req.Role != role {
				t.Errorf("stage %s sent to role %s, want %s", req.Stage, req.Role, role)
			}
			if req.Profile == "" {
				t.Errorf("stage %s has empty profile", req.Stage)
			}
			wantTools := 0
			if toolStages[req.Stage] {
				wantTools = len(gametools.DesignTools())
			}
			if len(req.Tools) != wantTools {
				t.Errorf("stage %s bound %d tools, want %d", req.Stage, len(req.Tools), wantTools)
			}
			if req.Stage != StageValidate && len(req.SubRoles) != 1 {
				t.Errorf("stage %s has %d sub-roles, want 1", req.Stage, len(req.SubRoles))
			}
			if req.PermissionMode == collab.PermissionAcceptEdits {
				t.Errorf("stage %s must not allow edits", req.Stage)
			}
		}
	}
	check(creative.requests, RoleCreative)
	check(design.requests, RoleDesign)
	if len(creative.requests) != 4 || len(design.requests) != 4 {
		t.Errorf("creative=%d design=%d invocations, want 4/4", len(creative.requests), len(design.requests))
	}
}

func TestValidateStageParsesOrFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  entity.ValidationResult
	}{
		{"parsed", "Checked.\n{\"isValid\": false, \"issues\": [\"boss too strong\", \"dead end\"]}\nDone.", entity.ValidationResult{IsValid: false, Issues: []string{"boss too strong", "dead end"}}},
		{"no json", "Everything looks fine to me.", entity.DefaultValidation()},
		{"broken json", "{isValid: nope}", entity.DefaultValidation()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			design := collab.CollaboratorFunc(func(context.Context, *collab.Request) (collab.EventStream, error) {
				return collab.NewEventStream(collab.AssistantText(tt.reply)), nil
			})
			stages := NewStages(Collaborators{Design: design}, nil, testSettings())
			got, err := stages.Validate(context.Background(), "n", "g")
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got.IsValid != tt.want.IsValid || strings.Join(got.Issues, "|") != strings.Join(tt.want.Issues, "|") {
				t.Errorf("Validate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStageFailurePropagatesCollaboratorFailure(t *testing.T) {
	failing := collab.CollaboratorFunc(func(context.Context, *collab.Request) (collab.EventStream, error) {
		return nil, errors.New("401 unauthorized")
	})
	stages := NewStages(Collaborators{Creative: failing, Design: failing}, nil, testSettings())

	_, err := stages.Polish(context.Background(), "n")
	if !apperrors.HasCode(err, apperrors.CodeCollaboratorFailure) {
		t.Fatalf("Polish() error = %v, want CollaboratorFailure", err)
	}
	if !strings.Contains(err.Error(), "stage polish") {
		t.Errorf("error %q does not name the stage", err)
	}
}

func TestEmptyResponseIsStageFailure(t *testing.T) {
	empty := collab.CollaboratorFunc(func(context.Context, *collab.Request) (collab.EventStream, error) {
		return collab.NewEventStream(), nil
	})
	stages := NewStages(Collaborators{Design: empty}, nil, testSettings())
	if _, err := stages.Critique(context.Background(), "n", "g"); !apperrors.HasCode(err, apperrors.CodeCollaboratorFailure) {
		t.Fatalf("Critique() error = %v, want CollaboratorFailure", err)
	}
}
