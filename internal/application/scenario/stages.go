package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-scenario-gen/internal/domain/entity"
	"z-scenario-gen/internal/workflow/collab"
	"z-scenario-gen/internal/workflow/gametools"
	"z-scenario-gen/internal/workflow/node"
	"z-scenario-gen/internal/workflow/prompt"
	"z-scenario-gen/pkg/logger"
	"z-scenario-gen/pkg/metrics"
	"z-scenario-gen/pkg/tracer"
)

// Collaborators 流水线使用的两个生成式协作者
type Collaborators struct {
	Creative collab.Collaborator
	Design   collab.Collaborator
}

// PromptSettings 所有提示词共享的变量
type PromptSettings struct {
	Brief     string
	Language  string
	BatchSize int
}

// Stages 流水线阶段函数，每个阶段恰好一次协作者调用
type Stages struct {
	collabs  Collaborators
	prompts  *prompt.Registry
	settings PromptSettings
	tools    []tool.BaseTool
}

func NewStages(collabs Collaborators, prompts *prompt.Registry, settings PromptSettings) *Stages {
	if prompts == nil {
		prompts = prompt.NewRegistry()
	}
	return &Stages{
		collabs:  collabs,
		prompts:  prompts,
		settings: settings,
		tools:    gametools.DesignTools(),
	}
}

// Concept 仅凭序号生成初始概念
func (s *Stages) Concept(ctx context.Context, index int) (string, error) {
	return s.run(ctx, StageConcept, prompt.PromptConceptV1, map[string]any{"index": index}, nil)
}

func (s *Stages) Structure(ctx context.Context, concept string) (string, error) {
	return s.run(ctx, StageStructure, prompt.PromptStructureV1, map[string]any{"concept": concept}, s.tools)
}

func (s *Stages) Enrich(ctx context.Context, concept, structure string) (string, error) {
	return s.run(ctx, StageEnrich, prompt.PromptEnrichV1, map[string]any{
		"concept":        concept,
		"game_structure": structure,
	}, nil)
}

// Critique 返回设计协作者对当前版本的反馈
func (s *Stages) Critique(ctx context.Context, narrative, structure string) (string, error) {
	return s.run(ctx, StageCritique, prompt.PromptCritiqueV1, map[string]any{
		"narrative":      narrative,
		"game_structure": structure,
	}, nil)
}

func (s *Stages) Refine(ctx context.Context, narrative, feedback string) (string, error) {
	return s.run(ctx, StageRefine, prompt.PromptRefineV1, map[string]any{
		"narrative": narrative,
		"feedback":  feedback,
	}, nil)
}

func (s *Stages) AdjustMechanics(ctx context.Context, narrative, structure string) (string, error) {
	return s.run(ctx, StageAdjustMechanics, prompt.PromptAdjustMechanicsV1, map[string]any{
		"narrative":      narrative,
		"game_structure": structure,
	}, s.tools)
}

func (s *Stages) Polish(ctx context.Context, narrative string) (string, error) {
	return s.run(ctx, StagePolish, prompt.PromptPolishV1, map[string]any{"narrative": narrative}, nil)
}

// Validate 联合校验叙事与结构
// 输出无法解析时回落为乐观默认值，不视为失败。
func (s *Stages) Validate(ctx context.Context, narrative, structure string) (entity.ValidationResult, error) {
	raw, err := s.run(ctx, StageValidate, prompt.PromptValidateV1, map[string]any{
		"narrative":      narrative,
		"game_structure": structure,
	}, s.tools)
	if err != nil {
		return entity.ValidationResult{}, err
	}

	decoded := DecodeValidation(raw)
	if !decoded.OK {
		metrics.ValidationTotal.WithLabelValues("design", "fallback").Inc()
		logger.Warn(ctx, "validation response not parseable, assuming valid",
			"reason", decoded.Reason,
			"response_preview", preview(raw, 200),
		)
		return decoded.Result, nil
	}
	metrics.ValidationTotal.WithLabelValues("design", "parsed").Inc()
	return decoded.Result, nil
}

func (s *Stages) run(ctx context.Context, stage string, id prompt.PromptID, vars map[string]any, tools []tool.BaseTool) (out string, err error) {
	role := stageRole(stage)
	ctx = logger.WithContext(ctx, logger.StageKey, stage)
	ctx, span := tracer.Start(ctx, "scenario.stage."+stage,
		trace.WithAttributes(attribute.String("stage", stage), attribute.String("role", role)))
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.StageDuration.WithLabelValues(stage, role).Observe(time.Since(start).Seconds())
		metrics.StageTotal.WithLabelValues(stage, status).Inc()
		tracer.End(span, err)
	}()

	rendered, err := s.prompts.Render(ctx, id, s.vars(vars))
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", stage, err)
	}

	logger.Debug(ctx, "stage started", "role", role)
	out, err = collab.Collect(ctx, s.collaborator(role), &collab.Request{
		Role:         role,
		Stage:        stage,
		Instructions: rendered.User,
		Profile:      rendered.System,
		SubRoles:     stageSubRoles[stage],
		Tools:        tools,
	})
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", stage, err)
	}
	logger.Debug(ctx, "stage finished", "chars", len(out), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (s *Stages) collaborator(role string) collab.Collaborator {
	if role == RoleCreative {
		return s.collabs.Creative
	}
	return s.collabs.Design
}

// vars 合并公共变量，阶段变量优先
func (s *Stages) vars(stageVars map[string]any) map[string]any {
	out := map[string]any{
		"brief":      s.settings.Brief,
		"language":   s.settings.Language,
		"batch_size": s.settings.BatchSize,
	}
	for k, v := range stageVars {
		out[k] = v
	}
	return out
}

func preview(s string, n int) string {
	if t := node.TruncateByRunes(s, n); t != s {
		return t + "..."
	}
	return s
}
