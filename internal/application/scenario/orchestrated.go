package scenario

import (
	"context"
	"fmt"
	"time"

	"z-scenario-gen/internal/config"
	"z-scenario-gen/internal/domain/entity"
	"z-scenario-gen/internal/workflow/collab"
	"z-scenario-gen/internal/workflow/prompt"
	apperrors "z-scenario-gen/pkg/errors"
	"z-scenario-gen/pkg/logger"
	"z-scenario-gen/pkg/metrics"
	"z-scenario-gen/pkg/tracer"
)

// OrchestratedStructure 编排模式下结构字段的占位文本
const OrchestratedStructure = "Generated via orchestrated multi-role collaboration"

// Orchestrator 单次委派调用完成整批生成，另提供协作者自检
type Orchestrator struct {
	collab   collab.Collaborator
	prompts  *prompt.Registry
	settings PromptSettings
}

func NewOrchestrator(c collab.Collaborator, prompts *prompt.Registry, settings PromptSettings) *Orchestrator {
	if prompts == nil {
		prompts = prompt.NewRegistry()
	}
	return &Orchestrator{collab: c, prompts: prompts, settings: settings}
}

// GenerateOrchestrated 让协调者一次性生成 count 个场景
// 返回单个场景，叙事为完整输出，校验为默认值。
func (c *Coordinator) GenerateOrchestrated(ctx context.Context, count int) (*BatchResult, error) {
	if c.orch == nil {
		return nil, apperrors.ErrConfigInvalid.WithDetail("orchestrated mode not configured")
	}
	res := &BatchResult{
		RunID:     runIDFromContext(ctx),
		Requested: count,
		StartedAt: c.now(),
	}
	ctx = logger.WithContext(ctx, logger.RunIDKey, res.RunID)
	ctx, span := tracer.Start(ctx, "scenario.orchestrate")
	c.progress.start(res.RunID, config.ModeOrchestrated, count, res.StartedAt)
	c.progress.begin(1)

	metrics.ActiveGenerations.Inc()
	text, err := c.orch.run(ctx, count, c.cfg.MaxIterations)
	metrics.ActiveGenerations.Dec()
	res.Duration = c.now().Sub(res.StartedAt)
	metrics.ScenarioGenerationDuration.WithLabelValues(config.ModeOrchestrated).Observe(res.Duration.Seconds())
	tracer.End(span, err)
	c.progress.done(1, err == nil)
	c.progress.finish(res.StartedAt.Add(res.Duration))

	if err != nil {
		metrics.ScenarioGenerationTotal.WithLabelValues(config.ModeOrchestrated, "error").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "orchestrated generation failed")
	}
	metrics.ScenarioGenerationTotal.WithLabelValues(config.ModeOrchestrated, "success").Inc()

	res.Scenarios = []*entity.Scenario{{
		Index:         1,
		Concept:       c.orch.settings.Brief,
		Narrative:     text,
		GameStructure: OrchestratedStructure,
		Validation:    entity.DefaultValidation(),
		Iterations:    c.cfg.MaxIterations,
		Mode:          config.ModeOrchestrated,
		GeneratedAt:   c.now(),
	}}
	logger.Info(ctx, "orchestrated generation finished", "chars", len(text), "duration_s", res.Duration.Seconds())
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, count, iterations int) (string, error) {
	ctx = logger.WithContext(ctx, logger.StageKey, StageOrchestrate)
	rendered, err := o.prompts.Render(ctx, prompt.PromptOrchestrateV1, map[string]any{
		"brief":      o.settings.Brief,
		"language":   o.settings.Language,
		"count":      count,
		"iterations": iterations,
	})
	if err != nil {
		return "", err
	}

	stream, err := o.collab.Invoke(ctx, &collab.Request{
		Role:           RoleCoordinator,
		Stage:          StageOrchestrate,
		Instructions:   rendered.User,
		Profile:        rendered.System,
		SubRoles:       orchestratedSubRoles,
		PermissionMode: collab.PermissionAcceptEdits,
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeCollaboratorFailure, "collaborator invoke failed")
	}
	rec := &sessionRecorder{EventStream: stream}
	text, err := collab.Accumulate(ctx, rec)
	for _, st := range rec.subtypes {
		logger.Info(ctx, "collaborator system event", "subtype", st)
	}
	return text, err
}

// SelfCheckResult 自检结果
type SelfCheckResult struct {
	SessionID string
	Response  string
	Duration  time.Duration
}

// SelfCheck 发送一次简短探测请求，确认协作者可用
func (c *Coordinator) SelfCheck(ctx context.Context) (*SelfCheckResult, error) {
	if c.orch == nil {
		return nil, apperrors.ErrConfigInvalid.WithDetail("self check not configured")
	}
	return c.orch.SelfCheck(ctx)
}

func (o *Orchestrator) SelfCheck(ctx context.Context) (*SelfCheckResult, error) {
	ctx = logger.WithContext(ctx, logger.StageKey, StageProbe)
	ctx, span := tracer.Start(ctx, "scenario.self_check")
	start := time.Now()

	res, err := o.selfCheck(ctx)
	tracer.End(span, err)
	if err != nil {
		return nil, fmt.Errorf("self check: %w", err)
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (o *Orchestrator) selfCheck(ctx context.Context) (*SelfCheckResult, error) {
	rendered, err := o.prompts.Render(ctx, prompt.PromptProbeV1, map[string]any{})
	if err != nil {
		return nil, err
	}
	stream, err := o.collab.Invoke(ctx, &collab.Request{
		Role:         RoleProbe,
		Stage:        StageProbe,
		Instructions: rendered.User,
		Profile:      rendered.System,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCollaboratorFailure, "collaborator invoke failed")
	}
	rec := &sessionRecorder{EventStream: stream}
	text, err := collab.Accumulate(ctx, rec)
	if err != nil {
		return nil, err
	}
	if rec.sessionID != "" {
		logger.Info(ctx, "collaborator session", "session_id", rec.sessionID)
	}
	return &SelfCheckResult{SessionID: rec.sessionID, Response: text}, nil
}

// sessionRecorder 透传事件，同时记录 system 事件的会话信息
type sessionRecorder struct {
	collab.EventStream
	sessionID string
	subtypes  []string
}

func (r *sessionRecorder) Recv() (*collab.Event, error) {
	ev, err := r.EventStream.Recv()
	if err != nil || ev == nil {
		return ev, err
	}
	if ev.Kind == collab.EventSystem {
		r.subtypes = append(r.subtypes, ev.Subtype)
		if ev.Subtype == collab.SubtypeInit && r.sessionID == "" {
			r.sessionID = ev.SessionID
		}
	}
	return ev, nil
}
