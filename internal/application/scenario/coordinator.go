// Package scenario 编排场景生成流水线与批量运行
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-scenario-gen/internal/config"
	"z-scenario-gen/internal/domain/entity"
	apperrors "z-scenario-gen/pkg/errors"
	"z-scenario-gen/pkg/logger"
	"z-scenario-gen/pkg/metrics"
	"z-scenario-gen/pkg/tracer"
)

// GenerationConfig 协调器的固定配置，实例生命周期内不变
type GenerationConfig struct {
	// MaxIterations 反馈循环次数，>= 0
	MaxIterations int
}

// Pipeline 流水线阶段集合，*Stages 为默认实现
type Pipeline interface {
	Concept(ctx context.Context, index int) (string, error)
	Structure(ctx context.Context, concept string) (string, error)
	Enrich(ctx context.Context, concept, structure string) (string, error)
	Critique(ctx context.Context, narrative, structure string) (string, error)
	Refine(ctx context.Context, narrative, feedback string) (string, error)
	AdjustMechanics(ctx context.Context, narrative, structure string) (string, error)
	Polish(ctx context.Context, narrative string) (string, error)
	Validate(ctx context.Context, narrative, structure string) (entity.ValidationResult, error)
}

// Coordinator 场景协调器
type Coordinator struct {
	stages Pipeline
	cfg    GenerationConfig

	// orchestrated 模式与自检使用
	orch     *Orchestrator
	progress *Progress
	now      func() time.Time
}

func NewCoordinator(stages Pipeline, cfg GenerationConfig, orch *Orchestrator) *Coordinator {
	if cfg.MaxIterations < 0 {
		cfg.MaxIterations = 0
	}
	return &Coordinator{stages: stages, cfg: cfg, orch: orch, now: time.Now}
}

// WithProgress 设置进度记录器
func (c *Coordinator) WithProgress(p *Progress) *Coordinator {
	c.progress = p
	return c
}

// ItemFailure 批次中失败的条目
type ItemFailure struct {
	Index int
	Err   error
}

// BatchResult 批量生成结果，Scenarios 按序号升序
type BatchResult struct {
	RunID     string
	Requested int
	Scenarios []*entity.Scenario
	Failures  []ItemFailure
	StartedAt time.Time
	Duration  time.Duration
	// Cancelled 表示 ctx 取消导致批次提前结束
	Cancelled bool
}

// Batch 转为持久化使用的批次实体
func (r *BatchResult) Batch(title string) *entity.ScenarioBatch {
	failed := make([]int, 0, len(r.Failures))
	for _, f := range r.Failures {
		failed = append(failed, f.Index)
	}
	return &entity.ScenarioBatch{
		RunID:       r.RunID,
		Title:       title,
		Requested:   r.Requested,
		Scenarios:   r.Scenarios,
		FailedItems: failed,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.StartedAt.Add(r.Duration),
	}
}

// GenerateScenario 按固定顺序执行单个场景的全部阶段
// 任一阶段失败即中止该场景，不重试。
func (c *Coordinator) GenerateScenario(ctx context.Context, req entity.ScenarioRequest) (*entity.Scenario, error) {
	ctx = logger.WithContext(ctx, logger.ScenarioIndexKey, req.Index)
	ctx, span := tracer.Start(ctx, "scenario.generate",
		trace.WithAttributes(attribute.Int("scenario.index", req.Index), attribute.Int("scenario.max_iterations", c.cfg.MaxIterations)))

	start := c.now()
	metrics.ActiveGenerations.Inc()
	s, err := c.runPipeline(ctx, req)
	metrics.ActiveGenerations.Dec()
	metrics.ScenarioGenerationDuration.WithLabelValues(config.ModePipeline).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ScenarioGenerationTotal.WithLabelValues(config.ModePipeline, "error").Inc()
		tracer.End(span, err)
		return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, fmt.Sprintf("scenario #%d failed", req.Index))
	}
	metrics.ScenarioGenerationTotal.WithLabelValues(config.ModePipeline, "success").Inc()
	tracer.End(span, nil)
	return s, nil
}

func (c *Coordinator) runPipeline(ctx context.Context, req entity.ScenarioRequest) (*entity.Scenario, error) {
	logger.Info(ctx, "phase 1: concept")
	concept, err := c.stages.Concept(ctx, req.Index)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "phase 2: game structure")
	structure, err := c.stages.Structure(ctx, concept)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "phase 3: narrative enrichment")
	narrative, err := c.stages.Enrich(ctx, concept, structure)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "phase 4: feedback loop", "iterations", c.cfg.MaxIterations)
	for i := 1; i <= c.cfg.MaxIterations; i++ {
		feedback, err := c.stages.Critique(ctx, narrative, structure)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		narrative, err = c.stages.Refine(ctx, narrative, feedback)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		structure, err = c.stages.AdjustMechanics(ctx, narrative, structure)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		logger.Info(ctx, "iteration complete", "iteration", i, "of", c.cfg.MaxIterations)
	}

	logger.Info(ctx, "phase 5: polish")
	narrative, err = c.stages.Polish(ctx, narrative)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "phase 6: validation")
	validation, err := c.stages.Validate(ctx, narrative, structure)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "scenario complete", "valid", validation.IsValid, "issues", len(validation.Issues))
	return &entity.Scenario{
		Index:         req.Index,
		Concept:       concept,
		Narrative:     narrative,
		GameStructure: structure,
		Validation:    validation,
		Iterations:    c.cfg.MaxIterations,
		Mode:          config.ModePipeline,
		GeneratedAt:   c.now(),
	}, nil
}

// GenerateMultipleScenarios 依次生成 1..count，单个条目失败不影响其余条目
// ctx 取消后不再开始新的条目。
func (c *Coordinator) GenerateMultipleScenarios(ctx context.Context, count int) *BatchResult {
	res := &BatchResult{
		RunID:     runIDFromContext(ctx),
		Requested: count,
		Scenarios: make([]*entity.Scenario, 0, max(count, 0)),
		StartedAt: c.now(),
	}
	ctx = logger.WithContext(ctx, logger.RunIDKey, res.RunID)
	logger.Info(ctx, "batch started", "count", count, "iterations", c.cfg.MaxIterations)
	c.progress.start(res.RunID, config.ModePipeline, count, res.StartedAt)

	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			res.Cancelled = true
			logger.Warn(ctx, "batch cancelled", "next_index", i, "error", err.Error())
			break
		}

		c.progress.begin(i)
		s, err := c.GenerateScenario(ctx, entity.ScenarioRequest{Index: i})
		c.progress.done(i, err == nil)
		if err != nil {
			metrics.BatchItemsTotal.WithLabelValues("failed").Inc()
			logger.Error(ctx, "scenario generation failed, skipping", err, "index", i)
			res.Failures = append(res.Failures, ItemFailure{Index: i, Err: err})
			continue
		}
		metrics.BatchItemsTotal.WithLabelValues("succeeded").Inc()
		res.Scenarios = append(res.Scenarios, s)
		logger.Info(ctx, "batch progress", "completed", i, "of", count, "succeeded", len(res.Scenarios))
	}

	res.Duration = c.now().Sub(res.StartedAt)
	c.progress.finish(res.StartedAt.Add(res.Duration))
	logger.Info(ctx, "batch finished",
		"requested", count,
		"succeeded", len(res.Scenarios),
		"failed", len(res.Failures),
		"duration_s", res.Duration.Seconds(),
	)
	return res
}

// runIDFromContext 复用上游注入的运行 ID，否则生成新的
func runIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(logger.RunIDKey).(string); ok && v != "" {
		return v
	}
	return uuid.NewString()
}
