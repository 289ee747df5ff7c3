package repository

import (
	"context"
	"fmt"

	"z-scenario-gen/internal/domain/entity"
	"z-scenario-gen/pkg/logger"
	"z-scenario-gen/pkg/metrics"
)

// ScenarioSink 场景批次持久化接口
type ScenarioSink interface {
	// Name 返回用于日志与指标的后端名
	Name() string
	// SaveBatch 写入一次运行的全部场景
	SaveBatch(ctx context.Context, batch *entity.ScenarioBatch) error
}

// MultiSink 将批次写入主后端与若干可选后端
// 主后端失败返回错误；可选后端失败只记录日志。
type MultiSink struct {
	primary  ScenarioSink
	optional []ScenarioSink
}

// NewMultiSink 创建组合写入器，nil 的可选后端会被忽略
func NewMultiSink(primary ScenarioSink, optional ...ScenarioSink) *MultiSink {
	m := &MultiSink{primary: primary}
	for _, s := range optional {
		if s != nil {
			m.optional = append(m.optional, s)
		}
	}
	return m
}

// Name 实现 ScenarioSink
func (m *MultiSink) Name() string {
	return "multi"
}

// SaveBatch 先写主后端，再依次写可选后端
func (m *MultiSink) SaveBatch(ctx context.Context, batch *entity.ScenarioBatch) error {
	if m.primary == nil {
		return fmt.Errorf("primary sink is nil")
	}
	if err := m.primary.SaveBatch(ctx, batch); err != nil {
		metrics.SinkWriteTotal.WithLabelValues(m.primary.Name(), "error").Inc()
		return fmt.Errorf("%s sink: %w", m.primary.Name(), err)
	}
	metrics.SinkWriteTotal.WithLabelValues(m.primary.Name(), "success").Inc()

	for _, s := range m.optional {
		if err := s.SaveBatch(ctx, batch); err != nil {
			metrics.SinkWriteTotal.WithLabelValues(s.Name(), "error").Inc()
			logger.Error(ctx, "optional sink write failed", err, "sink", s.Name())
			continue
		}
		metrics.SinkWriteTotal.WithLabelValues(s.Name(), "success").Inc()
	}
	return nil
}
