package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-scenario-gen/internal/domain/entity"
	"z-scenario-gen/internal/infrastructure/messaging"
	apperrors "z-scenario-gen/pkg/errors"
	"z-scenario-gen/pkg/logger"
)

const (
	keyPrefix = "scenario:run:"
	// recentRunsKey 最近运行 ID 列表
	recentRunsKey = "scenario:runs"
	recentRunsMax = 100
)

// FormatFunc 将批次渲染为文本文档
type FormatFunc func(scenarios []*entity.Scenario, title string) string

// ScenarioStore 以运行为单位存储场景，并发布完成事件
type ScenarioStore struct {
	client   *Client
	producer *messaging.Producer
	ttl      time.Duration
	format   FormatFunc
}

// NewScenarioStore producer 为 nil 时不发布事件
func NewScenarioStore(client *Client, producer *messaging.Producer, ttl time.Duration, format FormatFunc) *ScenarioStore {
	return &ScenarioStore{client: client, producer: producer, ttl: ttl, format: format}
}

func RunKeyPrefix(runID string) string {
	return keyPrefix + runID + ":"
}

func batchKey(runID string) string { return RunKeyPrefix(runID) + "batch" }
func textKey(runID string) string  { return RunKeyPrefix(runID) + "text" }

func scenarioKey(runID string, index int) string {
	return RunKeyPrefix(runID) + "scenario:" + strconv.Itoa(index)
}

// Name 实现 repository.ScenarioSink
func (s *ScenarioStore) Name() string {
	return "redis"
}

// SaveBatch 原子写入批次 JSON、每个场景 JSON 与文本文档
func (s *ScenarioStore) SaveBatch(ctx context.Context, batch *entity.ScenarioBatch) error {
	ctx, span := tracer.Start(ctx, "redis.ScenarioStore.SaveBatch",
		trace.WithAttributes(
			attribute.String("run.id", batch.RunID),
			attribute.Int("run.scenarios", len(batch.Scenarios)),
		))
	defer span.End()

	batchJSON, err := json.Marshal(batch)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	_, err = s.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, batchKey(batch.RunID), batchJSON, s.ttl)
		for _, sc := range batch.Scenarios {
			b, err := json.Marshal(sc)
			if err != nil {
				return fmt.Errorf("failed to marshal scenario %d: %w", sc.Index, err)
			}
			pipe.Set(ctx, scenarioKey(batch.RunID, sc.Index), b, s.ttl)
		}
		if s.format != nil {
			pipe.Set(ctx, textKey(batch.RunID), s.format(batch.Scenarios, batch.Title), s.ttl)
		}
		pipe.LPush(ctx, recentRunsKey, batch.RunID)
		pipe.LTrim(ctx, recentRunsKey, 0, recentRunsMax-1)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to store scenario batch")
	}

	if s.producer == nil {
		return nil
	}
	msgID, err := s.producer.PublishBatchCompleted(ctx, &messaging.BatchCompletedMessage{
		RunID:       batch.RunID,
		Requested:   batch.Requested,
		Succeeded:   len(batch.Scenarios),
		Validated:   batch.ValidCount(),
		FailedItems: batch.FailedItems,
		KeyPrefix:   RunKeyPrefix(batch.RunID),
		FinishedAt:  batch.FinishedAt,
	})
	if err != nil {
		// 数据已写入，事件发布失败不影响存储结果
		logger.Warn(ctx, "publish batch completed event failed", "run_id", batch.RunID, "error", err.Error())
		return nil
	}
	logger.Debug(ctx, "batch completed event published", "run_id", batch.RunID, "message_id", msgID)
	return nil
}

// LoadBatch 读取一次运行的批次
func (s *ScenarioStore) LoadBatch(ctx context.Context, runID string) (*entity.ScenarioBatch, error) {
	raw, err := s.client.Get(ctx, batchKey(runID))
	if err != nil {
		if IsNil(err) {
			return nil, apperrors.ErrNotFound.WithDetail("run " + runID)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to load scenario batch")
	}
	var batch entity.ScenarioBatch
	if err := json.Unmarshal([]byte(raw), &batch); err != nil {
		return nil, fmt.Errorf("failed to decode batch %s: %w", runID, err)
	}
	return &batch, nil
}

// RecentRuns 返回最近的运行 ID，新的在前
func (s *ScenarioStore) RecentRuns(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 || limit > recentRunsMax {
		limit = recentRunsMax
	}
	ids, err := s.client.rdb.LRange(ctx, recentRunsKey, 0, limit-1).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to list runs")
	}
	return ids, nil
}
