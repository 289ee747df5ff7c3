package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-scenario-gen/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client redis.Cmdable
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client redis.Cmdable, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type": msg.Type,
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(string(stream), "error").Inc()
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamPublished.WithLabelValues(string(stream), "success").Inc()
	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishBatchCompleted 发布批次完成事件
func (p *Producer) PublishBatchCompleted(ctx context.Context, evt *BatchCompletedMessage) (string, error) {
	msg, err := NewMessage(evt.RunID, TypeBatchCompleted, evt.RunID, evt)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("succeeded", strconv.Itoa(evt.Succeeded))
	msg.SetMetadata("failed", strconv.Itoa(len(evt.FailedItems)))
	return p.Publish(ctx, StreamScenarioCompleted, msg)
}

// BatchCompletedMessage 批次完成消息
type BatchCompletedMessage struct {
	RunID       string `json:"run_id"`
	Requested   int    `json:"requested"`
	Succeeded   int    `json:"succeeded"`
	Validated   int    `json:"validated"`
	FailedItems []int  `json:"failed_items"`
	// KeyPrefix 场景数据所在的 Redis 键前缀
	KeyPrefix  string    `json:"key_prefix,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
