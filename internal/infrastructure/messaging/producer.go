package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"screen-dev-assistant/pkg/logger"
)

var tracer = otel.Tracer("messaging")

// defaultMaxLen 任务流近似保留的条目数
const defaultMaxLen = 100000

// Producer 代码生成任务的发布端
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &Producer{client: client, maxLen: maxLen}
}

// Publish 写入一条消息，返回流内 ID
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	// 把当前 span 写进元数据，worker 端据此续接链路
	if msg.Metadata == nil {
		msg.Metadata = make(map[string]string)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("encode message %s: %w", msg.ID, err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"data": string(data)},
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}

	span.SetAttributes(attribute.String("stream.message_id", id))
	return id, nil
}

// PublishCodegenJob 排队一次代码生成，消息 ID 即任务 ID
func (p *Producer) PublishCodegenJob(ctx context.Context, job *CodegenJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, MessageTypeCodegen, job.ScreenID, job)
	if err != nil {
		return "", err
	}
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok && reqID != "" {
		msg.SetMetadata(metaRequestID, reqID)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		msg.SetMetadata(metaTraceID, sc.TraceID().String())
	}
	return p.Publish(ctx, StreamCodegen, msg)
}
