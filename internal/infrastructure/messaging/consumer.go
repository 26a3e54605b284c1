package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"screen-dev-assistant/pkg/logger"
	"screen-dev-assistant/pkg/metrics"
)

const (
	readCount    = 10
	pendingBatch = 20
	dlqMaxLen    = 10000
	// 生成一次可能耗时数分钟，低于该空闲时长的消息不被其他消费者接管
	minReclaimIdle = 5 * time.Minute
)

// MessageHandler 消息处理函数。返回 Permanent 包装的错误时跳过重试
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer 消费者组成员：读取新消息，按退避重试失败消息，接管失联成员的消息
type Consumer struct {
	client        *redis.Client
	stream        Stream
	group         ConsumerGroup
	consumerName  string
	blockTimeout  time.Duration
	claimInterval time.Duration
	reclaimIdle   time.Duration
	retryLimit    int
	backoff       BackoffConfig

	handlers map[string]MessageHandler
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	done     chan struct{}
}

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Stream        Stream
	Group         ConsumerGroup
	ConsumerName  string
	BlockTimeout  time.Duration
	ClaimInterval time.Duration
	RetryLimit    int
	Backoff       BackoffConfig
}

// NewConsumer 创建消息消费者
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = 30 * time.Second
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff = DefaultBackoffConfig()
	}

	return &Consumer{
		client:        client,
		stream:        cfg.Stream,
		group:         cfg.Group,
		consumerName:  cfg.ConsumerName,
		blockTimeout:  cfg.BlockTimeout,
		claimInterval: cfg.ClaimInterval,
		reclaimIdle:   max(minReclaimIdle, cfg.Backoff.Max*2),
		retryLimit:    cfg.RetryLimit,
		backoff:       cfg.Backoff,
		handlers:      make(map[string]MessageHandler),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// RegisterHandler 注册消息处理器
func (c *Consumer) RegisterHandler(msgType string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = handler
}

// Start 确保消费者组存在并在后台开始消费
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	err := c.client.XGroupCreateMkStream(ctx, string(c.stream), string(c.group), "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.group, err)
	}

	go c.run(ctx)
	return nil
}

// Stop 停止消费者并等待当前消息处理完成
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	close(c.stopCh)
	c.running = false
	c.mu.Unlock()

	<-c.done
}

func (c *Consumer) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Consumer) run(ctx context.Context) {
	defer close(c.done)

	log := logger.FromContext(ctx)
	log.Info("consumer started",
		"stream", c.stream,
		"group", c.group,
		"consumer", c.consumerName,
	)
	defer log.Info("consumer stopped", "stream", c.stream)

	lastClaim := time.Now().Add(-c.claimInterval)
	for !c.stopped(ctx) {
		c.retryDue(ctx)
		if time.Since(lastClaim) >= c.claimInterval {
			c.reclaimStale(ctx)
			c.reportLag(ctx)
			lastClaim = time.Now()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    string(c.group),
			Consumer: c.consumerName,
			Streams:  []string{string(c.stream), ">"},
			Count:    readCount,
			Block:    c.blockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Error("failed to read from stream", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, xmsg := range s.Messages {
				c.processMessage(ctx, xmsg)
			}
		}
	}
}

func decode(xmsg redis.XMessage) (*Message, error) {
	raw, ok := xmsg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("message %s has no data field", xmsg.ID)
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, fmt.Errorf("decode message %s: %w", xmsg.ID, err)
	}
	return &msg, nil
}

// messageContext 恢复发布端的追踪上下文以及请求、屏幕标识
func messageContext(ctx context.Context, msg *Message) context.Context {
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
	if msg.ScreenID != "" {
		ctx = logger.WithContext(ctx, logger.ScreenIDKey, msg.ScreenID)
	}
	if reqID := msg.GetMetadata(metaRequestID); reqID != "" {
		ctx = logger.WithContext(ctx, logger.RequestIDKey, reqID)
	}
	if traceID := msg.GetMetadata(metaTraceID); traceID != "" {
		ctx = logger.WithContext(ctx, logger.TraceIDKey, traceID)
	}
	return ctx
}

// invoke 调用处理器，处理器 panic 视为一次失败
func invoke(ctx context.Context, handler MessageHandler, msg *Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "message handler panic", fmt.Errorf("%v", rec), "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler(ctx, msg)
}

func (c *Consumer) processMessage(ctx context.Context, xmsg redis.XMessage) {
	msg, err := decode(xmsg)
	if err != nil {
		logger.FromContext(ctx).Error("dropping undecodable message", "error", err, "message_id", xmsg.ID)
		metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "invalid").Inc()
		c.ack(ctx, xmsg.ID)
		return
	}

	ctx, span := tracer.Start(messageContext(ctx, msg), "consumer.processMessage",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("stream", string(c.stream)),
			attribute.String("stream.message_id", xmsg.ID),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
			attribute.String("screen_id", msg.ScreenID),
		))
	defer span.End()
	log := logger.FromContext(ctx)

	c.mu.RLock()
	handler, ok := c.handlers[msg.Type]
	c.mu.RUnlock()
	if !ok {
		log.Warn("no handler for message type", "type", msg.Type)
		metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "unhandled").Inc()
		c.ack(ctx, xmsg.ID)
		return
	}

	start := time.Now()
	err = invoke(ctx, handler, msg)
	metrics.RedisStreamHandleDuration.WithLabelValues(string(c.stream), msg.Type).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "success").Inc()
		c.ack(ctx, xmsg.ID)
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "error").Inc()
	log.Error("handler failed", "error", err, "message_id", msg.ID)

	if IsPermanent(err) {
		c.deadLetter(ctx, xmsg.ID, msg, err)
		return
	}
	if retries := c.deliveries(ctx, xmsg.ID); retries >= c.retryLimit {
		log.Warn("retries exhausted", "message_id", msg.ID, "retry_count", retries)
		c.deadLetter(ctx, xmsg.ID, msg, err)
	}
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, string(c.stream), string(c.group), id).Err(); err != nil {
		logger.FromContext(ctx).Error("failed to ack message", "error", err, "message_id", id)
	}
}

// deliveries 通过 XPENDING 读取投递次数
func (c *Consumer) deliveries(ctx context.Context, id string) int {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: string(c.stream),
		Group:  string(c.group),
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 0
	}
	return int(pending[0].RetryCount)
}

// deadLetter 把消息写入死信流并确认原消息
func (c *Consumer) deadLetter(ctx context.Context, streamID string, msg *Message, cause error) {
	entry, _ := json.Marshal(map[string]any{
		"original_stream": string(c.stream),
		"data":            msg,
		"error":           cause.Error(),
		"permanent":       IsPermanent(cause),
		"failed_at":       time.Now().Unix(),
	})
	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.stream.DLQStream(),
		MaxLen: dlqMaxLen,
		Approx: true,
		Values: map[string]any{"data": string(entry)},
	}).Err(); err != nil {
		// 写死信失败时保留 pending，下一轮再试
		logger.FromContext(ctx).Error("failed to write DLQ", "error", err, "message_id", msg.ID)
		return
	}
	metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "dlq").Inc()
	c.ack(ctx, streamID)
}

// claim 把 pending 消息转到当前消费者名下
func (c *Consumer) claim(ctx context.Context, id string, minIdle time.Duration) []redis.XMessage {
	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   string(c.stream),
		Group:    string(c.group),
		Consumer: c.consumerName,
		MinIdle:  minIdle,
		Messages: []string{id},
	}).Result()
	if err != nil {
		logger.FromContext(ctx).Error("failed to claim pending message", "error", err, "message_id", id)
		return nil
	}
	return claimed
}

// expire 认领重试耗尽的消息并移入死信流
func (c *Consumer) expire(ctx context.Context, id string, minIdle time.Duration) {
	for _, xmsg := range c.claim(ctx, id, minIdle) {
		msg, err := decode(xmsg)
		if err != nil {
			c.ack(ctx, xmsg.ID)
			continue
		}
		c.deadLetter(ctx, xmsg.ID, msg, errors.New("retries exhausted"))
	}
}

func (c *Consumer) pending(ctx context.Context, consumer string) []redis.XPendingExt {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   string(c.stream),
		Group:    string(c.group),
		Start:    "-",
		End:      "+",
		Count:    pendingBatch,
		Consumer: consumer,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.FromContext(ctx).Error("failed to query pending messages", "error", err)
		}
		return nil
	}
	return pending
}

// retryDue 重试自己名下退避期已满的消息
func (c *Consumer) retryDue(ctx context.Context) {
	for _, p := range c.pending(ctx, c.consumerName) {
		retries := int(p.RetryCount)
		if retries >= c.retryLimit {
			c.expire(ctx, p.ID, 0)
			continue
		}
		wait := c.backoff.CalculateBackoff(retries)
		if p.Idle < wait {
			continue
		}
		for _, xmsg := range c.claim(ctx, p.ID, wait) {
			c.processMessage(ctx, xmsg)
		}
	}
}

// reclaimStale 接管其他消费者长时间未确认的消息
func (c *Consumer) reclaimStale(ctx context.Context) {
	for _, p := range c.pending(ctx, "") {
		if p.Consumer == c.consumerName || p.Idle < c.reclaimIdle {
			continue
		}
		logger.FromContext(ctx).Info("reclaiming stale message",
			"message_id", p.ID,
			"owner", p.Consumer,
			"idle", p.Idle.String(),
		)
		if int(p.RetryCount) >= c.retryLimit {
			c.expire(ctx, p.ID, c.reclaimIdle)
			continue
		}
		for _, xmsg := range c.claim(ctx, p.ID, c.reclaimIdle) {
			c.processMessage(ctx, xmsg)
		}
	}
}

func (c *Consumer) reportLag(ctx context.Context) {
	groups, err := c.client.XInfoGroups(ctx, string(c.stream)).Result()
	if err != nil {
		return
	}
	for _, g := range groups {
		if g.Name == string(c.group) {
			metrics.RedisStreamLag.WithLabelValues(string(c.stream), g.Name).Set(float64(g.Lag))
		}
	}
}

// MonitorDLQ 每分钟上报死信流长度，超过阈值时告警
func (c *Consumer) MonitorDLQ(ctx context.Context, alertThreshold int64) {
	dlq := c.stream.DLQStream()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			n, err := c.client.XLen(ctx, dlq).Result()
			if err != nil {
				continue
			}
			metrics.RedisStreamDLQLength.WithLabelValues(dlq).Set(float64(n))
			if n > alertThreshold {
				logger.Warn(ctx, "dead letter stream over threshold", "stream", dlq, "count", n)
			}
		}
	}
}
