// Package messaging 基于 Redis Stream 的任务队列
package messaging

import (
	"encoding/json"
	"errors"
	"time"

	"screen-dev-assistant/internal/config"
)

// 元数据键
const (
	metaRequestID = "request_id"
	metaTraceID   = "trace_id"
)

// Message 消息结构
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	ScreenID  string            `json:"screen_id,omitempty"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(id, msgType, screenID string, payload any) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Type:      msgType,
		ScreenID:  screenID,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now(),
	}, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// GetMetadata 获取元数据
func (m *Message) GetMetadata(key string) string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata[key]
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// Stream 流定义
type Stream string

const (
	StreamCodegen Stream = "stream:screen:codegen"
)

// DLQStream 获取对应的死信队列流名称
func (s Stream) DLQStream() string {
	return "dlq:" + string(s)
}

// ConsumerGroup 消费者组定义
type ConsumerGroup string

const (
	ConsumerGroupCodegenWorker ConsumerGroup = "cg-codegen-worker"
)

// GroupName 拼接配置中的消费者组前缀
func GroupName(prefix string, group ConsumerGroup) ConsumerGroup {
	if prefix == "" {
		return group
	}
	return ConsumerGroup(prefix + ":" + string(group))
}

// 消息类型
const (
	MessageTypeCodegen = "screen_codegen"
)

// permanentError 标记不值得重试的失败，消费者直接移入死信队列
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent 包装处理器错误，使消息跳过重试
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent 判断错误是否被标记为不可重试
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// CodegenJobMessage 排队的代码生成任务
type CodegenJobMessage struct {
	JobID    string `json:"job_id"`
	ScreenID string `json:"screen_id"`
}

// BackoffConfig 退避配置
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoffConfig 默认退避配置
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
	}
}

// BackoffFromConfig 从配置构建退避参数，缺省值回落到默认配置
func BackoffFromConfig(cfg config.BackoffConfig) BackoffConfig {
	b := DefaultBackoffConfig()
	if cfg.Initial > 0 {
		b.Initial = cfg.Initial
	}
	if cfg.Max > 0 {
		b.Max = cfg.Max
	}
	if cfg.Multiplier >= 1 {
		b.Multiplier = cfg.Multiplier
	}
	return b
}

// CalculateBackoff 计算退避时间
func (c BackoffConfig) CalculateBackoff(retryCount int) time.Duration {
	backoff := c.Initial
	for i := 0; i < retryCount; i++ {
		backoff = time.Duration(float64(backoff) * c.Multiplier)
		if backoff > c.Max {
			return c.Max
		}
	}
	return backoff
}
