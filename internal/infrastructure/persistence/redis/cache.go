package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"screen-dev-assistant/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// scanBatch 模式失效时每轮 SCAN 与 UNLINK 的键数
const scanBatch = 200

// Cache 看板与屏幕详情的读穿缓存，值以 JSON 存储
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

func encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return b, nil
}

// GetOrLoad 命中直接返回；未命中时同一键的并发加载合并为一次并回填。
// Redis 不可用时退化为直接调用 loader，不回填。
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func() (any, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	family := keyFamily(key)
	val, err := c.client.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.CacheRequests.WithLabelValues(family, "hit").Inc()
		return val, nil
	case !IsNil(err):
		span.RecordError(err)
		metrics.CacheRequests.WithLabelValues(family, "error").Inc()
		data, err := loader()
		if err != nil {
			return nil, err
		}
		return encode(data)
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	metrics.CacheRequests.WithLabelValues(family, "miss").Inc()

	// 共享加载不随首个调用方取消
	loadCtx := context.WithoutCancel(ctx)
	result, err, shared := c.group.Do(key, func() (any, error) {
		data, err := loader()
		if err != nil {
			return nil, err
		}
		b, err := encode(data)
		if err != nil {
			return nil, err
		}
		if err := c.client.rdb.Set(loadCtx, key, b, ttl).Err(); err != nil {
			span.RecordError(err)
		}
		return b, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.([]byte), nil
}

// Delete 删除指定键，UNLINK 在后台回收内存
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := cacheTracer.Start(ctx, "cache.Delete",
		trace.WithAttributes(attribute.StringSlice("cache.keys", keys)))
	defer span.End()

	n, err := c.client.rdb.Unlink(ctx, keys...).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete cache keys: %w", err)
	}
	if n > 0 {
		metrics.CacheInvalidations.WithLabelValues(keyFamily(keys[0])).Add(float64(n))
	}
	return nil
}

// InvalidatePattern 分批扫描并删除匹配 pattern 的键，需求变更后用于清理全部屏幕详情
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.InvalidatePattern",
		trace.WithAttributes(attribute.String("cache.pattern", pattern)))
	defer span.End()

	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := c.client.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.client.rdb.Unlink(ctx, keys...).Result()
			if err != nil {
				span.RecordError(err)
				return fmt.Errorf("unlink %s: %w", pattern, err)
			}
			total += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	span.SetAttributes(attribute.Int64("cache.invalidated_count", total))
	if total > 0 {
		metrics.CacheInvalidations.WithLabelValues(keyFamily(pattern)).Add(float64(total))
	}
	return nil
}

// InvalidateScreen 使屏幕详情、评审摘要与看板统计失效
func (c *Cache) InvalidateScreen(ctx context.Context, screenID string) error {
	return c.Delete(ctx, ScreenKey(screenID), ReviewKey(screenID), DashboardKey())
}
