package screen

import (
	"context"
	"encoding/json"
	"time"
)

// Cache 读穿缓存
type Cache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func() (any, error)) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	InvalidatePattern(ctx context.Context, pattern string) error
	InvalidateScreen(ctx context.Context, screenID string) error
}

// loadCached 经缓存加载并解码，cache 为 nil 时直接调用 loader
func loadCached[T any](ctx context.Context, cache Cache, key string, ttl time.Duration, loader func() (*T, error)) (*T, error) {
	if cache == nil {
		return loader()
	}

	raw, err := cache.GetOrLoad(ctx, key, ttl, func() (any, error) {
		return loader()
	})
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return loader()
	}
	return &out, nil
}
