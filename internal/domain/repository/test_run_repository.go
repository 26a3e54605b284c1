package repository

import (
	"context"

	"screen-dev-assistant/internal/domain/entity"
)

// TestRunRepository 测试运行仓储接口
type TestRunRepository interface {
	Create(ctx context.Context, run *entity.TestRun) error
	// Latest 获取屏幕最近一次运行，不存在时返回 nil, nil
	Latest(ctx context.Context, screenID string) (*entity.TestRun, error)
	ListByScreen(ctx context.Context, screenID string, pagination Pagination) (*PagedResult[*entity.TestRun], error)
}
