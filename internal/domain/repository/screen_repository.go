package repository

import (
	"context"

	"screen-dev-assistant/internal/domain/entity"
)

// ScreenFilter 屏幕过滤条件
type ScreenFilter struct {
	Status entity.ScreenStatus
	// Query 对名称与编号做不区分大小写的包含匹配
	Query string
}

// ScreenRepository 屏幕仓储接口
type ScreenRepository interface {
	// Create 创建屏幕
	Create(ctx context.Context, screen *entity.Screen) error

	// GetByID 根据 ID 获取屏幕，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Screen, error)

	// GetByCode 根据业务编号获取屏幕
	GetByCode(ctx context.Context, code string) (*entity.Screen, error)

	// Update 更新屏幕
	Update(ctx context.Context, screen *entity.Screen) error

	// UpdateStatus 更新屏幕状态
	UpdateStatus(ctx context.Context, id string, status entity.ScreenStatus) error

	// Delete 删除屏幕及其需求关联
	Delete(ctx context.Context, id string) error

	// List 分页查询屏幕
	List(ctx context.Context, filter *ScreenFilter, pagination Pagination) (*PagedResult[*entity.Screen], error)

	// CountByStatus 统计指定状态的屏幕数量，空状态统计全部
	CountByStatus(ctx context.Context, status entity.ScreenStatus) (int64, error)

	// SetRequirements 用有序列表替换屏幕的需求关联
	SetRequirements(ctx context.Context, screenID string, requirementIDs []string) error

	// ListRequirements 按关联顺序返回屏幕的需求
	ListRequirements(ctx context.Context, screenID string) ([]*entity.Requirement, error)
}
