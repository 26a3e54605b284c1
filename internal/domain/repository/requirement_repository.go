package repository

import (
	"context"

	"screen-dev-assistant/internal/domain/entity"
)

// RequirementRepository 需求仓储接口
type RequirementRepository interface {
	Create(ctx context.Context, req *entity.Requirement) error
	GetByID(ctx context.Context, id string) (*entity.Requirement, error)
	GetByCode(ctx context.Context, code string) (*entity.Requirement, error)
	// GetByIDs 批量获取，返回顺序与传入顺序一致，缺失的 ID 被忽略
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Requirement, error)
	Update(ctx context.Context, req *entity.Requirement) error
	Delete(ctx context.Context, id string) error
	// Search 按概述做不区分大小写的包含匹配，query 为空时返回全部
	Search(ctx context.Context, query string, pagination Pagination) (*PagedResult[*entity.Requirement], error)
}
