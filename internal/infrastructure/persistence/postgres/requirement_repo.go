package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
)

// RequirementRepository 需求仓储实现
type RequirementRepository struct {
	client *Client
}

// NewRequirementRepository 创建需求仓储
func NewRequirementRepository(client *Client) *RequirementRepository {
	return &RequirementRepository{client: client}
}

// Create 创建需求
func (r *RequirementRepository) Create(ctx context.Context, req *entity.Requirement) error {
	ctx, span := tracer.Start(ctx, "postgres.RequirementRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("requirement code %s: %w", req.RequirementCode, repository.ErrDuplicate)
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create requirement: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取需求
func (r *RequirementRepository) GetByID(ctx context.Context, id string) (*entity.Requirement, error) {
	ctx, span := tracer.Start(ctx, "postgres.RequirementRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var req entity.Requirement
	if err := db.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get requirement: %w", err)
	}
	return &req, nil
}

// GetByCode 根据业务编号获取需求
func (r *RequirementRepository) GetByCode(ctx context.Context, code string) (*entity.Requirement, error) {
	ctx, span := tracer.Start(ctx, "postgres.RequirementRepository.GetByCode")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var req entity.Requirement
	if err := db.First(&req, "requirement_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get requirement by code: %w", err)
	}
	return &req, nil
}

// GetByIDs 批量获取需求并按传入顺序排列
func (r *RequirementRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Requirement, error) {
	ctx, span := tracer.Start(ctx, "postgres.RequirementRepository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	db := getDB(ctx, r.client.db)
	var found []*entity.Requirement
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get requirements: %w", err)
	}

	byID := make(map[string]*entity.Requirement, len(found))
	for _, req := range found {
		byID[req.ID] = req
	}
	ordered := make([]*entity.Requirement, 0, len(found))
	for _, id := range ids {
		if req, ok := byID[id]; ok {
			ordered = append(ordered, req)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// Update 更新需求
func (r *RequirementRepository) Update(ctx context.Context, req *entity.Requirement) error {
	ctx, span := tracer.Start(ctx, "postgres.RequirementRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(req).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update requirement: %w", err)
	}
	return nil
}

// Delete 删除需求及其屏幕关联
func (r *RequirementRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.RequirementRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Where("requirement_id = ?", id).Delete(&entity.ScreenRequirement{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to unlink requirement: %w", err)
	}
	if err := db.Delete(&entity.Requirement{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete requirement: %w", err)
	}
	return nil
}

// Search 按概述搜索需求
func (r *RequirementRepository) Search(ctx context.Context, query string, pagination repository.Pagination) (*repository.PagedResult[*entity.Requirement], error) {
	ctx, span := tracer.Start(ctx, "postgres.RequirementRepository.Search")
	defer span.End()

	db := getDB(ctx, r.client.db)
	q := db.Model(&entity.Requirement{})
	if s := strings.TrimSpace(query); s != "" {
		q = q.Where("overview ILIKE ?", "%"+s+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count requirements: %w", err)
	}

	var reqs []*entity.Requirement
	if err := q.Order("requirement_code ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&reqs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search requirements: %w", err)
	}

	return repository.NewPagedResult(reqs, total, pagination), nil
}
