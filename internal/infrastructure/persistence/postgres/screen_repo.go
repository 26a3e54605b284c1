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

// ScreenRepository 屏幕仓储实现
type ScreenRepository struct {
	client *Client
}

// NewScreenRepository 创建屏幕仓储
func NewScreenRepository(client *Client) *ScreenRepository {
	return &ScreenRepository{client: client}
}

// Create 创建屏幕
func (r *ScreenRepository) Create(ctx context.Context, screen *entity.Screen) error {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(screen).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("screen code %s: %w", screen.ScreenCode, repository.ErrDuplicate)
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create screen: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取屏幕
func (r *ScreenRepository) GetByID(ctx context.Context, id string) (*entity.Screen, error) {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var screen entity.Screen
	if err := db.First(&screen, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get screen: %w", err)
	}
	return &screen, nil
}

// GetByCode 根据业务编号获取屏幕
func (r *ScreenRepository) GetByCode(ctx context.Context, code string) (*entity.Screen, error) {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.GetByCode")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var screen entity.Screen
	if err := db.First(&screen, "screen_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get screen by code: %w", err)
	}
	return &screen, nil
}

// Update 更新屏幕
func (r *ScreenRepository) Update(ctx context.Context, screen *entity.Screen) error {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(screen).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update screen: %w", err)
	}
	return nil
}

// UpdateStatus 更新屏幕状态
func (r *ScreenRepository) UpdateStatus(ctx context.Context, id string, status entity.ScreenStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.UpdateStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Screen{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update screen status: %w", err)
	}
	return nil
}

// Delete 删除屏幕，关联行一并删除
func (r *ScreenRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Where("screen_id = ?", id).Delete(&entity.ScreenRequirement{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete screen requirements: %w", err)
	}
	if err := db.Delete(&entity.Screen{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete screen: %w", err)
	}
	return nil
}

// List 分页查询屏幕
func (r *ScreenRepository) List(ctx context.Context, filter *repository.ScreenFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Screen], error) {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Screen{})
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if q := strings.TrimSpace(filter.Query); q != "" {
			like := "%" + q + "%"
			query = query.Where("name ILIKE ? OR screen_code ILIKE ?", like, like)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count screens: %w", err)
	}

	var screens []*entity.Screen
	if err := query.Order("screen_code ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&screens).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list screens: %w", err)
	}

	return repository.NewPagedResult(screens, total, pagination), nil
}

// CountByStatus 统计屏幕数量
func (r *ScreenRepository) CountByStatus(ctx context.Context, status entity.ScreenStatus) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.CountByStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Screen{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count screens: %w", err)
	}
	return count, nil
}

// SetRequirements 替换屏幕的需求关联，顺序即 position
func (r *ScreenRepository) SetRequirements(ctx context.Context, screenID string, requirementIDs []string) error {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.SetRequirements")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Where("screen_id = ?", screenID).Delete(&entity.ScreenRequirement{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear screen requirements: %w", err)
	}
	if len(requirementIDs) == 0 {
		return nil
	}

	links := make([]entity.ScreenRequirement, 0, len(requirementIDs))
	seen := make(map[string]struct{}, len(requirementIDs))
	for _, id := range requirementIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, entity.ScreenRequirement{
			ScreenID:      screenID,
			RequirementID: id,
			Position:      len(links),
		})
	}
	if err := db.Create(&links).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to link screen requirements: %w", err)
	}
	return nil
}

// ListRequirements 按关联顺序返回需求
func (r *ScreenRepository) ListRequirements(ctx context.Context, screenID string) ([]*entity.Requirement, error) {
	ctx, span := tracer.Start(ctx, "postgres.ScreenRepository.ListRequirements")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var reqs []*entity.Requirement
	if err := db.Model(&entity.Requirement{}).
		Joins("JOIN screen_requirements sr ON sr.requirement_id = requirements.id").
		Where("sr.screen_id = ?", screenID).
		Order("sr.position ASC").
		Find(&reqs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list screen requirements: %w", err)
	}
	return reqs, nil
}
