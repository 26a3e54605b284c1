package screen

import (
	"context"
	"errors"
	"strings"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/infrastructure/persistence/redis"
	apperrors "screen-dev-assistant/pkg/errors"
	"screen-dev-assistant/pkg/logger"
)

// RequirementInput 需求写入参数
type RequirementInput struct {
	RequirementCode string
	Overview        string
	Context         string
}

// RequirementService 需求服务
type RequirementService struct {
	requirements repository.RequirementRepository
	tx           repository.Transactor
	cache        Cache
}

// NewRequirementService 创建需求服务
func NewRequirementService(requirements repository.RequirementRepository, tx repository.Transactor, cache Cache) *RequirementService {
	return &RequirementService{requirements: requirements, tx: tx, cache: cache}
}

// invalidateAll 需求变化会影响所有引用它的屏幕详情
func (s *RequirementService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePattern(ctx, redis.ScreenKey("*")); err != nil {
		logger.Warn(ctx, "failed to invalidate screen cache", "error", err.Error())
	}
	if err := s.cache.Delete(ctx, redis.DashboardKey()); err != nil {
		logger.Warn(ctx, "failed to invalidate dashboard cache", "error", err.Error())
	}
}

// Create 创建需求
func (s *RequirementService) Create(ctx context.Context, in RequirementInput) (*entity.Requirement, error) {
	code := strings.TrimSpace(in.RequirementCode)
	overview := strings.TrimSpace(in.Overview)
	if code == "" || overview == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("requirement_code and overview are required")
	}

	existing, err := s.requirements.GetByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to check requirement code")
	}
	if existing != nil {
		return nil, apperrors.ErrConflict.WithDetail("requirement_code already exists: " + code)
	}

	req := &entity.Requirement{RequirementCode: code, Overview: overview, Context: in.Context}
	if err := s.requirements.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrConflict.WithDetail("requirement_code already exists: " + code)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create requirement")
	}
	s.invalidateAll(ctx)
	return req, nil
}

// Get 获取需求
func (s *RequirementService) Get(ctx context.Context, id string) (*entity.Requirement, error) {
	req, err := s.requirements.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load requirement")
	}
	if req == nil {
		return nil, apperrors.ErrRequirementNotFound
	}
	return req, nil
}

// Update 更新需求，空字段保持不变
func (s *RequirementService) Update(ctx context.Context, id string, in RequirementInput) (*entity.Requirement, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if code := strings.TrimSpace(in.RequirementCode); code != "" {
		req.RequirementCode = code
	}
	if overview := strings.TrimSpace(in.Overview); overview != "" {
		req.Overview = overview
	}
	if in.Context != "" {
		req.Context = in.Context
	}
	if err := s.requirements.Update(ctx, req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update requirement")
	}
	s.invalidateAll(ctx)
	return req, nil
}

// Delete 删除需求及其屏幕关联
func (s *RequirementService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.requirements.Delete(txCtx, id)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete requirement")
	}
	s.invalidateAll(ctx)
	return nil
}

// Search 按概述搜索需求
func (s *RequirementService) Search(ctx context.Context, query string, pagination repository.Pagination) (*repository.PagedResult[*entity.Requirement], error) {
	result, err := s.requirements.Search(ctx, query, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to search requirements")
	}
	return result, nil
}
