// Package screen 提供屏幕、需求与测试回顾的业务服务
package screen

import (
	"context"
	"errors"
	"strings"
	"time"

	"screen-dev-assistant/internal/config"
	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/infrastructure/persistence/redis"
	apperrors "screen-dev-assistant/pkg/errors"
	"screen-dev-assistant/pkg/logger"
)

// Detail 屏幕详情，需求按关联顺序排列
type Detail struct {
	Screen       *entity.Screen        `json:"screen"`
	Requirements []*entity.Requirement `json:"requirements"`
	DesignURL    string                `json:"design_url,omitempty"`
}

// CreateInput 创建屏幕参数
type CreateInput struct {
	ScreenCode         string
	Name               string
	Description        string
	FigmaURL           string
	FigmaFileID        string
	FigmaNodeID        string
	Status             entity.ScreenStatus
	Overview           string
	AcceptanceCriteria []string
	RecommendedAPIs    []entity.RecommendedAPI
	RequirementIDs     []string
}

// UpdateInput 更新屏幕参数，nil 字段保持不变
type UpdateInput struct {
	Name               *string
	Description        *string
	FigmaURL           *string
	FigmaFileID        *string
	FigmaNodeID        *string
	Overview           *string
	AcceptanceCriteria []string
	RecommendedAPIs    []entity.RecommendedAPI
}

// Service 屏幕服务
type Service struct {
	screens      repository.ScreenRepository
	requirements repository.RequirementRepository
	tx           repository.Transactor
	cache        Cache
	dashboardTTL time.Duration
	detailTTL    time.Duration
}

// NewService 创建屏幕服务，cache 可以为 nil
func NewService(
	screens repository.ScreenRepository,
	requirements repository.RequirementRepository,
	tx repository.Transactor,
	cache Cache,
	cfg config.CacheConfig,
) *Service {
	return &Service{
		screens:      screens,
		requirements: requirements,
		tx:           tx,
		cache:        cache,
		dashboardTTL: cfg.DashboardTTL,
		detailTTL:    cfg.DetailTTL,
	}
}

// resolveDesign 优先使用 Figma 链接，其次使用显式的文件与节点
func resolveDesign(figmaURL, fileID, nodeID string) (domain.DesignReference, error) {
	if u := strings.TrimSpace(figmaURL); u != "" {
		ref, err := domain.ParseDesignURL(u)
		if err != nil {
			return ref, apperrors.ErrInvalidParam.WithDetail(err.Error())
		}
		return ref, nil
	}
	return domain.DesignReference{FileID: strings.TrimSpace(fileID), NodeID: strings.TrimSpace(nodeID)}, nil
}

// checkRequirements 校验需求全部存在
func (s *Service) checkRequirements(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.requirements.GetByIDs(ctx, ids)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load requirements")
	}
	seen := make(map[string]bool, len(found))
	for _, r := range found {
		seen[r.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			return apperrors.ErrRequirementNotFound.WithDetail(id)
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, screenID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateScreen(ctx, screenID); err != nil {
		logger.Warn(ctx, "failed to invalidate screen cache", "screen_id", screenID, "error", err.Error())
	}
}

// Create 创建屏幕并按顺序关联需求
func (s *Service) Create(ctx context.Context, in CreateInput) (*Detail, error) {
	code := strings.TrimSpace(in.ScreenCode)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("screen_code and name are required")
	}
	status := in.Status
	if status == "" {
		status = entity.ScreenStatusPending
	}
	if !status.Valid() {
		return nil, apperrors.ErrInvalidParam.WithDetail("invalid status: " + string(status))
	}
	ref, err := resolveDesign(in.FigmaURL, in.FigmaFileID, in.FigmaNodeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.screens.GetByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to check screen code")
	}
	if existing != nil {
		return nil, apperrors.ErrConflict.WithDetail("screen_code already exists: " + code)
	}
	if err := s.checkRequirements(ctx, in.RequirementIDs); err != nil {
		return nil, err
	}

	screen := entity.NewScreen(code, name)
	screen.Description = in.Description
	screen.Status = status
	screen.Overview = in.Overview
	screen.AcceptanceCriteria = in.AcceptanceCriteria
	screen.RecommendedAPIs = in.RecommendedAPIs
	screen.SetDesign(ref)

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.screens.Create(txCtx, screen); err != nil {
			return err
		}
		return s.screens.SetRequirements(txCtx, screen.ID, in.RequirementIDs)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperrors.ErrConflict.WithDetail("screen_code already exists: " + code)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create screen")
	}

	s.invalidate(ctx, screen.ID)
	logger.Info(ctx, "screen created", "screen_id", screen.ID, "screen_code", code)
	return s.detail(ctx, screen.ID)
}

func (s *Service) load(ctx context.Context, id string) (*entity.Screen, error) {
	screen, err := s.screens.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load screen")
	}
	if screen == nil {
		return nil, apperrors.ErrScreenNotFound
	}
	return screen, nil
}

func (s *Service) detail(ctx context.Context, id string) (*Detail, error) {
	screen, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	reqs, err := s.screens.ListRequirements(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load requirements")
	}
	if reqs == nil {
		reqs = []*entity.Requirement{}
	}
	return &Detail{Screen: screen, Requirements: reqs, DesignURL: screen.DesignURL()}, nil
}

// Get 获取屏幕详情
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	return loadCached(ctx, s.cache, redis.ScreenKey(id), s.detailTTL, func() (*Detail, error) {
		return s.detail(ctx, id)
	})
}

// Update 更新屏幕基本信息
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Detail, error) {
	screen, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.ErrInvalidParam.WithDetail("name cannot be empty")
		}
		screen.Name = name
	}
	if in.Description != nil {
		screen.Description = *in.Description
	}
	if in.Overview != nil {
		screen.Overview = *in.Overview
	}
	if in.AcceptanceCriteria != nil {
		screen.AcceptanceCriteria = in.AcceptanceCriteria
	}
	if in.RecommendedAPIs != nil {
		screen.RecommendedAPIs = in.RecommendedAPIs
	}
	if in.FigmaURL != nil || in.FigmaFileID != nil || in.FigmaNodeID != nil {
		cur := screen.DesignReference()
		ref, err := resolveDesign(deref(in.FigmaURL, ""), deref(in.FigmaFileID, cur.FileID), deref(in.FigmaNodeID, cur.NodeID))
		if err != nil {
			return nil, err
		}
		screen.SetDesign(ref)
	}

	if err := s.screens.Update(ctx, screen); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update screen")
	}
	s.invalidate(ctx, id)
	return s.detail(ctx, id)
}

func deref(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// UpdateStatus 更新屏幕开发状态
func (s *Service) UpdateStatus(ctx context.Context, id string, status entity.ScreenStatus) (*entity.Screen, error) {
	if !status.Valid() {
		return nil, apperrors.ErrInvalidParam.WithDetail("invalid status: " + string(status))
	}
	screen, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.screens.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update screen status")
	}
	screen.Status = status
	s.invalidate(ctx, id)
	return screen, nil
}

// Delete 删除屏幕
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.screens.Delete(txCtx, id)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete screen")
	}
	s.invalidate(ctx, id)
	logger.Info(ctx, "screen deleted", "screen_id", id)
	return nil
}

// SetRequirements 替换屏幕的有序需求列表
func (s *Service) SetRequirements(ctx context.Context, id string, requirementIDs []string) (*Detail, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkRequirements(ctx, requirementIDs); err != nil {
		return nil, err
	}
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.screens.SetRequirements(txCtx, id, requirementIDs)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to set requirements")
	}
	s.invalidate(ctx, id)
	return s.detail(ctx, id)
}

// List 分页查询屏幕
func (s *Service) List(ctx context.Context, filter *repository.ScreenFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Screen], error) {
	if filter != nil && filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.ErrInvalidParam.WithDetail("invalid status: " + string(filter.Status))
	}
	result, err := s.screens.List(ctx, filter, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list screens")
	}
	return result, nil
}
