package screen

import (
	"context"
	"time"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/infrastructure/persistence/redis"
	apperrors "screen-dev-assistant/pkg/errors"
)

// RecordRunInput 记录测试运行参数
type RecordRunInput struct {
	RunAt     time.Time
	Cases     []entity.TestCase
	ErrorLogs []entity.ErrorLog
}

// ReviewService 测试回顾服务
type ReviewService struct {
	screens repository.ScreenRepository
	runs    repository.TestRunRepository
	cache   Cache
	ttl     time.Duration
}

// NewReviewService 创建测试回顾服务
func NewReviewService(screens repository.ScreenRepository, runs repository.TestRunRepository, cache Cache, ttl time.Duration) *ReviewService {
	return &ReviewService{screens: screens, runs: runs, cache: cache, ttl: ttl}
}

func (s *ReviewService) ensureScreen(ctx context.Context, screenID string) error {
	screen, err := s.screens.GetByID(ctx, screenID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load screen")
	}
	if screen == nil {
		return apperrors.ErrScreenNotFound
	}
	return nil
}

// RecordRun 记录一次测试运行，汇总由用例计算
func (s *ReviewService) RecordRun(ctx context.Context, screenID string, in RecordRunInput) (*entity.TestRun, error) {
	if len(in.Cases) == 0 {
		return nil, apperrors.ErrInvalidParam.WithDetail("at least one test case is required")
	}
	for _, c := range in.Cases {
		switch c.Status {
		case entity.TestCasePassed, entity.TestCaseFailed, entity.TestCaseSkipped:
		default:
			return nil, apperrors.ErrInvalidParam.WithDetail("invalid test case status: " + string(c.Status))
		}
	}
	if err := s.ensureScreen(ctx, screenID); err != nil {
		return nil, err
	}

	run := entity.NewTestRun(screenID, in.RunAt, in.Cases, in.ErrorLogs)
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to record test run")
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, redis.ReviewKey(screenID))
	}
	return run, nil
}

// Latest 获取屏幕最近一次测试运行
func (s *ReviewService) Latest(ctx context.Context, screenID string) (*entity.TestRun, error) {
	return loadCached(ctx, s.cache, redis.ReviewKey(screenID), s.ttl, func() (*entity.TestRun, error) {
		if err := s.ensureScreen(ctx, screenID); err != nil {
			return nil, err
		}
		run, err := s.runs.Latest(ctx, screenID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load test run")
		}
		if run == nil {
			return nil, apperrors.ErrTestRunNotFound
		}
		return run, nil
	})
}

// List 分页查询测试运行
func (s *ReviewService) List(ctx context.Context, screenID string, pagination repository.Pagination) (*repository.PagedResult[*entity.TestRun], error) {
	if err := s.ensureScreen(ctx, screenID); err != nil {
		return nil, err
	}
	result, err := s.runs.ListByScreen(ctx, screenID, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list test runs")
	}
	return result, nil
}
