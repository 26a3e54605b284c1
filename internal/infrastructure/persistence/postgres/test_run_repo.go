package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
)

// TestRunRepository 测试运行仓储实现
type TestRunRepository struct {
	client *Client
}

// NewTestRunRepository 创建测试运行仓储
func NewTestRunRepository(client *Client) *TestRunRepository {
	return &TestRunRepository{client: client}
}

// Create 记录一次测试运行
func (r *TestRunRepository) Create(ctx context.Context, run *entity.TestRun) error {
	ctx, span := tracer.Start(ctx, "postgres.TestRunRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(run).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create test run: %w", err)
	}
	return nil
}

// Latest 获取最近一次运行
func (r *TestRunRepository) Latest(ctx context.Context, screenID string) (*entity.TestRun, error) {
	ctx, span := tracer.Start(ctx, "postgres.TestRunRepository.Latest")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var run entity.TestRun
	if err := db.Where("screen_id = ?", screenID).Order("run_at DESC").First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get latest test run: %w", err)
	}
	return &run, nil
}

// ListByScreen 分页查询屏幕的测试运行
func (r *TestRunRepository) ListByScreen(ctx context.Context, screenID string, pagination repository.Pagination) (*repository.PagedResult[*entity.TestRun], error) {
	ctx, span := tracer.Start(ctx, "postgres.TestRunRepository.ListByScreen")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.TestRun{}).Where("screen_id = ?", screenID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count test runs: %w", err)
	}

	var runs []*entity.TestRun
	if err := query.Order("run_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&runs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list test runs: %w", err)
	}

	return repository.NewPagedResult(runs, total, pagination), nil
}
