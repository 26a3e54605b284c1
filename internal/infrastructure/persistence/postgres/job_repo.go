package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
)

// activeJobStatuses 仍可被改写的任务状态
var activeJobStatuses = []entity.JobStatus{entity.JobStatusPending, entity.JobStatusRunning}

// JobRepository 生成任务仓储实现
type JobRepository struct {
	client *Client
}

// NewJobRepository 创建生成任务仓储
func NewJobRepository(client *Client) *JobRepository {
	return &JobRepository{client: client}
}

// Create 创建任务
func (r *JobRepository) Create(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("create job for screen %s: %w", job.ScreenID, err)
	}
	span.SetAttributes(attribute.String("job.id", job.ID))
	return nil
}

// GetByID 根据 ID 获取任务，不存在时返回 nil
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetByID")
	defer span.End()

	var job entity.GenerationJob
	err := getDB(ctx, r.client.db).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, nil
}

// Update 整行写回任务。
// 只改写仍处于 pending 或 running 的记录：排队中被取消的任务不会被 worker 改回 running，
// 已写入的终态也不会被迟到的结果覆盖。
func (r *JobRepository) Update(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Update")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("job.status", string(job.Status)),
	)

	res := getDB(ctx, r.client.db).
		Model(&entity.GenerationJob{}).
		Where("id = ? AND status IN ?", job.ID, activeJobStatuses).
		Select("*").
		Omit("id", "created_at").
		Updates(job)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("update job %s: %w", job.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrJobFinished
	}
	return nil
}

// UpdateProgress 更新运行中任务的进度，非 running 的记录保持不变
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int, state string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.UpdateProgress")
	defer span.End()
	span.SetAttributes(attribute.String("job.state", state))

	err := getDB(ctx, r.client.db).
		Model(&entity.GenerationJob{}).
		Where("id = ? AND status = ?", id, entity.JobStatusRunning).
		Updates(map[string]any{"progress": progress, "state": state}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("update progress of job %s: %w", id, err)
	}
	return nil
}

// ListByScreen 获取屏幕的任务列表，按创建时间倒序
func (r *JobRepository) ListByScreen(ctx context.Context, screenID string, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.ListByScreen")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&entity.GenerationJob{}).Where("screen_id = ?", screenID)
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Mode != "" {
			query = query.Where("mode = ?", filter.Mode)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("count jobs of screen %s: %w", screenID, err)
	}

	// 列表不返回生成的代码，详情接口再取
	var jobs []*entity.GenerationJob
	if err := query.Omit("code").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&jobs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list jobs of screen %s: %w", screenID, err)
	}
	return repository.NewPagedResult(jobs, total, pagination), nil
}

// LatestByScreen 获取屏幕最近一次已开始的任务，没有时返回 nil
func (r *JobRepository) LatestByScreen(ctx context.Context, screenID string) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.LatestByScreen")
	defer span.End()

	var job entity.GenerationJob
	err := getDB(ctx, r.client.db).
		Where("screen_id = ? AND started_at IS NOT NULL", screenID).
		Order("started_at DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get latest job of screen %s: %w", screenID, err)
	}
	return &job, nil
}
