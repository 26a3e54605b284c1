package repository

import (
	"context"
	"errors"

	"screen-dev-assistant/internal/domain/entity"
)

// ErrJobFinished 任务已处于终态，写入被拒绝
var ErrJobFinished = errors.New("job already finished")

// JobFilter 任务过滤条件
type JobFilter struct {
	Status entity.JobStatus
	Mode   entity.JobMode
}

// JobRepository 生成任务仓储接口
type JobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.GenerationJob) error

	// GetByID 根据 ID 获取任务
	GetByID(ctx context.Context, id string) (*entity.GenerationJob, error)

	// Update 更新任务；库中记录已是终态时返回 ErrJobFinished
	Update(ctx context.Context, job *entity.GenerationJob) error

	// UpdateProgress 更新运行中任务的进度与编排状态
	UpdateProgress(ctx context.Context, id string, progress int, state string) error

	// ListByScreen 获取屏幕的任务列表，按创建时间倒序，不含生成的代码
	ListByScreen(ctx context.Context, screenID string, filter *JobFilter, pagination Pagination) (*PagedResult[*entity.GenerationJob], error)

	// LatestByScreen 获取屏幕最近一次已开始的任务
	LatestByScreen(ctx context.Context, screenID string) (*entity.GenerationJob, error)
}
