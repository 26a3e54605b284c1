package codegen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/infrastructure/messaging"
	apperrors "screen-dev-assistant/pkg/errors"
	"screen-dev-assistant/pkg/logger"
)

// JobQueue 代码生成任务队列
type JobQueue interface {
	PublishCodegenJob(ctx context.Context, job *messaging.CodegenJobMessage) (string, error)
}

// stateProgress 各状态对应的任务进度
var stateProgress = map[State]int{
	StateFetchingImage: 10,
	StateAssembling:    40,
	StateGenerating:    50,
	StateSucceeded:     100,
}

// StartResult 异步触发的返回
type StartResult struct {
	Snapshot Snapshot              `json:"snapshot"`
	Job      *entity.GenerationJob `json:"job"`
}

// GenerateResult 同步生成的返回
type GenerateResult struct {
	Result   domain.GenerationResult `json:"result"`
	Snapshot Snapshot                `json:"snapshot"`
	Job      *entity.GenerationJob   `json:"job"`
}

// PromptPreview 提示词预览
type PromptPreview struct {
	SystemInstruction string `json:"system_instruction"`
	Text              string `json:"text"`
	DesignURL         string `json:"design_url,omitempty"`
}

// Service 屏幕代码生成服务
type Service struct {
	screens  repository.ScreenRepository
	jobs     repository.JobRepository
	sessions *Sessions
	queue    JobQueue

	wg sync.WaitGroup
}

// NewService 创建代码生成服务，queue 为 nil 时不支持排队模式
func NewService(screens repository.ScreenRepository, jobs repository.JobRepository, sessions *Sessions, queue JobQueue) *Service {
	return &Service{
		screens:  screens,
		jobs:     jobs,
		sessions: sessions,
		queue:    queue,
	}
}

// Wait 等待后台尝试结束，用于优雅退出
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) loadScreen(ctx context.Context, screenID string) (*entity.Screen, error) {
	screen, err := s.screens.GetByID(ctx, screenID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load screen")
	}
	if screen == nil {
		return nil, apperrors.ErrScreenNotFound
	}
	return screen, nil
}

// loadInput 加载屏幕与有序需求，组成一次尝试的输入
func (s *Service) loadInput(ctx context.Context, screenID string) (Input, error) {
	screen, err := s.loadScreen(ctx, screenID)
	if err != nil {
		return Input{}, err
	}
	reqs, err := s.screens.ListRequirements(ctx, screenID)
	if err != nil {
		return Input{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load requirements")
	}
	return Input{
		Reference:    screen.DesignReference(),
		ScreenName:   screen.Name,
		Requirements: entity.RequirementSummaries(reqs),
	}, nil
}

// progressObserver 把状态迁移同步到任务记录
func (s *Service) progressObserver(ctx context.Context, jobID string) Observer {
	return func(tr Transition) {
		if tr.Event == EventTrigger || tr.To == StateFailed {
			return
		}
		progress, ok := stateProgress[tr.To]
		if !ok {
			return
		}
		if err := s.jobs.UpdateProgress(ctx, jobID, progress, string(tr.To)); err != nil {
			logger.Warn(ctx, "failed to update job progress", "job_id", jobID, "state", tr.To, "error", err.Error())
		}
	}
}

// begin 触发尝试并写入任务记录
func (s *Service) begin(ctx, runCtx context.Context, screenID string, mode entity.JobMode) (*Attempt, *entity.GenerationJob, error) {
	job := entity.NewGenerationJob(screenID, mode)
	job.ID = uuid.NewString()

	orch := s.sessions.GetOrCreate(screenID)
	attempt, err := orch.Begin(runCtx, s.progressObserver(context.WithoutCancel(ctx), job.ID))
	if err != nil {
		if errors.Is(err, domain.ErrAttemptInFlight) {
			return nil, nil, apperrors.ErrGenerationInProgress
		}
		return nil, nil, err
	}

	job.Start(attempt.ID())
	job.State = string(StateFetchingImage)
	job.UpdateProgress(stateProgress[StateFetchingImage])
	if err := s.jobs.Create(ctx, job); err != nil {
		attempt.Abort(err)
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create job")
	}
	return attempt, job, nil
}

// finish 写入任务终态
func (s *Service) finish(ctx context.Context, job *entity.GenerationJob, result domain.GenerationResult) {
	job.Finish(result)
	if result.Succeeded() {
		job.State = string(StateSucceeded)
	} else {
		job.State = string(StateFailed)
	}
	switch err := s.jobs.Update(ctx, job); {
	case errors.Is(err, repository.ErrJobFinished):
		logger.Warn(ctx, "job was finished elsewhere, result dropped", "job_id", job.ID, "status", job.Status)
		return
	case err != nil:
		logger.Error(ctx, "failed to persist job result", err, "job_id", job.ID)
	}

	if result.Succeeded() {
		logger.Info(ctx, "code generation succeeded", "job_id", job.ID, "attempt", job.Attempt, "duration_ms", job.DurationMs)
		return
	}
	logger.Warn(ctx, "code generation failed", "job_id", job.ID, "attempt", job.Attempt, "kind", result.Kind, "reason", result.Reason)
}

// Start 在后台触发一次生成，尝试不随请求结束而取消
func (s *Service) Start(ctx context.Context, screenID string) (*StartResult, error) {
	in, err := s.loadInput(ctx, screenID)
	if err != nil {
		return nil, err
	}

	bg := context.WithoutCancel(ctx)
	attempt, job, err := s.begin(ctx, bg, screenID, entity.JobModeInline)
	if err != nil {
		return nil, err
	}
	accepted := *job

	bg = logger.WithContext(bg, logger.JobIDKey, job.ID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result := attempt.Execute(in)
		s.finish(bg, job, result)
	}()

	return &StartResult{
		Snapshot: s.sessions.GetOrCreate(screenID).Snapshot(),
		Job:      &accepted,
	}, nil
}

// Generate 同步执行一次生成，流程失败体现在结果中而不是错误中
func (s *Service) Generate(ctx context.Context, screenID string) (*GenerateResult, error) {
	in, err := s.loadInput(ctx, screenID)
	if err != nil {
		return nil, err
	}

	attempt, job, err := s.begin(ctx, ctx, screenID, entity.JobModeInline)
	if err != nil {
		return nil, err
	}

	result := attempt.Execute(in)
	s.finish(logger.WithContext(context.WithoutCancel(ctx), logger.JobIDKey, job.ID), job, result)

	return &GenerateResult{
		Result:   result,
		Snapshot: s.sessions.GetOrCreate(screenID).Snapshot(),
		Job:      job,
	}, nil
}

// Enqueue 创建排队任务并投递给 worker
func (s *Service) Enqueue(ctx context.Context, screenID string) (*entity.GenerationJob, error) {
	if s.queue == nil {
		return nil, apperrors.ErrQueueUnavailable
	}
	if _, err := s.loadScreen(ctx, screenID); err != nil {
		return nil, err
	}

	job := entity.NewGenerationJob(screenID, entity.JobModeQueued)
	job.ID = uuid.NewString()
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create job")
	}

	if _, err := s.queue.PublishCodegenJob(ctx, &messaging.CodegenJobMessage{JobID: job.ID, ScreenID: screenID}); err != nil {
		job.Finish(domain.Failure(fmt.Errorf("enqueue: %w", err)))
		if uerr := s.jobs.Update(ctx, job); uerr != nil {
			logger.Error(ctx, "failed to mark job failed", uerr, "job_id", job.ID)
		}
		return nil, apperrors.ErrQueueUnavailable.WithError(err)
	}

	logger.Info(ctx, "codegen job enqueued", "job_id", job.ID, "screen_id", screenID)
	return job, nil
}

// RunJob 执行一条排队任务；返回错误表示消息需要重新投递
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	if job == nil {
		logger.Warn(ctx, "job not found, dropping message", "job_id", jobID)
		return nil
	}
	if job.Status != entity.JobStatusPending {
		logger.Info(ctx, "job no longer pending, skipping", "job_id", jobID, "status", job.Status)
		return nil
	}

	in, err := s.loadInput(ctx, job.ScreenID)
	if err != nil {
		if errors.Is(err, apperrors.ErrScreenNotFound) {
			s.finish(ctx, job, domain.Failure(err))
			return nil
		}
		return err
	}

	orch := s.sessions.GetOrCreate(job.ScreenID)
	attempt, err := orch.Begin(ctx, s.progressObserver(ctx, job.ID))
	if err != nil {
		return fmt.Errorf("begin attempt: %w", err)
	}

	job.Start(attempt.ID())
	job.State = string(StateFetchingImage)
	job.UpdateProgress(stateProgress[StateFetchingImage])
	if err := s.jobs.Update(ctx, job); err != nil {
		attempt.Abort(err)
		if errors.Is(err, repository.ErrJobFinished) {
			// 排队期间已被取消
			logger.Info(ctx, "job finished before start, skipping", "job_id", jobID)
			return nil
		}
		return fmt.Errorf("mark job running: %w", err)
	}

	s.finish(ctx, job, attempt.Execute(in))
	return nil
}

// Status 返回屏幕编排器快照。本进程没有编排器时（例如任务由 worker 执行）
// 由最近一次已开始的任务记录还原，从未触发过时为 idle
func (s *Service) Status(ctx context.Context, screenID string) (Snapshot, error) {
	if _, err := s.loadScreen(ctx, screenID); err != nil {
		return Snapshot{}, err
	}
	if orch, ok := s.sessions.Get(screenID); ok {
		return orch.Snapshot(), nil
	}

	job, err := s.jobs.LatestByScreen(ctx, screenID)
	if err != nil {
		return Snapshot{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load latest job")
	}
	return snapshotFromJob(job), nil
}

func snapshotFromJob(job *entity.GenerationJob) Snapshot {
	if job == nil || job.State == "" {
		return Snapshot{State: StateIdle}
	}
	return Snapshot{
		State:     State(job.State),
		Attempt:   job.Attempt,
		Code:      job.Code,
		Reason:    job.ErrorMessage,
		Kind:      domain.ErrorKind(job.ErrorKind),
		UpdatedAt: job.UpdatedAt,
	}
}

// Cancel 取消屏幕进行中的尝试
func (s *Service) Cancel(ctx context.Context, screenID string) (bool, error) {
	if _, err := s.loadScreen(ctx, screenID); err != nil {
		return false, err
	}
	orch, ok := s.sessions.Get(screenID)
	if !ok {
		return false, nil
	}
	return orch.Cancel(), nil
}

// Forget 丢弃屏幕的编排器，屏幕删除后调用
func (s *Service) Forget(screenID string) {
	s.sessions.Forget(screenID)
}

// GetJob 获取任务
func (s *Service) GetJob(ctx context.Context, jobID string) (*entity.GenerationJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load job")
	}
	if job == nil {
		return nil, apperrors.ErrJobNotFound
	}
	return job, nil
}

// ListJobs 分页查询屏幕的任务
func (s *Service) ListJobs(ctx context.Context, screenID string, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	if _, err := s.loadScreen(ctx, screenID); err != nil {
		return nil, err
	}
	result, err := s.jobs.ListByScreen(ctx, screenID, filter, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list jobs")
	}
	return result, nil
}

// CancelJob 取消任务：排队中的直接取消，本进程执行中的取消编排器
func (s *Service) CancelJob(ctx context.Context, jobID string) (*entity.GenerationJob, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch {
	case job.Status == entity.JobStatusCancelled:
		return job, nil
	case job.Cancel():
		err := s.jobs.Update(ctx, job)
		if errors.Is(err, repository.ErrJobFinished) {
			return nil, apperrors.ErrJobNotCancellable
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to cancel job")
		}
		return job, nil
	case job.Status == entity.JobStatusRunning && job.Mode == entity.JobModeInline:
		orch, ok := s.sessions.Get(job.ScreenID)
		if ok && orch.Snapshot().Attempt == job.Attempt && orch.Cancel() {
			return job, nil
		}
	}
	return nil, apperrors.ErrJobNotCancellable
}

// PreviewPrompt 返回将发送给模型的系统指令与文本块
func (s *Service) PreviewPrompt(ctx context.Context, screenID string) (*PromptPreview, error) {
	screen, err := s.loadScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}
	reqs, err := s.screens.ListRequirements(ctx, screenID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load requirements")
	}
	return &PromptPreview{
		SystemInstruction: SystemInstruction,
		Text:              BuildText(screen.Name, entity.RequirementSummaries(reqs)),
		DesignURL:         screen.DesignURL(),
	}, nil
}
