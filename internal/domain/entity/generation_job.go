package entity

import (
	"time"

	"screen-dev-assistant/internal/domain/codegen"
)

// JobMode 任务执行方式
type JobMode string

const (
	JobModeInline JobMode = "inline"
	JobModeQueued JobMode = "queued"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal 是否为终态
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// GenerationJob 一次代码生成尝试的持久化记录
type GenerationJob struct {
	ID               string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScreenID         string     `json:"screen_id" gorm:"type:uuid;index;not null"`
	Mode             JobMode    `json:"mode" gorm:"type:varchar(16);not null"`
	Status           JobStatus  `json:"status" gorm:"type:varchar(32);index;not null"`
	State            string     `json:"state,omitempty" gorm:"type:varchar(32)"`
	Attempt          uint64     `json:"attempt"`
	Progress         int        `json:"progress" gorm:"default:0"`
	Code             string     `json:"code,omitempty" gorm:"type:text"`
	ErrorKind        string     `json:"error_kind,omitempty" gorm:"type:varchar(64)"`
	ErrorMessage     string     `json:"error_message,omitempty" gorm:"type:text"`
	Provider         string     `json:"provider,omitempty" gorm:"type:varchar(64)"`
	Model            string     `json:"model,omitempty" gorm:"type:varchar(128)"`
	TokensPrompt     int        `json:"tokens_prompt,omitempty"`
	TokensCompletion int        `json:"tokens_completion,omitempty"`
	DurationMs       int        `json:"duration_ms,omitempty"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// TableName 指定表名
func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// NewGenerationJob 创建新任务
func NewGenerationJob(screenID string, mode JobMode) *GenerationJob {
	return &GenerationJob{
		ScreenID:  screenID,
		Mode:      mode,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}
}

// Start 开始执行任务
func (j *GenerationJob) Start(attempt uint64) {
	now := time.Now()
	j.Status = JobStatusRunning
	j.Attempt = attempt
	j.StartedAt = &now
}

// Finish 按生成结果写入终态
func (j *GenerationJob) Finish(result codegen.GenerationResult) {
	now := time.Now()
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}

	if result.Succeeded() {
		j.Status = JobStatusCompleted
		j.Progress = 100
		j.Code = result.Code
		if c := result.Completion; c != nil {
			j.Provider = c.Provider
			j.Model = c.Model
			j.TokensPrompt = c.PromptTokens
			j.TokensCompletion = c.CompletionTokens
		}
		return
	}

	j.Status = JobStatusFailed
	if result.Kind == codegen.KindCancelled {
		j.Status = JobStatusCancelled
	}
	j.ErrorKind = string(result.Kind)
	j.ErrorMessage = result.Reason
}

// Cancel 取消尚未开始的任务
func (j *GenerationJob) Cancel() bool {
	if j.Status != JobStatusPending {
		return false
	}
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	return true
}

// UpdateProgress 更新任务进度
func (j *GenerationJob) UpdateProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
}
