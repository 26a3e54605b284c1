package dto

import (
	"time"

	"screen-dev-assistant/internal/domain/entity"
)

// JobResponse 任务响应
type JobResponse struct {
	ID               string    `json:"id"`
	ScreenID         string    `json:"screen_id"`
	Mode             string    `json:"mode"`
	Status           string    `json:"status"`
	State            string    `json:"state,omitempty"`
	Attempt          uint64    `json:"attempt"`
	Progress         int       `json:"progress"`
	Code             string    `json:"code,omitempty"`
	ErrorKind        string    `json:"error_kind,omitempty"`
	ErrorMsg         string    `json:"error_msg,omitempty"`
	Provider         string    `json:"provider,omitempty"`
	Model            string    `json:"model,omitempty"`
	TokensPrompt     int       `json:"tokens_prompt,omitempty"`
	TokensCompletion int       `json:"tokens_completion,omitempty"`
	DurationMs       int       `json:"duration_ms,omitempty"`
	StartedAt        time.Time `json:"started_at,omitempty"`
	CompletedAt      time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// JobListResponse 任务列表响应
type JobListResponse struct {
	Jobs []*JobResponse `json:"jobs"`
}

// CancelJobResponse 取消任务响应
type CancelJobResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Cancelled bool   `json:"cancelled"`
}

// ToJobResponse 将领域实体转换为响应 DTO
func ToJobResponse(j *entity.GenerationJob) *JobResponse {
	if j == nil {
		return nil
	}
	return &JobResponse{
		ID:               j.ID,
		ScreenID:         j.ScreenID,
		Mode:             string(j.Mode),
		Status:           string(j.Status),
		State:            j.State,
		Attempt:          j.Attempt,
		Progress:         j.Progress,
		Code:             j.Code,
		ErrorKind:        j.ErrorKind,
		ErrorMsg:         j.ErrorMessage,
		Provider:         j.Provider,
		Model:            j.Model,
		TokensPrompt:     j.TokensPrompt,
		TokensCompletion: j.TokensCompletion,
		DurationMs:       j.DurationMs,
		StartedAt:        derefTime(j.StartedAt),
		CompletedAt:      derefTime(j.CompletedAt),
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

// ToJobListResponse 将领域实体列表转换为响应 DTO
func ToJobListResponse(jobs []*entity.GenerationJob) *JobListResponse {
	resp := &JobListResponse{
		Jobs: make([]*JobResponse, 0, len(jobs)),
	}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, ToJobResponse(j))
	}
	return resp
}
