package dto

import (
	"time"

	"screen-dev-assistant/internal/application/screen"
	"screen-dev-assistant/internal/domain/entity"
)

// RecordTestRunRequest 记录测试运行请求
type RecordTestRunRequest struct {
	RunAt     time.Time         `json:"run_at"`
	Cases     []entity.TestCase `json:"cases" binding:"required,min=1"`
	ErrorLogs []entity.ErrorLog `json:"error_logs"`
}

// ToInput 转换为服务层输入
func (r *RecordTestRunRequest) ToInput() screen.RecordRunInput {
	return screen.RecordRunInput{
		RunAt:     r.RunAt,
		Cases:     r.Cases,
		ErrorLogs: r.ErrorLogs,
	}
}

// TestRunResponse 测试运行响应
type TestRunResponse struct {
	ID        string             `json:"id"`
	ScreenID  string             `json:"screen_id"`
	RunAt     time.Time          `json:"run_at"`
	Summary   entity.TestSummary `json:"summary"`
	Cases     []entity.TestCase  `json:"cases"`
	ErrorLogs []entity.ErrorLog  `json:"error_logs,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// TestRunListResponse 测试运行列表响应
type TestRunListResponse struct {
	Runs []*TestRunResponse `json:"runs"`
}

// ToTestRunResponse 将领域实体转换为响应 DTO
func ToTestRunResponse(r *entity.TestRun) *TestRunResponse {
	if r == nil {
		return nil
	}
	return &TestRunResponse{
		ID:        r.ID,
		ScreenID:  r.ScreenID,
		RunAt:     r.RunAt,
		Summary:   r.Summary,
		Cases:     r.Cases,
		ErrorLogs: r.ErrorLogs,
		CreatedAt: r.CreatedAt,
	}
}

// ToTestRunListResponse 转换测试运行列表
func ToTestRunListResponse(runs []*entity.TestRun) *TestRunListResponse {
	resp := &TestRunListResponse{
		Runs: make([]*TestRunResponse, 0, len(runs)),
	}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, ToTestRunResponse(r))
	}
	return resp
}
