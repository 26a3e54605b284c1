package dto

import (
	"time"

	"screen-dev-assistant/internal/application/screen"
	"screen-dev-assistant/internal/domain/entity"
)

// RequirementRequest 创建或更新需求请求
type RequirementRequest struct {
	RequirementCode string `json:"requirement_code" binding:"required,max=64"`
	Overview        string `json:"overview" binding:"required,max=500"`
	Context         string `json:"context"`
}

// ToInput 转换为服务层输入
func (r *RequirementRequest) ToInput() screen.RequirementInput {
	return screen.RequirementInput{
		RequirementCode: r.RequirementCode,
		Overview:        r.Overview,
		Context:         r.Context,
	}
}

// RequirementResponse 需求响应
type RequirementResponse struct {
	ID              string    `json:"id"`
	RequirementCode string    `json:"requirement_code"`
	Overview        string    `json:"overview"`
	Context         string    `json:"context,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RequirementListResponse 需求列表响应
type RequirementListResponse struct {
	Requirements []*RequirementResponse `json:"requirements"`
}

// ToRequirementResponse 将领域实体转换为响应 DTO
func ToRequirementResponse(r *entity.Requirement) *RequirementResponse {
	if r == nil {
		return nil
	}
	return &RequirementResponse{
		ID:              r.ID,
		RequirementCode: r.RequirementCode,
		Overview:        r.Overview,
		Context:         r.Context,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ToRequirementResponses 保持顺序转换需求列表
func ToRequirementResponses(reqs []*entity.Requirement) []*RequirementResponse {
	out := make([]*RequirementResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, ToRequirementResponse(r))
	}
	return out
}
