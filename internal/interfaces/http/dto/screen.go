package dto

import (
	"time"

	"screen-dev-assistant/internal/application/screen"
	"screen-dev-assistant/internal/domain/entity"
)

// CreateScreenRequest 创建屏幕请求
// figma_url 与 figma_file_id/figma_node_id 二选一
type CreateScreenRequest struct {
	ScreenCode         string                  `json:"screen_code" binding:"required,max=64"`
	Name               string                  `json:"name" binding:"required,max=255"`
	Description        string                  `json:"description"`
	FigmaURL           string                  `json:"figma_url"`
	FigmaFileID        string                  `json:"figma_file_id"`
	FigmaNodeID        string                  `json:"figma_node_id"`
	Status             string                  `json:"status"`
	Overview           string                  `json:"overview"`
	AcceptanceCriteria []string                `json:"acceptance_criteria"`
	RecommendedAPIs    []entity.RecommendedAPI `json:"recommended_apis"`
	RequirementIDs     []string                `json:"requirement_ids"`
}

// ToInput 转换为服务层输入
func (r *CreateScreenRequest) ToInput() screen.CreateInput {
	return screen.CreateInput{
		ScreenCode:         r.ScreenCode,
		Name:               r.Name,
		Description:        r.Description,
		FigmaURL:           r.FigmaURL,
		FigmaFileID:        r.FigmaFileID,
		FigmaNodeID:        r.FigmaNodeID,
		Status:             entity.ScreenStatus(r.Status),
		Overview:           r.Overview,
		AcceptanceCriteria: r.AcceptanceCriteria,
		RecommendedAPIs:    r.RecommendedAPIs,
		RequirementIDs:     r.RequirementIDs,
	}
}

// UpdateScreenRequest 更新屏幕请求，缺省字段保持不变
type UpdateScreenRequest struct {
	Name               *string                 `json:"name" binding:"omitempty,max=255"`
	Description        *string                 `json:"description"`
	FigmaURL           *string                 `json:"figma_url"`
	FigmaFileID        *string                 `json:"figma_file_id"`
	FigmaNodeID        *string                 `json:"figma_node_id"`
	Overview           *string                 `json:"overview"`
	AcceptanceCriteria []string                `json:"acceptance_criteria"`
	RecommendedAPIs    []entity.RecommendedAPI `json:"recommended_apis"`
}

// ToInput 转换为服务层输入
func (r *UpdateScreenRequest) ToInput() screen.UpdateInput {
	return screen.UpdateInput{
		Name:               r.Name,
		Description:        r.Description,
		FigmaURL:           r.FigmaURL,
		FigmaFileID:        r.FigmaFileID,
		FigmaNodeID:        r.FigmaNodeID,
		Overview:           r.Overview,
		AcceptanceCriteria: r.AcceptanceCriteria,
		RecommendedAPIs:    r.RecommendedAPIs,
	}
}

// UpdateScreenStatusRequest 更新屏幕状态请求
type UpdateScreenStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetRequirementsRequest 替换屏幕需求请求
type SetRequirementsRequest struct {
	RequirementIDs []string `json:"requirement_ids"`
}

// ScreenResponse 屏幕响应
type ScreenResponse struct {
	ID                 string                  `json:"id"`
	ScreenCode         string                  `json:"screen_code"`
	Name               string                  `json:"name"`
	Description        string                  `json:"description,omitempty"`
	FigmaFileID        string                  `json:"figma_file_id,omitempty"`
	FigmaNodeID        string                  `json:"figma_node_id,omitempty"`
	DesignURL          string                  `json:"design_url,omitempty"`
	Status             string                  `json:"status"`
	Overview           string                  `json:"overview,omitempty"`
	AcceptanceCriteria []string                `json:"acceptance_criteria,omitempty"`
	RecommendedAPIs    []entity.RecommendedAPI `json:"recommended_apis,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// ScreenDetailResponse 屏幕详情响应
type ScreenDetailResponse struct {
	*ScreenResponse
	Requirements []*RequirementResponse `json:"requirements"`
}

// ScreenListResponse 屏幕列表响应
type ScreenListResponse struct {
	Screens []*ScreenResponse `json:"screens"`
}

// DashboardResponse 看板响应
type DashboardResponse struct {
	TotalScreens      int64            `json:"total_screens"`
	TotalRequirements int64            `json:"total_requirements"`
	ByStatus          map[string]int64 `json:"by_status"`
	CompletionRate    int              `json:"completion_rate"`
}

// ToScreenResponse 将领域实体转换为响应 DTO
func ToScreenResponse(s *entity.Screen) *ScreenResponse {
	if s == nil {
		return nil
	}
	return &ScreenResponse{
		ID:                 s.ID,
		ScreenCode:         s.ScreenCode,
		Name:               s.Name,
		Description:        s.Description,
		FigmaFileID:        s.FigmaFileID,
		FigmaNodeID:        s.FigmaNodeID,
		DesignURL:          s.DesignURL(),
		Status:             string(s.Status),
		Overview:           s.Overview,
		AcceptanceCriteria: s.AcceptanceCriteria,
		RecommendedAPIs:    s.RecommendedAPIs,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// ToScreenDetailResponse 转换屏幕详情
func ToScreenDetailResponse(d *screen.Detail) *ScreenDetailResponse {
	if d == nil {
		return nil
	}
	return &ScreenDetailResponse{
		ScreenResponse: ToScreenResponse(d.Screen),
		Requirements:   ToRequirementResponses(d.Requirements),
	}
}

// ToScreenListResponse 转换屏幕列表
func ToScreenListResponse(screens []*entity.Screen) *ScreenListResponse {
	resp := &ScreenListResponse{
		Screens: make([]*ScreenResponse, 0, len(screens)),
	}
	for _, s := range screens {
		resp.Screens = append(resp.Screens, ToScreenResponse(s))
	}
	return resp
}

// ToDashboardResponse 转换看板统计，所有状态都会出现在 by_status 中
func ToDashboardResponse(d *screen.Dashboard) *DashboardResponse {
	resp := &DashboardResponse{
		TotalScreens:      d.TotalScreens,
		TotalRequirements: d.TotalRequirements,
		ByStatus:          make(map[string]int64, len(entity.ScreenStatuses)),
		CompletionRate:    d.CompletionRate,
	}
	for _, st := range entity.ScreenStatuses {
		resp.ByStatus[string(st)] = d.ByStatus[st]
	}
	return resp
}
