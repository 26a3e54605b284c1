package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/interfaces/http/dto"
)

// RequirementHandler 需求处理器
type RequirementHandler struct {
	requirements RequirementService
}

// NewRequirementHandler 创建需求处理器
func NewRequirementHandler(requirements RequirementService) *RequirementHandler {
	return &RequirementHandler{requirements: requirements}
}

// ListRequirements 按概述关键字搜索需求
// @Summary 搜索需求
// @Tags Requirements
// @Produce json
// @Param q query string false "概述关键字，不区分大小写"
// @Success 200 {object} dto.Response[dto.RequirementListResponse]
// @Router /v1/requirements [get]
func (h *RequirementHandler) ListRequirements(c *gin.Context) {
	pageReq := dto.BindPage(c)
	query := strings.TrimSpace(c.Query("q"))

	result, err := h.requirements.Search(c.Request.Context(), query, pageReq.Pagination())
	if err != nil {
		handleError(c, err, "failed to search requirements")
		return
	}
	dto.SuccessWithPage(c, &dto.RequirementListResponse{
		Requirements: dto.ToRequirementResponses(result.Items),
	}, dto.ToPageMeta(result))
}

// CreateRequirement 创建需求
// @Summary 创建需求
// @Tags Requirements
// @Accept json
// @Produce json
// @Param body body dto.RequirementRequest true "需求"
// @Success 201 {object} dto.Response[dto.RequirementResponse]
// @Router /v1/requirements [post]
func (h *RequirementHandler) CreateRequirement(c *gin.Context) {
	var req dto.RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	r, err := h.requirements.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		handleError(c, err, "failed to create requirement")
		return
	}
	dto.Created(c, dto.ToRequirementResponse(r))
}

// GetRequirement 获取需求
// @Summary 获取需求
// @Tags Requirements
// @Produce json
// @Param rid path string true "需求 ID"
// @Success 200 {object} dto.Response[dto.RequirementResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/requirements/{rid} [get]
func (h *RequirementHandler) GetRequirement(c *gin.Context) {
	r, err := h.requirements.Get(c.Request.Context(), dto.BindRequirementID(c))
	if err != nil {
		handleError(c, err, "failed to get requirement")
		return
	}
	dto.Success(c, dto.ToRequirementResponse(r))
}

// UpdateRequirement 更新需求
// @Summary 更新需求
// @Tags Requirements
// @Accept json
// @Produce json
// @Param rid path string true "需求 ID"
// @Param body body dto.RequirementRequest true "需求"
// @Success 200 {object} dto.Response[dto.RequirementResponse]
// @Router /v1/requirements/{rid} [put]
func (h *RequirementHandler) UpdateRequirement(c *gin.Context) {
	var req dto.RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	r, err := h.requirements.Update(c.Request.Context(), dto.BindRequirementID(c), req.ToInput())
	if err != nil {
		handleError(c, err, "failed to update requirement")
		return
	}
	dto.Success(c, dto.ToRequirementResponse(r))
}

// DeleteRequirement 删除需求
// @Summary 删除需求
// @Tags Requirements
// @Param rid path string true "需求 ID"
// @Success 204
// @Router /v1/requirements/{rid} [delete]
func (h *RequirementHandler) DeleteRequirement(c *gin.Context) {
	if err := h.requirements.Delete(c.Request.Context(), dto.BindRequirementID(c)); err != nil {
		handleError(c, err, "failed to delete requirement")
		return
	}
	dto.NoContent(c)
}
