package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/interfaces/http/dto"
	"screen-dev-assistant/pkg/logger"
)

// ScreenHandler 屏幕处理器
type ScreenHandler struct {
	screens ScreenService
	codegen CodegenService
}

// NewScreenHandler 创建屏幕处理器
func NewScreenHandler(screens ScreenService, codegen CodegenService) *ScreenHandler {
	return &ScreenHandler{
		screens: screens,
		codegen: codegen,
	}
}

// Dashboard 看板统计
// @Summary 看板统计
// @Tags Screens
// @Produce json
// @Success 200 {object} dto.Response[dto.DashboardResponse]
// @Router /v1/dashboard [get]
func (h *ScreenHandler) Dashboard(c *gin.Context) {
	d, err := h.screens.Dashboard(c.Request.Context())
	if err != nil {
		handleError(c, err, "failed to load dashboard")
		return
	}
	dto.Success(c, dto.ToDashboardResponse(d))
}

// ListScreens 获取屏幕列表
// @Summary 获取屏幕列表
// @Tags Screens
// @Produce json
// @Param status query string false "状态过滤"
// @Param q query string false "名称或编号关键字"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[dto.ScreenListResponse]
// @Router /v1/screens [get]
func (h *ScreenHandler) ListScreens(c *gin.Context) {
	pageReq := dto.BindPage(c)

	var filter *repository.ScreenFilter
	status := strings.TrimSpace(c.Query("status"))
	query := strings.TrimSpace(c.Query("q"))
	if status != "" || query != "" {
		filter = &repository.ScreenFilter{
			Status: entity.ScreenStatus(status),
			Query:  query,
		}
	}

	result, err := h.screens.List(c.Request.Context(), filter, pageReq.Pagination())
	if err != nil {
		handleError(c, err, "failed to list screens")
		return
	}
	dto.SuccessWithPage(c, dto.ToScreenListResponse(result.Items), dto.ToPageMeta(result))
}

// CreateScreen 创建屏幕
// @Summary 创建屏幕
// @Tags Screens
// @Accept json
// @Produce json
// @Param body body dto.CreateScreenRequest true "屏幕信息"
// @Success 201 {object} dto.Response[dto.ScreenDetailResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/screens [post]
func (h *ScreenHandler) CreateScreen(c *gin.Context) {
	var req dto.CreateScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	detail, err := h.screens.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		handleError(c, err, "failed to create screen")
		return
	}
	dto.Created(c, dto.ToScreenDetailResponse(detail))
}

// GetScreen 获取屏幕详情，包含有序需求
// @Summary 获取屏幕详情
// @Tags Screens
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Success 200 {object} dto.Response[dto.ScreenDetailResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/screens/{sid} [get]
func (h *ScreenHandler) GetScreen(c *gin.Context) {
	detail, err := h.screens.Get(c.Request.Context(), dto.BindScreenID(c))
	if err != nil {
		handleError(c, err, "failed to get screen")
		return
	}
	dto.Success(c, dto.ToScreenDetailResponse(detail))
}

// UpdateScreen 更新屏幕
// @Summary 更新屏幕
// @Tags Screens
// @Accept json
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Param body body dto.UpdateScreenRequest true "更新字段"
// @Success 200 {object} dto.Response[dto.ScreenDetailResponse]
// @Router /v1/screens/{sid} [put]
func (h *ScreenHandler) UpdateScreen(c *gin.Context) {
	var req dto.UpdateScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	detail, err := h.screens.Update(c.Request.Context(), dto.BindScreenID(c), req.ToInput())
	if err != nil {
		handleError(c, err, "failed to update screen")
		return
	}
	dto.Success(c, dto.ToScreenDetailResponse(detail))
}

// UpdateScreenStatus 更新屏幕开发状态
// @Summary 更新屏幕状态
// @Tags Screens
// @Accept json
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Param body body dto.UpdateScreenStatusRequest true "状态"
// @Success 200 {object} dto.Response[dto.ScreenResponse]
// @Router /v1/screens/{sid}/status [patch]
func (h *ScreenHandler) UpdateScreenStatus(c *gin.Context) {
	var req dto.UpdateScreenStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	s, err := h.screens.UpdateStatus(c.Request.Context(), dto.BindScreenID(c), entity.ScreenStatus(req.Status))
	if err != nil {
		handleError(c, err, "failed to update screen status")
		return
	}
	dto.Success(c, dto.ToScreenResponse(s))
}

// DeleteScreen 删除屏幕，并丢弃其编排器
// @Summary 删除屏幕
// @Tags Screens
// @Param sid path string true "屏幕 ID"
// @Success 204
// @Router /v1/screens/{sid} [delete]
func (h *ScreenHandler) DeleteScreen(c *gin.Context) {
	ctx := c.Request.Context()
	screenID := dto.BindScreenID(c)

	if err := h.screens.Delete(ctx, screenID); err != nil {
		handleError(c, err, "failed to delete screen")
		return
	}
	if h.codegen != nil {
		h.codegen.Forget(screenID)
	}

	logger.Info(ctx, "screen deleted", "screen_id", screenID)
	dto.NoContent(c)
}

// SetScreenRequirements 替换屏幕的有序需求
// @Summary 替换屏幕需求
// @Tags Screens
// @Accept json
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Param body body dto.SetRequirementsRequest true "需求 ID 列表"
// @Success 200 {object} dto.Response[dto.ScreenDetailResponse]
// @Router /v1/screens/{sid}/requirements [put]
func (h *ScreenHandler) SetScreenRequirements(c *gin.Context) {
	var req dto.SetRequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	detail, err := h.screens.SetRequirements(c.Request.Context(), dto.BindScreenID(c), req.RequirementIDs)
	if err != nil {
		handleError(c, err, "failed to set screen requirements")
		return
	}
	dto.Success(c, dto.ToScreenDetailResponse(detail))
}
