package handler

import (
	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/interfaces/http/dto"
)

// ReviewHandler 测试回顾处理器
type ReviewHandler struct {
	reviews ReviewService
}

// NewReviewHandler 创建测试回顾处理器
func NewReviewHandler(reviews ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// GetLatestRun 获取屏幕最近一次测试运行
// @Summary 最近测试结果
// @Tags Review
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Success 200 {object} dto.Response[dto.TestRunResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/screens/{sid}/review [get]
func (h *ReviewHandler) GetLatestRun(c *gin.Context) {
	run, err := h.reviews.Latest(c.Request.Context(), dto.BindScreenID(c))
	if err != nil {
		handleError(c, err, "failed to get latest test run")
		return
	}
	dto.Success(c, dto.ToTestRunResponse(run))
}

// ListRuns 分页获取测试运行历史
// @Summary 测试运行历史
// @Tags Review
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Success 200 {object} dto.Response[dto.TestRunListResponse]
// @Router /v1/screens/{sid}/review/runs [get]
func (h *ReviewHandler) ListRuns(c *gin.Context) {
	pageReq := dto.BindPage(c)
	result, err := h.reviews.List(c.Request.Context(), dto.BindScreenID(c), pageReq.Pagination())
	if err != nil {
		handleError(c, err, "failed to list test runs")
		return
	}
	dto.SuccessWithPage(c, dto.ToTestRunListResponse(result.Items), dto.ToPageMeta(result))
}

// RecordRun 记录一次测试运行，汇总由用例计算
// @Summary 记录测试运行
// @Tags Review
// @Accept json
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Param body body dto.RecordTestRunRequest true "测试用例"
// @Success 201 {object} dto.Response[dto.TestRunResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/screens/{sid}/review/runs [post]
func (h *ReviewHandler) RecordRun(c *gin.Context) {
	var req dto.RecordTestRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	run, err := h.reviews.RecordRun(c.Request.Context(), dto.BindScreenID(c), req.ToInput())
	if err != nil {
		handleError(c, err, "failed to record test run")
		return
	}
	dto.Created(c, dto.ToTestRunResponse(run))
}
