// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/interfaces/http/dto"
)

// JobHandler 任务处理器
type JobHandler struct {
	codegen CodegenService
}

// NewJobHandler 创建任务处理器
func NewJobHandler(codegen CodegenService) *JobHandler {
	return &JobHandler{
		codegen: codegen,
	}
}

// GetJob 获取任务详情
// @Summary 获取任务详情
// @Description 获取指定生成任务的状态、进度与结果
// @Tags Jobs
// @Accept json
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.codegen.GetJob(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		handleError(c, err, "failed to get job")
		return
	}
	dto.Success(c, dto.ToJobResponse(job))
}

// CancelJob 取消任务
// @Summary 取消任务
// @Description 取消排队中的任务，或本进程中执行中的任务
// @Tags Jobs
// @Accept json
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.CancelJobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "任务无法取消"
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid} [delete]
func (h *JobHandler) CancelJob(c *gin.Context) {
	job, err := h.codegen.CancelJob(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		handleError(c, err, "failed to cancel job")
		return
	}
	dto.Success(c, &dto.CancelJobResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		Cancelled: true,
	})
}

// ListScreenJobs 获取屏幕的任务列表
// @Summary 屏幕任务列表
// @Tags Jobs
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Param status query string false "状态过滤"
// @Param mode query string false "inline 或 queued"
// @Success 200 {object} dto.Response[dto.JobListResponse]
// @Router /v1/screens/{sid}/jobs [get]
func (h *JobHandler) ListScreenJobs(c *gin.Context) {
	pageReq := dto.BindPage(c)

	var filter *repository.JobFilter
	status := c.Query("status")
	mode := c.Query("mode")
	if status != "" || mode != "" {
		filter = &repository.JobFilter{
			Status: entity.JobStatus(status),
			Mode:   entity.JobMode(mode),
		}
	}

	result, err := h.codegen.ListJobs(c.Request.Context(), dto.BindScreenID(c), filter, pageReq.Pagination())
	if err != nil {
		handleError(c, err, "failed to list jobs")
		return
	}
	dto.SuccessWithPage(c, dto.ToJobListResponse(result.Items), dto.ToPageMeta(result))
}
