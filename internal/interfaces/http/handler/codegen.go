package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/interfaces/http/dto"
	apperrors "screen-dev-assistant/pkg/errors"
)

// CodegenHandler 代码生成处理器
type CodegenHandler struct {
	codegen CodegenService
	design  DesignService
}

// NewCodegenHandler 创建代码生成处理器
func NewCodegenHandler(codegen CodegenService, design DesignService) *CodegenHandler {
	return &CodegenHandler{
		codegen: codegen,
		design:  design,
	}
}

// StartCodegen 触发一次生成尝试
// 默认在本进程异步执行并返回 202；wait=true 时同步执行；mode=queued 时投递给 worker
// @Summary 触发代码生成
// @Tags Codegen
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Param wait query bool false "同步等待结果"
// @Param mode query string false "inline 或 queued"
// @Success 200 {object} dto.Response[dto.GenerateCodeResponse]
// @Success 202 {object} dto.Response[dto.StartCodegenResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "已有尝试进行中"
// @Router /v1/screens/{sid}/codegen [post]
func (h *CodegenHandler) StartCodegen(c *gin.Context) {
	ctx := c.Request.Context()
	screenID := dto.BindScreenID(c)
	opts := dto.BindCodegenOptions(c)

	switch {
	case opts.Mode == entity.JobModeQueued:
		job, err := h.codegen.Enqueue(ctx, screenID)
		if err != nil {
			handleError(c, err, "failed to enqueue codegen job")
			return
		}
		dto.Accepted(c, &dto.StartCodegenResponse{Job: dto.ToJobResponse(job)})

	case opts.Wait:
		result, err := h.codegen.Generate(ctx, screenID)
		if err != nil {
			handleError(c, err, "failed to generate code")
			return
		}
		dto.Success(c, dto.ToGenerateCodeResponse(result))

	default:
		result, err := h.codegen.Start(ctx, screenID)
		if err != nil {
			handleError(c, err, "failed to start codegen")
			return
		}
		dto.Accepted(c, dto.ToStartCodegenResponse(result))
	}
}

// GetCodegen 返回编排器快照
// @Summary 代码生成状态
// @Tags Codegen
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Success 200 {object} dto.Response[dto.SnapshotResponse]
// @Router /v1/screens/{sid}/codegen [get]
func (h *CodegenHandler) GetCodegen(c *gin.Context) {
	snap, err := h.codegen.Status(c.Request.Context(), dto.BindScreenID(c))
	if err != nil {
		handleError(c, err, "failed to get codegen status")
		return
	}
	dto.Success(c, dto.ToSnapshotResponse(snap))
}

// CancelCodegen 取消进行中的尝试
// @Summary 取消代码生成
// @Tags Codegen
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Success 200 {object} dto.Response[dto.CancelCodegenResponse]
// @Router /v1/screens/{sid}/codegen [delete]
func (h *CodegenHandler) CancelCodegen(c *gin.Context) {
	screenID := dto.BindScreenID(c)
	cancelled, err := h.codegen.Cancel(c.Request.Context(), screenID)
	if err != nil {
		handleError(c, err, "failed to cancel codegen")
		return
	}
	dto.Success(c, &dto.CancelCodegenResponse{ScreenID: screenID, Cancelled: cancelled})
}

// PreviewPrompt 预览将发送给模型的提示词
// @Summary 提示词预览
// @Tags Codegen
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Success 200 {object} dto.Response[dto.PromptPreviewResponse]
// @Router /v1/screens/{sid}/codegen/prompt [get]
func (h *CodegenHandler) PreviewPrompt(c *gin.Context) {
	preview, err := h.codegen.PreviewPrompt(c.Request.Context(), dto.BindScreenID(c))
	if err != nil {
		handleError(c, err, "failed to build prompt preview")
		return
	}
	dto.Success(c, dto.ToPromptPreviewResponse(preview))
}

// GetDesign 返回设计稿渲染地址与 Figma 链接
// @Summary 设计稿预览
// @Tags Design
// @Produce json
// @Param sid path string true "屏幕 ID"
// @Success 200 {object} dto.Response[dto.DesignResponse]
// @Failure 422 {object} dto.ErrorResponse "未关联设计稿"
// @Failure 502 {object} dto.ErrorResponse "渲染服务失败"
// @Router /v1/screens/{sid}/design [get]
func (h *CodegenHandler) GetDesign(c *gin.Context) {
	preview, err := h.design.Preview(c.Request.Context(), dto.BindScreenID(c))
	if err != nil {
		handleError(c, err, "failed to resolve design")
		return
	}
	dto.Success(c, dto.ToDesignResponse(preview))
}

// GetDesignImage 返回设计稿渲染图原始字节
// @Summary 设计稿图片
// @Tags Design
// @Produce png
// @Param sid path string true "屏幕 ID"
// @Success 200
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/screens/{sid}/design/image [get]
func (h *CodegenHandler) GetDesignImage(c *gin.Context) {
	img, err := h.design.Image(c.Request.Context(), dto.BindScreenID(c))
	if err != nil {
		handleError(c, err, "failed to fetch design image")
		return
	}

	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		handleError(c, apperrors.ErrDesignFetchFailed.WithDetail("image payload is not valid base64").WithError(err), "failed to decode design image")
		return
	}

	c.Header("Cache-Control", "private, max-age=60")
	c.Data(http.StatusOK, img.MediaType, data)
}
