// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/application/codegen"
	"screen-dev-assistant/internal/application/screen"
	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/interfaces/http/dto"
	apperrors "screen-dev-assistant/pkg/errors"
	"screen-dev-assistant/pkg/logger"
)

// ScreenService 屏幕与看板用例
type ScreenService interface {
	Dashboard(ctx context.Context) (*screen.Dashboard, error)
	List(ctx context.Context, filter *repository.ScreenFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Screen], error)
	Create(ctx context.Context, in screen.CreateInput) (*screen.Detail, error)
	Get(ctx context.Context, id string) (*screen.Detail, error)
	Update(ctx context.Context, id string, in screen.UpdateInput) (*screen.Detail, error)
	UpdateStatus(ctx context.Context, id string, status entity.ScreenStatus) (*entity.Screen, error)
	Delete(ctx context.Context, id string) error
	SetRequirements(ctx context.Context, id string, requirementIDs []string) (*screen.Detail, error)
}

// RequirementService 需求用例
type RequirementService interface {
	Create(ctx context.Context, in screen.RequirementInput) (*entity.Requirement, error)
	Get(ctx context.Context, id string) (*entity.Requirement, error)
	Update(ctx context.Context, id string, in screen.RequirementInput) (*entity.Requirement, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, pagination repository.Pagination) (*repository.PagedResult[*entity.Requirement], error)
}

// ReviewService 测试回顾用例
type ReviewService interface {
	RecordRun(ctx context.Context, screenID string, in screen.RecordRunInput) (*entity.TestRun, error)
	Latest(ctx context.Context, screenID string) (*entity.TestRun, error)
	List(ctx context.Context, screenID string, pagination repository.Pagination) (*repository.PagedResult[*entity.TestRun], error)
}

// CodegenService 代码生成与任务用例
type CodegenService interface {
	Start(ctx context.Context, screenID string) (*codegen.StartResult, error)
	Generate(ctx context.Context, screenID string) (*codegen.GenerateResult, error)
	Enqueue(ctx context.Context, screenID string) (*entity.GenerationJob, error)
	Status(ctx context.Context, screenID string) (codegen.Snapshot, error)
	Cancel(ctx context.Context, screenID string) (bool, error)
	Forget(screenID string)
	PreviewPrompt(ctx context.Context, screenID string) (*codegen.PromptPreview, error)
	GetJob(ctx context.Context, jobID string) (*entity.GenerationJob, error)
	ListJobs(ctx context.Context, screenID string, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error)
	CancelJob(ctx context.Context, jobID string) (*entity.GenerationJob, error)
}

// DesignService 设计稿预览用例
type DesignService interface {
	Preview(ctx context.Context, screenID string) (*codegen.DesignPreview, error)
	Image(ctx context.Context, screenID string) (*domain.RenderedImage, error)
}

// handleError 写出错误响应：AppError 按错误码映射，流程错误先转换，其余按 500 处理
func handleError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()

	appErr := fromCodegen(err)
	if appErr == nil && apperrors.IsAppError(err) {
		appErr = apperrors.AsAppError(err)
	}
	if appErr == nil {
		logger.Error(ctx, fallback, err)
		dto.InternalError(c, fallback)
		return
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(ctx, fallback, err, "code", string(appErr.Code))
	}
	dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	})
}

// fromCodegen 把生成流程错误转换为应用错误，非流程错误返回 nil
func fromCodegen(err error) *apperrors.AppError {
	if errors.Is(err, domain.ErrAttemptInFlight) {
		return apperrors.ErrGenerationInProgress.WithError(err)
	}

	var perr *domain.Error
	if !errors.As(err, &perr) {
		return nil
	}

	switch {
	case perr.Kind == domain.KindMissingReference:
		return apperrors.ErrMissingDesign.WithDetail(perr.Error()).WithError(err)
	case perr.Stage == domain.StageFetch:
		return apperrors.ErrDesignFetchFailed.WithDetail(perr.Error()).WithError(err)
	case perr.Kind == domain.KindAuthentication,
		perr.Kind == domain.KindTransport,
		perr.Kind == domain.KindMalformedResponse:
		return apperrors.Wrap(err, apperrors.CodeLLMProviderError, "generation provider error").WithDetail(perr.Error())
	default:
		return apperrors.ErrGenerationFailed.WithDetail(perr.Error()).WithError(err)
	}
}
