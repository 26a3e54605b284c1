package codegen

import (
	"context"

	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/repository"
	apperrors "screen-dev-assistant/pkg/errors"
)

// DesignPreview 设计稿预览信息
type DesignPreview struct {
	FileID   string `json:"file_id"`
	NodeID   string `json:"node_id"`
	ImageURL string `json:"image_url"`
	FigmaURL string `json:"figma_url"`
}

// DesignService 设计稿预览
type DesignService struct {
	screens repository.ScreenRepository
	source  domain.DesignSource
}

// NewDesignService 创建设计稿预览服务
func NewDesignService(screens repository.ScreenRepository, source domain.DesignSource) *DesignService {
	return &DesignService{screens: screens, source: source}
}

func (s *DesignService) reference(ctx context.Context, screenID string) (domain.DesignReference, error) {
	screen, err := s.screens.GetByID(ctx, screenID)
	if err != nil {
		return domain.DesignReference{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load screen")
	}
	if screen == nil {
		return domain.DesignReference{}, apperrors.ErrScreenNotFound
	}
	ref := screen.DesignReference()
	if ref.IsZero() {
		return ref, apperrors.ErrMissingDesign
	}
	return ref, nil
}

// Preview 解析渲染图地址与设计稿链接
func (s *DesignService) Preview(ctx context.Context, screenID string) (*DesignPreview, error) {
	ref, err := s.reference(ctx, screenID)
	if err != nil {
		return nil, err
	}
	imageURL, err := s.source.ResolveImageURL(ctx, ref)
	if err != nil {
		return nil, apperrors.ErrDesignFetchFailed.WithDetail(err.Error()).WithError(err)
	}
	return &DesignPreview{
		FileID:   ref.FileID,
		NodeID:   ref.NodeID,
		ImageURL: imageURL,
		FigmaURL: domain.DesignURL(ref),
	}, nil
}

// Image 抓取渲染图
func (s *DesignService) Image(ctx context.Context, screenID string) (*domain.RenderedImage, error) {
	ref, err := s.reference(ctx, screenID)
	if err != nil {
		return nil, err
	}
	img, err := s.source.FetchRenderedImage(ctx, ref)
	if err != nil {
		return nil, apperrors.ErrDesignFetchFailed.WithDetail(err.Error()).WithError(err)
	}
	return img, nil
}
