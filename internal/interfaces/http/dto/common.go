package dto

import (
	"time"

	"screen-dev-assistant/internal/domain/repository"
)

// ToPageMeta 由仓储分页结果生成分页元数据
func ToPageMeta[T any](result *repository.PagedResult[T]) *PageMeta {
	if result == nil {
		return nil
	}
	return &PageMeta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      int(result.Total),
		TotalPages: result.TotalPages,
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
