// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"errors"
)

// ErrDuplicate 唯一键（屏幕编码、需求编码）冲突
var ErrDuplicate = errors.New("duplicate key")

// TxKey 事务上下文键类型
type TxKey struct{}

// Transactor 事务管理接口
type Transactor interface {
	// WithTransaction 在事务中执行操作，已在事务中时复用外层事务
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// 分页大小
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination 分页参数，Page 从 1 开始
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 创建分页参数，越界值被收敛到有效范围
func NewPagination(page, pageSize int) Pagination {
	page = max(page, 1)
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// Offset 计算偏移量
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit 获取限制数量
func (p Pagination) Limit() int {
	return p.PageSize
}

// PagedResult 分页结果
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedResult 创建分页结果；items 为 nil 时替换为空切片，响应中输出 []
func NewPagedResult[T any](items []T, total int64, pagination Pagination) *PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if size := int64(pagination.PageSize); size > 0 {
		totalPages = int((total + size - 1) / size)
	}
	return &PagedResult[T]{
		Items:      items,
		Total:      total,
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalPages: totalPages,
	}
}
