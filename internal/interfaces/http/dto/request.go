// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/domain/repository"
)

// PageRequest 分页查询参数，非法值按默认处理而不是报错
type PageRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Pagination 转换为仓储分页参数，越界值在仓储层收敛
func (r PageRequest) Pagination() repository.Pagination {
	return repository.NewPagination(r.Page, r.PageSize)
}

// BindPage 读取 page 与 page_size
func BindPage(c *gin.Context) PageRequest {
	return PageRequest{
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}
}

// queryInt 解析整数查询参数，缺省或无法解析时为 0
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

// parseBool 解析布尔查询参数，无法解析时为 false
func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	return err == nil && v
}

// BindScreenID 路径参数 sid
func BindScreenID(c *gin.Context) string { return c.Param("sid") }

// BindJobID 路径参数 jid
func BindJobID(c *gin.Context) string { return c.Param("jid") }

// BindRequirementID 路径参数 rid
func BindRequirementID(c *gin.Context) string { return c.Param("rid") }
