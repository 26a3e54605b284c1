// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/interfaces/http/middleware"
)

// RegisterV1Routes 注册 v1 版本路由，codegenLimit 只作用于触发生成接口
func RegisterV1Routes(v1 *gin.RouterGroup, h *RouterHandlers, codegenLimit gin.HandlerFunc) {
	// 看板
	v1.GET("/dashboard", h.Screen.Dashboard)

	// 屏幕管理
	screens := v1.Group("/screens")
	{
		screens.GET("", h.Screen.ListScreens)
		screens.POST("", h.Screen.CreateScreen)
	}

	screen := screens.Group("/:sid", middleware.ScreenContext())
	{
		screen.GET("", h.Screen.GetScreen)
		screen.PUT("", h.Screen.UpdateScreen)
		screen.PATCH("/status", h.Screen.UpdateScreenStatus)
		screen.DELETE("", h.Screen.DeleteScreen)
		screen.PUT("/requirements", h.Screen.SetScreenRequirements)

		// 设计稿
		screen.GET("/design", h.Codegen.GetDesign)
		screen.GET("/design/image", h.Codegen.GetDesignImage)

		// 代码生成
		screen.POST("/codegen", codegenLimit, h.Codegen.StartCodegen)
		screen.GET("/codegen", h.Codegen.GetCodegen)
		screen.DELETE("/codegen", h.Codegen.CancelCodegen)
		screen.GET("/codegen/prompt", h.Codegen.PreviewPrompt)

		// 任务
		screen.GET("/jobs", h.Job.ListScreenJobs)

		// 测试回顾
		screen.GET("/review", h.Review.GetLatestRun)
		screen.GET("/review/runs", h.Review.ListRuns)
		screen.POST("/review/runs", h.Review.RecordRun)
	}

	// 任务管理
	jobs := v1.Group("/jobs")
	{
		jobs.GET("/:jid", h.Job.GetJob)
		jobs.DELETE("/:jid", h.Job.CancelJob)
	}

	// 需求管理
	requirements := v1.Group("/requirements")
	{
		requirements.GET("", h.Requirement.ListRequirements)
		requirements.POST("", h.Requirement.CreateRequirement)
		requirements.GET("/:rid", h.Requirement.GetRequirement)
		requirements.PUT("/:rid", h.Requirement.UpdateRequirement)
		requirements.DELETE("/:rid", h.Requirement.DeleteRequirement)
	}

	// 生成服务中转
	v1.Any("/relay/anthropic/*path", h.Relay.Relay)
}
