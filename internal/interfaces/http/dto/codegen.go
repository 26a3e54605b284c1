package dto

import (
	"time"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/application/codegen"
	"screen-dev-assistant/internal/domain/entity"
)

// CodegenOptions 触发生成的查询参数
type CodegenOptions struct {
	Wait bool
	Mode entity.JobMode
}

// BindCodegenOptions 绑定 ?wait= 与 ?mode=，mode 缺省为 inline
func BindCodegenOptions(c *gin.Context) CodegenOptions {
	opts := CodegenOptions{
		Wait: parseBool(c.Query("wait")),
		Mode: entity.JobModeInline,
	}
	if entity.JobMode(c.Query("mode")) == entity.JobModeQueued {
		opts.Mode = entity.JobModeQueued
	}
	return opts
}

// SnapshotResponse 编排器快照响应
type SnapshotResponse struct {
	State     string    `json:"state"`
	Attempt   uint64    `json:"attempt"`
	Code      string    `json:"code,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// StartCodegenResponse 异步触发响应
type StartCodegenResponse struct {
	Snapshot *SnapshotResponse `json:"snapshot,omitempty"`
	Job      *JobResponse      `json:"job"`
}

// GenerateCodeResponse 同步生成响应，流程失败也以 200 返回
type GenerateCodeResponse struct {
	Outcome  string            `json:"outcome"`
	Code     string            `json:"code,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Kind     string            `json:"kind,omitempty"`
	Snapshot *SnapshotResponse `json:"snapshot"`
	Job      *JobResponse      `json:"job"`
}

// CancelCodegenResponse 取消生成响应
type CancelCodegenResponse struct {
	ScreenID  string `json:"screen_id"`
	Cancelled bool   `json:"cancelled"`
}

// PromptPreviewResponse 提示词预览响应
type PromptPreviewResponse struct {
	SystemInstruction string `json:"system_instruction"`
	Text              string `json:"text"`
	DesignURL         string `json:"design_url,omitempty"`
}

// DesignResponse 设计稿预览响应
type DesignResponse struct {
	FileID   string `json:"file_id"`
	NodeID   string `json:"node_id"`
	ImageURL string `json:"image_url"`
	FigmaURL string `json:"figma_url"`
}

// ToSnapshotResponse 转换编排器快照
func ToSnapshotResponse(s codegen.Snapshot) *SnapshotResponse {
	return &SnapshotResponse{
		State:     string(s.State),
		Attempt:   s.Attempt,
		Code:      s.Code,
		Reason:    s.Reason,
		Kind:      string(s.Kind),
		UpdatedAt: s.UpdatedAt,
	}
}

// ToStartCodegenResponse 转换异步触发结果
func ToStartCodegenResponse(r *codegen.StartResult) *StartCodegenResponse {
	return &StartCodegenResponse{
		Snapshot: ToSnapshotResponse(r.Snapshot),
		Job:      ToJobResponse(r.Job),
	}
}

// ToGenerateCodeResponse 转换同步生成结果
func ToGenerateCodeResponse(r *codegen.GenerateResult) *GenerateCodeResponse {
	return &GenerateCodeResponse{
		Outcome:  string(r.Result.Outcome),
		Code:     r.Result.Code,
		Reason:   r.Result.Reason,
		Kind:     string(r.Result.Kind),
		Snapshot: ToSnapshotResponse(r.Snapshot),
		Job:      ToJobResponse(r.Job),
	}
}

// ToPromptPreviewResponse 转换提示词预览
func ToPromptPreviewResponse(p *codegen.PromptPreview) *PromptPreviewResponse {
	return &PromptPreviewResponse{
		SystemInstruction: p.SystemInstruction,
		Text:              p.Text,
		DesignURL:         p.DesignURL,
	}
}

// ToDesignResponse 转换设计稿预览
func ToDesignResponse(p *codegen.DesignPreview) *DesignResponse {
	return &DesignResponse{
		FileID:   p.FileID,
		NodeID:   p.NodeID,
		ImageURL: p.ImageURL,
		FigmaURL: p.FigmaURL,
	}
}
