// Package codegen 编排设计稿渲染、提示词组装与代码生成
package codegen

import (
	"strings"

	domain "screen-dev-assistant/internal/domain/codegen"
)

// SystemInstruction 固定系统指令
const SystemInstruction = `You are a senior front-end engineer. Convert the attached screen design into a single React function component.

Rules:
- Use the shadcn/ui component library for every control it provides (Button, Input, Card, Table, Tabs, Dialog, Badge and so on), imported from "@/components/ui/*".
- Style layout and spacing exclusively with Tailwind CSS utility classes.
- Cover every listed requirement; wire placeholder handlers where behaviour needs a backend.
- Export the component as the default export.
- Reply with the code only, inside one fenced code block. Do not add explanations before or after it.`

// BuildText 生成需求摘要文本块：首行为屏幕名，其后每条需求一行
func BuildText(screenName string, reqs []domain.Requirement) string {
	var b strings.Builder
	b.WriteString("Screen: ")
	b.WriteString(screenName)
	for _, r := range reqs {
		b.WriteString("\n- ")
		b.WriteString(r.Overview)
		b.WriteString(": ")
		b.WriteString(r.Context)
	}
	return b.String()
}

// BuildRequest 组装一次尝试的完整请求：一个文本块加一个图片块
func BuildRequest(screenName string, reqs []domain.Requirement, image *domain.RenderedImage) *domain.GenerationRequest {
	img := *image
	return &domain.GenerationRequest{
		SystemInstruction: SystemInstruction,
		Blocks: []domain.ContentBlock{
			{Type: domain.BlockText, Text: BuildText(screenName, reqs)},
			{Type: domain.BlockImage, Image: &img},
		},
	}
}
