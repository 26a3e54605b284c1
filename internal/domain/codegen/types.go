// Package codegen 定义设计稿到代码生成流程中的值对象、错误分类与端口
package codegen

import "strings"

// DesignReference 指向设计文件中的单个可视节点
type DesignReference struct {
	FileID string `json:"file_id"`
	NodeID string `json:"node_id"`
}

// IsZero 判断引用是否缺少任一标识
func (r DesignReference) IsZero() bool {
	return strings.TrimSpace(r.FileID) == "" || strings.TrimSpace(r.NodeID) == ""
}

// RenderedImage 设计节点的渲染结果，Data 为标准 base64 编码
type RenderedImage struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Requirement 需求摘要中的一项
type Requirement struct {
	Overview string `json:"overview" yaml:"overview"`
	Context  string `json:"context" yaml:"context"`
}

// BlockType 内容块类型
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
)

// ContentBlock 发送给模型的单个内容块
type ContentBlock struct {
	Type  BlockType      `json:"type"`
	Text  string         `json:"text,omitempty"`
	Image *RenderedImage `json:"image,omitempty"`
}

// GenerationRequest 单次尝试构造的完整请求，构造后不再修改
type GenerationRequest struct {
	SystemInstruction string         `json:"system"`
	Blocks            []ContentBlock `json:"blocks"`
}

// TextBlocks 返回全部文本块
func (r *GenerationRequest) TextBlocks() []string {
	var out []string
	for _, b := range r.Blocks {
		if b.Type == BlockText {
			out = append(out, b.Text)
		}
	}
	return out
}

// ImageBlock 返回首个图片块
func (r *GenerationRequest) ImageBlock() *RenderedImage {
	for _, b := range r.Blocks {
		if b.Type == BlockImage {
			return b.Image
		}
	}
	return nil
}

// Completion 生成客户端的成功结果
type Completion struct {
	// Code 围栏代码块内部内容；无围栏时为整段去空白文本
	Code             string `json:"code"`
	Text             string `json:"text,omitempty"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Outcome 生成结果类别
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// GenerationResult 单次尝试的终态：Success{Code} 或 Failure{Reason}
type GenerationResult struct {
	Outcome    Outcome     `json:"outcome"`
	Code       string      `json:"code,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Kind       ErrorKind   `json:"kind,omitempty"`
	Stage      Stage       `json:"stage,omitempty"`
	Completion *Completion `json:"-"`
}

// Succeeded 是否成功
func (r GenerationResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Success 构造成功结果
func Success(c *Completion) GenerationResult {
	return GenerationResult{Outcome: OutcomeSuccess, Code: c.Code, Completion: c}
}

// Failure 构造失败结果
func Failure(err error) GenerationResult {
	return GenerationResult{Outcome: OutcomeFailure, Reason: ReasonOf(err), Kind: KindOf(err), Stage: StageOf(err)}
}
