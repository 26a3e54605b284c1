package codegen

import "context"

// ImageFetcher 将设计引用解析为渲染图片
type ImageFetcher interface {
	FetchRenderedImage(ctx context.Context, ref DesignReference) (*RenderedImage, error)
}

// CodeGenerator 将请求发送给模型并抽取代码
type CodeGenerator interface {
	Generate(ctx context.Context, req *GenerationRequest) (*Completion, error)
}

// ImageURLResolver 只解析渲染图地址，不下载
type ImageURLResolver interface {
	ResolveImageURL(ctx context.Context, ref DesignReference) (string, error)
}

// DesignSource 预览接口需要的设计稿能力
type DesignSource interface {
	ImageFetcher
	ImageURLResolver
}
